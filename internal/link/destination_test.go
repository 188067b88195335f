package link

import (
	"errors"
	"testing"
)

func TestNormalizeDestination(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase host",
			input:    "https://EXAMPLE.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "lowercase scheme",
			input:    "HTTPS://example.com/path",
			expected: "https://example.com/path",
		},
		{
			name:     "remove default https port",
			input:    "https://example.com:443/path",
			expected: "https://example.com/path",
		},
		{
			name:     "remove default http port",
			input:    "http://example.com:80/path",
			expected: "http://example.com/path",
		},
		{
			name:     "keep non-default port",
			input:    "https://example.com:8080/path",
			expected: "https://example.com:8080/path",
		},
		{
			name:     "keep trailing slash",
			input:    "https://example.com/path/",
			expected: "https://example.com/path/",
		},
		{
			name:     "keep query and fragment",
			input:    "https://example.com/path?foo=bar#section",
			expected: "https://example.com/path?foo=bar#section",
		},
		{
			name:     "trim surrounding whitespace",
			input:    "  https://example.com  ",
			expected: "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeDestination(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestNormalizeDestination_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"://invalid",
		"example.com/path",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"https:///path-only",
	}

	for _, in := range inputs {
		if _, err := NormalizeDestination(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("NormalizeDestination(%q) error = %v, want ErrInvalid", in, err)
		}
	}
}
