package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/fuselink/internal/link"
)

var errMock = errors.New("mock error")

const (
	testURL     = "https://example.com/very/long/path"
	testBaseURL = "http://localhost:8888"
)

// mockService is a test double for handlers.LinkService.
type mockService struct {
	shortenErr  error
	resolveErr  error
	destination string
	lastCreate  link.CreateRequest
	resolved    []link.ID
}

func (m *mockService) Shorten(_ context.Context, req link.CreateRequest) (*link.Link, error) {
	m.lastCreate = req

	if m.shortenErr != nil {
		return nil, m.shortenErr
	}

	id := req.Alias
	if id == "" {
		id = "😀😀😀"
	}

	return &link.Link{ID: id, Destination: req.Destination, Policy: req.Policy}, nil
}

func (m *mockService) Resolve(_ context.Context, id link.ID) (string, error) {
	m.resolved = append(m.resolved, id)

	if m.resolveErr != nil {
		return "", m.resolveErr
	}

	return m.destination, nil
}
