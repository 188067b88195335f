package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// The wire form is an externally tagged enum:
//
//	"Permanent"
//	{"TimeBomb": "2030-01-01T00:00:00Z"}
//	{"ClickFuse": 3}
//	{"Kombinatio": [<policy>, <policy>]}
//
// The same form is stored in the policy JSONB column.

// MarshalJSON implements json.Marshaler.
func (p Policy) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case KindPermanent:
		return json.Marshal(KindPermanent.String())
	case KindTimeBomb:
		return json.Marshal(map[string]string{
			KindTimeBomb.String(): p.Deadline.UTC().Format(time.RFC3339Nano),
		})
	case KindClickFuse:
		return json.Marshal(map[string]int64{KindClickFuse.String(): p.Remaining})
	case KindKombinatio:
		if p.Parts == nil {
			return nil, fmt.Errorf("%w: kombinatio needs exactly two policies", ErrInvalid)
		}

		return json.Marshal(map[string][2]Policy{KindKombinatio.String(): *p.Parts})
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrInvalid, p.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null decodes to Permanent.
func (p *Policy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Permanent()

		return nil
	}

	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}

		if name != KindPermanent.String() {
			return fmt.Errorf("%w: unknown unit variant %q", ErrInvalid, name)
		}

		*p = Permanent()

		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if len(tagged) != 1 {
		return fmt.Errorf("%w: expected exactly one variant, got %d", ErrInvalid, len(tagged))
	}

	for name, raw := range tagged {
		decoded, err := decodeVariant(name, raw)
		if err != nil {
			return err
		}

		*p = decoded
	}

	return nil
}

func decodeVariant(name string, raw json.RawMessage) (Policy, error) {
	switch name {
	case KindPermanent.String():
		return Permanent(), nil
	case KindTimeBomb.String():
		deadline, err := decodeDeadline(raw)
		if err != nil {
			return Policy{}, err
		}

		return TimeBomb(deadline), nil
	case KindClickFuse.String():
		var remaining int64
		if err := json.Unmarshal(raw, &remaining); err != nil {
			return Policy{}, fmt.Errorf("%w: click fuse: %w", ErrInvalid, err)
		}

		return ClickFuse(remaining), nil
	case KindKombinatio.String():
		var parts []Policy
		if err := json.Unmarshal(raw, &parts); err != nil {
			return Policy{}, err
		}

		if len(parts) != 2 {
			return Policy{}, fmt.Errorf("%w: kombinatio needs exactly two policies, got %d", ErrInvalid, len(parts))
		}

		return Kombinatio(parts[0], parts[1]), nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown variant %q", ErrInvalid, name)
	}
}

// systemTime is the epoch form some clients send for deadlines.
type systemTime struct {
	Secs  *int64 `json:"secs_since_epoch"`
	Nanos int64  `json:"nanos_since_epoch"`
}

func decodeDeadline(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '{' {
		var st systemTime
		if err := json.Unmarshal(raw, &st); err != nil || st.Secs == nil {
			return time.Time{}, fmt.Errorf("%w: time bomb deadline", ErrInvalid)
		}

		deadline := time.Unix(*st.Secs, st.Nanos).UTC()

		return deadline, checkDeadline(deadline)
	}

	var deadline time.Time
	if err := json.Unmarshal(raw, &deadline); err != nil {
		return time.Time{}, fmt.Errorf("%w: time bomb deadline: %w", ErrInvalid, err)
	}

	return deadline, nil
}

// Schema implements huma.SchemaProvider. The variant is recursive, so the
// schema documents the shape and leaves structural checks to UnmarshalJSON.
func (p Policy) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: `Destruction policy. One of "Permanent", {"TimeBomb": "<RFC3339>"}, ` +
			`{"ClickFuse": <reads>} or {"Kombinatio": [<policy>, <policy>]}. Defaults to Permanent.`,
		Examples: []any{
			"Permanent",
			map[string]any{"ClickFuse": 1},
			map[string]any{"Kombinatio": []any{
				map[string]any{"ClickFuse": 3},
				map[string]any{"TimeBomb": "2030-01-01T00:00:00Z"},
			}},
		},
	}
}
