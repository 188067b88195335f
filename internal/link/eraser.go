package link

import (
	"context"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// NoiseLength is the size of the block written over a destination before deletion.
const NoiseLength = 256

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Eraser destroys a record so its destination cannot be recovered.
type Eraser struct {
	store Repository
	noise func() string
}

// NewEraser creates a new eraser backed by the given store.
func NewEraser(store Repository) (*Eraser, error) {
	noise, err := nanoid.CustomASCII(alphanumeric, NoiseLength)
	if err != nil {
		return nil, fmt.Errorf("noise generator: %w", err)
	}

	return &Eraser{store: store, noise: noise}, nil
}

// Erase overwrites the stored destination with random noise, persists it and
// then deletes the row. Both steps must succeed.
func (e *Eraser) Erase(ctx context.Context, id ID) error {
	if err := e.store.Overwrite(ctx, id, e.noise()); err != nil {
		return fmt.Errorf("overwrite %s: %w", id, err)
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	return nil
}
