package link

import (
	"context"
	"time"

	"github.com/serroba/fuselink/internal/policy"
)

// ID is the short public identifier of a link.
type ID string

// Link is the durable record behind a short identifier.
type Link struct {
	ID          ID
	Destination string
	CreatedAt   time.Time
	ClickCount  int64
	Policy      policy.Policy
}

// Clone returns a copy of l that shares no policy state with it.
func (l *Link) Clone() *Link {
	c := *l
	c.Policy = l.Policy.Clone()

	return &c
}

// Mutation edits a record while the store holds its row lock.
// Returning true persists the record's policy and click count.
type Mutation func(l *Link) bool

// Repository is the durable store. It is the source of truth for every link.
type Repository interface {
	// Insert stores a new record. It must fail with ErrConflict when the id is taken.
	Insert(ctx context.Context, l *Link) error
	Exists(ctx context.Context, id ID) (bool, error)
	Get(ctx context.Context, id ID) (*Link, error)
	// Update loads the record, applies mutate and persists the result as one
	// atomic step, serialized against other updates of the same id. It returns
	// the record as left by mutate, or ErrNotFound.
	Update(ctx context.Context, id ID, mutate Mutation) (*Link, error)
	// Overwrite replaces the stored destination. Missing ids are not an error.
	Overwrite(ctx context.Context, id ID, destination string) error
	// Delete removes the record. Missing ids are not an error.
	Delete(ctx context.Context, id ID) error
	// ExpiredBefore lists ids whose earliest time bomb deadline is not after t.
	ExpiredBefore(ctx context.Context, t time.Time, limit int) ([]ID, error)
}

// Cache is an advisory, expiring copy of destinations.
type Cache interface {
	// Get returns ErrCacheMiss when the id is not cached.
	Get(ctx context.Context, id ID) (string, error)
	Set(ctx context.Context, id ID, destination string, ttl time.Duration) error
	Delete(ctx context.Context, id ID) error
}

// ErasureReason says why a link was erased.
type ErasureReason string

const (
	ReasonExhausted ErasureReason = "exhausted"
	ReasonExpired   ErasureReason = "expired"
)

// Observer is told about lifecycle transitions. Failures are logged by the
// caller and never change the outcome of an operation.
type Observer interface {
	LinkCreated(ctx context.Context, l *Link) error
	LinkConsumed(ctx context.Context, l *Link) error
	LinkErased(ctx context.Context, id ID, reason ErasureReason) error
}

// CreateRequest is the input of Service.Shorten.
type CreateRequest struct {
	Destination string
	Alias       ID // optional custom alias
	Policy      policy.Policy
}
