package link

import (
	"errors"

	"github.com/serroba/fuselink/internal/policy"
)

var (
	ErrNotFound  = errors.New("link not found")
	ErrGone      = errors.New("link expired")
	ErrConflict  = errors.New("identifier already taken")
	ErrInvalid   = errors.New("invalid link")
	ErrCacheMiss = errors.New("cache miss")
	ErrExhausted = errors.New("identifier space exhausted")
)

// Kind is the error taxonomy exposed to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindGone
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindGone:
		return "gone"
	default:
		return "internal"
	}
}

// Classify maps any error returned by this package or its adapters onto the
// taxonomy. Anything unrecognised, including ErrExhausted, is internal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalid), errors.Is(err, policy.ErrInvalid):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrGone):
		return KindGone
	default:
		return KindInternal
	}
}
