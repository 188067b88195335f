package link

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// IDLength is the number of symbols in a generated identifier.
const IDLength = 3

// DefaultMaxAttempts bounds the collision retry loop of Allocate.
const DefaultMaxAttempts = 64

type symbolRange struct {
	lo, hi rune
}

var emojiRanges = []symbolRange{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F900, 0x1F9FF},
	{0x2600, 0x26FF},
}

// Sampler returns one random symbol.
type Sampler func() rune

// EmojiSampler picks a range uniformly and then a symbol uniformly within it.
func EmojiSampler() rune {
	r := emojiRanges[rand.IntN(len(emojiRanges))]

	return r.lo + rand.Int32N(r.hi-r.lo+1)
}

// Generator allocates identifiers that are not yet present in the store.
type Generator struct {
	store       Repository
	sample      Sampler
	maxAttempts int
}

// NewGenerator creates a new identifier generator.
func NewGenerator(store Repository, sample Sampler, maxAttempts int) *Generator {
	if sample == nil {
		sample = EmojiSampler
	}

	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Generator{
		store:       store,
		sample:      sample,
		maxAttempts: maxAttempts,
	}
}

// Next draws a candidate without consulting the store.
func (g *Generator) Next() ID {
	var b strings.Builder

	for range IDLength {
		b.WriteRune(g.sample())
	}

	return ID(b.String())
}

// Allocate returns a candidate the store does not hold yet. The check is not a
// reservation: callers must still treat an insert conflict as a collision.
func (g *Generator) Allocate(ctx context.Context) (ID, error) {
	for range g.maxAttempts {
		id := g.Next()

		taken, err := g.store.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check id: %w", err)
		}

		if !taken {
			return id, nil
		}
	}

	return "", ErrExhausted
}

// ValidateAlias checks that a custom alias has the shape of a generated id.
func ValidateAlias(alias ID) error {
	s := string(alias)

	if !utf8.ValidString(s) || utf8.RuneCountInString(s) != IDLength {
		return fmt.Errorf("%w: alias must be exactly %d emoji", ErrInvalid, IDLength)
	}

	for _, r := range s {
		if !inEmojiRanges(r) {
			return fmt.Errorf("%w: alias contains %q outside the emoji ranges", ErrInvalid, r)
		}
	}

	return nil
}

func inEmojiRanges(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}

	return false
}
