// Package policy implements destruction policies for short links.
//
// A policy decides, on every durable read of a link, whether the read is
// permitted and whether the link must be erased. Evaluation is a pure
// function of the policy state and the current time; callers persist the
// returned state and perform the erasure.
package policy

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the variant held by a Policy.
type Kind uint8

const (
	// KindPermanent never expires. It is the zero value.
	KindPermanent Kind = iota
	// KindTimeBomb expires once the current time reaches its deadline.
	KindTimeBomb
	// KindClickFuse expires after a fixed number of consuming reads.
	KindClickFuse
	// KindKombinatio requires both of its sub-policies to permit access.
	KindKombinatio
)

func (k Kind) String() string {
	switch k {
	case KindPermanent:
		return "Permanent"
	case KindTimeBomb:
		return "TimeBomb"
	case KindClickFuse:
		return "ClickFuse"
	case KindKombinatio:
		return "Kombinatio"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ErrInvalid is returned for policies that cannot be evaluated.
var ErrInvalid = errors.New("invalid destruction policy")

// Policy is a tagged variant. Only the fields belonging to Kind are meaningful.
// Parts is owned by the policy: Evaluate and Clone never share it.
type Policy struct {
	Kind      Kind
	Deadline  time.Time
	Remaining int64
	Parts     *[2]Policy
}

// Permanent returns a policy that never expires.
func Permanent() Policy {
	return Policy{Kind: KindPermanent}
}

// TimeBomb returns a policy that expires at deadline.
func TimeBomb(deadline time.Time) Policy {
	return Policy{Kind: KindTimeBomb, Deadline: deadline.UTC()}
}

// ClickFuse returns a policy permitting remaining consuming reads.
// A fuse built with remaining <= 0 is already exhausted.
func ClickFuse(remaining int64) Policy {
	return Policy{Kind: KindClickFuse, Remaining: remaining}
}

// Kombinatio combines two policies with AND semantics.
func Kombinatio(left, right Policy) Policy {
	return Policy{Kind: KindKombinatio, Parts: &[2]Policy{left.Clone(), right.Clone()}}
}

// Clone returns a deep copy of p.
func (p Policy) Clone() Policy {
	if p.Parts == nil {
		return p
	}

	c := p
	c.Parts = &[2]Policy{p.Parts[0].Clone(), p.Parts[1].Clone()}

	return c
}

// Validate reports whether p is well formed.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindPermanent, KindClickFuse:
		return nil
	case KindTimeBomb:
		if p.Deadline.IsZero() {
			return fmt.Errorf("%w: time bomb without deadline", ErrInvalid)
		}

		return checkDeadline(p.Deadline)
	case KindKombinatio:
		if p.Parts == nil {
			return fmt.Errorf("%w: kombinatio needs exactly two policies", ErrInvalid)
		}

		if err := p.Parts[0].Validate(); err != nil {
			return err
		}

		return p.Parts[1].Validate()
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalid, p.Kind)
	}
}

// checkDeadline rejects deadlines that cannot round-trip through RFC 3339.
func checkDeadline(t time.Time) error {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return fmt.Errorf("%w: time bomb deadline year %d out of range", ErrInvalid, y)
	}

	return nil
}

// Counted reports whether any part of p consumes clicks.
func (p Policy) Counted() bool {
	switch p.Kind {
	case KindClickFuse:
		return true
	case KindKombinatio:
		return p.Parts != nil && (p.Parts[0].Counted() || p.Parts[1].Counted())
	default:
		return false
	}
}

// Deadline returns the earliest time bomb deadline in p.
// Under AND semantics the earliest deadline controls overall expiry.
func Deadline(p Policy) (time.Time, bool) {
	switch p.Kind {
	case KindTimeBomb:
		return p.Deadline, true
	case KindKombinatio:
		if p.Parts == nil {
			return time.Time{}, false
		}

		left, lok := Deadline(p.Parts[0])
		right, rok := Deadline(p.Parts[1])

		switch {
		case lok && rok:
			if right.Before(left) {
				return right, true
			}

			return left, true
		case lok:
			return left, true
		default:
			return right, rok
		}
	default:
		return time.Time{}, false
	}
}
