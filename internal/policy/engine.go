package policy

import "time"

// Decision is the outcome of evaluating a policy for one read.
type Decision struct {
	// Permit is true when the read may return the destination.
	Permit bool
	// Erase is true when the link must be securely erased. On a permit this
	// is the exhausting read; the erasure follows the response.
	Erase bool
	// Mutated is true when Policy differs from the evaluated state and must
	// be persisted before responding.
	Mutated bool
	// Counted is true when a click fuse was consumed by this read.
	Counted bool
	// Policy is the post-evaluation state.
	Policy Policy
}

// Evaluate applies p to a read happening at now.
func Evaluate(p Policy, now time.Time) Decision {
	switch p.Kind {
	case KindPermanent:
		return Decision{Permit: true, Policy: p}
	case KindTimeBomb:
		if !now.Before(p.Deadline) {
			return Decision{Erase: true, Policy: p}
		}

		return Decision{Permit: true, Policy: p}
	case KindClickFuse:
		return evaluateFuse(p)
	case KindKombinatio:
		return evaluateKombinatio(p, now)
	default:
		// Unknown state is treated as expired.
		return Decision{Erase: true, Policy: p}
	}
}

func evaluateFuse(p Policy) Decision {
	if p.Remaining <= 0 {
		return Decision{Erase: true, Policy: p}
	}

	next := ClickFuse(p.Remaining - 1)

	return Decision{
		Permit:  true,
		Erase:   next.Remaining == 0,
		Mutated: true,
		Counted: true,
		Policy:  next,
	}
}

func evaluateKombinatio(p Policy, now time.Time) Decision {
	if p.Parts == nil {
		return Decision{Erase: true, Policy: p}
	}

	left := Evaluate(p.Parts[0], now)
	right := Evaluate(p.Parts[1], now)

	if !left.Permit || !right.Permit {
		return Decision{Erase: left.Erase || right.Erase, Policy: p}
	}

	return Decision{
		Permit:  true,
		Erase:   left.Erase || right.Erase,
		Mutated: left.Mutated || right.Mutated,
		Counted: left.Counted || right.Counted,
		Policy: Policy{
			Kind:  KindKombinatio,
			Parts: &[2]Policy{left.Policy.Clone(), right.Policy.Clone()},
		},
	}
}

// CacheTTL bounds how long a destination governed by p may be served from
// the cache after a read at now. Zero means the destination must not be
// cached: the next read would exhaust the link, or it has already expired.
func CacheTTL(p Policy, now time.Time, maxTTL time.Duration) time.Duration {
	switch p.Kind {
	case KindPermanent:
		return maxTTL
	case KindTimeBomb:
		left := p.Deadline.Sub(now)
		if left <= 0 {
			return 0
		}

		return min(left, maxTTL)
	case KindClickFuse:
		if p.Remaining <= 1 {
			return 0
		}

		return maxTTL
	case KindKombinatio:
		if p.Parts == nil {
			return 0
		}

		return min(CacheTTL(p.Parts[0], now, maxTTL), CacheTTL(p.Parts[1], now, maxTTL))
	default:
		return 0
	}
}
