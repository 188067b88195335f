package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/fuselink/internal/policy"
	"go.uber.org/zap"
)

const (
	// DefaultCacheTTL is how long a destination stays warm in the cache.
	DefaultCacheTTL = time.Hour
	// DefaultReapBatch bounds the number of records erased by one Reap call.
	DefaultReapBatch = 100
)

// Service coordinates the durable store, the cache and the destruction policy engine.
type Service struct {
	store     Repository
	cache     Cache
	generator *Generator
	eraser    *Eraser
	observer  Observer
	logger    *zap.Logger
	cacheTTL  time.Duration
	reapBatch int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCacheTTL sets the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReapBatch sets how many expired records one Reap call erases at most.
func WithReapBatch(n int) Option {
	return func(s *Service) { s.reapBatch = n }
}

// NewService creates a new link service.
func NewService(
	store Repository,
	cache Cache,
	generator *Generator,
	eraser *Eraser,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:     store,
		cache:     cache,
		generator: generator,
		eraser:    eraser,
		observer:  NopObserver{},
		logger:    logger,
		cacheTTL:  DefaultCacheTTL,
		reapBatch: DefaultReapBatch,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.reapBatch <= 0 {
		s.reapBatch = DefaultReapBatch
	}

	return s
}

// Shorten persists a new link and warms the cache with its destination.
func (s *Service) Shorten(ctx context.Context, req CreateRequest) (*Link, error) {
	destination, err := NormalizeDestination(req.Destination)
	if err != nil {
		return nil, err
	}

	if err = req.Policy.Validate(); err != nil {
		return nil, err
	}

	l := &Link{
		Destination: destination,
		CreatedAt:   s.now().UTC(),
		Policy:      req.Policy.Clone(),
	}

	if req.Alias != "" {
		err = s.insertAlias(ctx, l, req.Alias)
	} else {
		err = s.insertGenerated(ctx, l)
	}

	if err != nil {
		return nil, err
	}

	if ttl := s.writeTTL(l.Policy); ttl > 0 {
		if err := s.cache.Set(ctx, l.ID, l.Destination, ttl); err != nil {
			s.logger.Warn("failed to cache link",
				zap.String("id", string(l.ID)),
				zap.Error(err),
			)
		}
	}

	if err := s.observer.LinkCreated(ctx, l); err != nil {
		s.logger.Error("failed to publish link created",
			zap.String("id", string(l.ID)),
			zap.Error(err),
		)
	}

	return l, nil
}

func (s *Service) insertAlias(ctx context.Context, l *Link, alias ID) error {
	if err := ValidateAlias(alias); err != nil {
		return err
	}

	taken, err := s.store.Exists(ctx, alias)
	if err != nil {
		return fmt.Errorf("check alias: %w", err)
	}

	if taken {
		return fmt.Errorf("%w: %s", ErrConflict, alias)
	}

	l.ID = alias

	return s.store.Insert(ctx, l)
}

// insertGenerated treats an insert conflict as a lost race and draws again.
func (s *Service) insertGenerated(ctx context.Context, l *Link) error {
	for range s.generator.maxAttempts {
		id, err := s.generator.Allocate(ctx)
		if err != nil {
			return err
		}

		l.ID = id

		err = s.store.Insert(ctx, l)
		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrConflict) {
			return fmt.Errorf("insert link: %w", err)
		}

		s.logger.Debug("identifier collision on insert", zap.String("id", string(id)))
	}

	return ErrExhausted
}

// writeTTL is the lifetime of the cache entry written at creation. It never
// outlives a time bomb.
func (s *Service) writeTTL(p policy.Policy) time.Duration {
	deadline, ok := policy.Deadline(p)
	if !ok {
		return s.cacheTTL
	}

	return min(deadline.Sub(s.now()), s.cacheTTL)
}

// Resolve returns the destination for id and applies its destruction policy.
//
// A cache hit returns the cached destination without evaluating the policy.
// On the store path the policy mutation is committed before the destination is
// returned, and the read that exhausts a policy still succeeds while erasing
// the record.
//
// An id outside the identifier space is not found without touching either
// tier: stores may reject such keys outright, e.g. invalid UTF-8 in Postgres.
func (s *Service) Resolve(ctx context.Context, id ID) (string, error) {
	if ValidateAlias(id) != nil {
		return "", ErrNotFound
	}

	destination, err := s.cache.Get(ctx, id)
	if err == nil {
		return destination, nil
	}

	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("cache lookup failed",
			zap.String("id", string(id)),
			zap.Error(err),
		)
	}

	now := s.now()

	var decision policy.Decision

	l, err := s.store.Update(ctx, id, func(l *Link) bool {
		decision = policy.Evaluate(l.Policy, now)
		if !decision.Permit || !decision.Mutated {
			return false
		}

		l.Policy = decision.Policy
		if decision.Counted {
			l.ClickCount++
		}

		return true
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("load %s: %w", id, err)
	}

	if !decision.Permit {
		if decision.Erase {
			if err := s.erase(ctx, id, erasureReason(l.Policy, now)); err != nil {
				return "", err
			}
		}

		return "", ErrGone
	}

	destination = l.Destination

	if decision.Erase {
		if err := s.erase(ctx, id, ReasonExhausted); err != nil {
			return "", err
		}
	} else if ttl := policy.CacheTTL(l.Policy, now, s.cacheTTL); ttl > 0 {
		if err := s.cache.Set(ctx, id, destination, ttl); err != nil {
			s.logger.Warn("failed to cache link",
				zap.String("id", string(id)),
				zap.Error(err),
			)
		}
	}

	if err := s.observer.LinkConsumed(ctx, l); err != nil {
		s.logger.Error("failed to publish link consumed",
			zap.String("id", string(id)),
			zap.Error(err),
		)
	}

	return destination, nil
}

// Reap erases records whose time bomb has already fired.
func (s *Service) Reap(ctx context.Context) (int, error) {
	ids, err := s.store.ExpiredBefore(ctx, s.now(), s.reapBatch)
	if err != nil {
		return 0, fmt.Errorf("list expired links: %w", err)
	}

	erased := 0

	for _, id := range ids {
		if err := s.erase(ctx, id, ReasonExpired); err != nil {
			return erased, err
		}

		erased++
	}

	return erased, nil
}

// erase runs detached from ctx so a client disconnect cannot leave a consumed
// record half destroyed.
func (s *Service) erase(ctx context.Context, id ID, reason ErasureReason) error {
	ctx = context.WithoutCancel(ctx)

	if err := s.eraser.Erase(ctx, id); err != nil {
		s.logger.Error("secure erase failed",
			zap.String("id", string(id)),
			zap.Error(err),
		)

		return fmt.Errorf("erase: %w", err)
	}

	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to evict erased link",
			zap.String("id", string(id)),
			zap.Error(err),
		)
	}

	if err := s.observer.LinkErased(ctx, id, reason); err != nil {
		s.logger.Error("failed to publish link erased",
			zap.String("id", string(id)),
			zap.Error(err),
		)
	}

	return nil
}

func erasureReason(p policy.Policy, now time.Time) ErasureReason {
	if deadline, ok := policy.Deadline(p); ok && !now.Before(deadline) {
		return ReasonExpired
	}

	return ReasonExhausted
}
