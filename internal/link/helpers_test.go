package link_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// sequence returns a sampler cycling through runes.
func sequence(runes ...rune) link.Sampler {
	var (
		mu sync.Mutex
		i  int
	)

	return func() rune {
		mu.Lock()
		defer mu.Unlock()

		r := runes[i%len(runes)]
		i++

		return r
	}
}

// recordingRepo wraps a MemoryStore and records what erasure wrote.
type recordingRepo struct {
	*store.MemoryStore

	mu              sync.Mutex
	overwritten     []string
	deleted         []link.ID
	overwriteErr    error
	insertConflicts int
	inserted        []link.ID
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MemoryStore: store.NewMemoryStore()}
}

func (r *recordingRepo) Insert(ctx context.Context, l *link.Link) error {
	r.mu.Lock()
	r.inserted = append(r.inserted, l.ID)

	if r.insertConflicts > 0 {
		r.insertConflicts--
		r.mu.Unlock()

		return link.ErrConflict
	}
	r.mu.Unlock()

	return r.MemoryStore.Insert(ctx, l)
}

func (r *recordingRepo) Overwrite(ctx context.Context, id link.ID, destination string) error {
	if r.overwriteErr != nil {
		return r.overwriteErr
	}

	if err := r.MemoryStore.Overwrite(ctx, id, destination); err != nil {
		return err
	}

	persisted, err := r.MemoryStore.Get(ctx, id)
	if err == nil {
		r.mu.Lock()
		r.overwritten = append(r.overwritten, persisted.Destination)
		r.mu.Unlock()
	}

	return nil
}

func (r *recordingRepo) Delete(ctx context.Context, id link.ID) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, id)
	r.mu.Unlock()

	return r.MemoryStore.Delete(ctx, id)
}

type erasedEvent struct {
	id     link.ID
	reason link.ErasureReason
}

type recordingObserver struct {
	mu       sync.Mutex
	created  []link.ID
	consumed []link.ID
	erased   []erasedEvent
	err      error
}

func (o *recordingObserver) LinkCreated(_ context.Context, l *link.Link) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.created = append(o.created, l.ID)

	return o.err
}

func (o *recordingObserver) LinkConsumed(_ context.Context, l *link.Link) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.consumed = append(o.consumed, l.ID)

	return o.err
}

func (o *recordingObserver) LinkErased(_ context.Context, id link.ID, reason link.ErasureReason) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.erased = append(o.erased, erasedEvent{id: id, reason: reason})

	return o.err
}

type failingCache struct {
	err error
}

func (c failingCache) Get(context.Context, link.ID) (string, error) { return "", c.err }

func (c failingCache) Set(context.Context, link.ID, string, time.Duration) error { return c.err }

func (c failingCache) Delete(context.Context, link.ID) error { return c.err }

func newService(
	t *testing.T,
	repo link.Repository,
	cache link.Cache,
	clock *fakeClock,
	opts ...link.Option,
) *link.Service {
	t.Helper()

	eraser, err := link.NewEraser(repo)
	require.NoError(t, err)

	opts = append([]link.Option{link.WithClock(clock.Now)}, opts...)

	return link.NewService(repo, cache, link.NewGenerator(repo, nil, 0), eraser, zap.NewNop(), opts...)
}
