package reaper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/policy"
	"github.com/serroba/fuselink/internal/reaper"
	"github.com/serroba/fuselink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSweeper returns the queued results in order, then zero.
type mockSweeper struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
}

func (m *mockSweeper) Reap(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.err != nil {
		return 0, m.err
	}

	if len(m.results) == 0 {
		return 0, nil
	}

	n := m.results[0]
	m.results = m.results[1:]

	return n, nil
}

func (m *mockSweeper) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

func TestReaper_Sweep(t *testing.T) {
	t.Run("drains until a batch comes back empty", func(t *testing.T) {
		sweeper := &mockSweeper{results: []int{100, 100, 7}}
		r := reaper.New(sweeper, time.Hour, zap.NewNop())

		assert.Equal(t, 207, r.Sweep(context.Background()))
		assert.Equal(t, 4, sweeper.callCount())
	})

	t.Run("stops at the first error", func(t *testing.T) {
		sweeper := &mockSweeper{err: errors.New("db down")}
		r := reaper.New(sweeper, time.Hour, zap.NewNop())

		assert.Equal(t, 0, r.Sweep(context.Background()))
		assert.Equal(t, 1, sweeper.callCount())
	})

	t.Run("does nothing once the context is done", func(t *testing.T) {
		sweeper := &mockSweeper{results: []int{1}}
		r := reaper.New(sweeper, time.Hour, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, 0, r.Sweep(ctx))
		assert.Equal(t, 0, sweeper.callCount())
	})
}

func TestReaper_StartShutdown(t *testing.T) {
	t.Run("sweeps immediately and on every tick", func(t *testing.T) {
		sweeper := &mockSweeper{}
		r := reaper.New(sweeper, 10*time.Millisecond, zap.NewNop())

		require.NoError(t, r.Start(context.Background()))

		assert.Eventually(t, func() bool { return sweeper.callCount() >= 3 }, time.Second, 5*time.Millisecond)
		require.NoError(t, r.Shutdown())

		calls := sweeper.callCount()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, calls, sweeper.callCount())
	})

	t.Run("shutdown without start is a no-op", func(t *testing.T) {
		assert.NoError(t, reaper.New(&mockSweeper{}, 0, zap.NewNop()).Shutdown())
	})
}

func TestReaper_ErasesExpiredLinks(t *testing.T) {
	repo := store.NewMemoryStore()
	eraser, err := link.NewEraser(repo)
	require.NoError(t, err)

	svc := link.NewService(repo, link.NopCache{}, link.NewGenerator(repo, nil, 0), eraser, zap.NewNop(),
		link.WithReapBatch(2))

	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	for _, id := range []link.ID{"😀😀😀", "😁😁😁", "😂😂😂"} {
		require.NoError(t, repo.Insert(ctx, &link.Link{
			ID:          id,
			Destination: "https://example.com",
			CreatedAt:   past.Add(-time.Hour),
			Policy:      policy.TimeBomb(past),
		}))
	}

	require.NoError(t, repo.Insert(ctx, &link.Link{
		ID:          "🙂🙂🙂",
		Destination: "https://example.com",
		CreatedAt:   past,
		Policy:      policy.Permanent(),
	}))

	r := reaper.New(svc, time.Hour, zap.NewNop())

	assert.Equal(t, 3, r.Sweep(ctx))

	ok, err := repo.Exists(ctx, "😀😀😀")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Exists(ctx, "🙂🙂🙂")
	require.NoError(t, err)
	assert.True(t, ok)
}
