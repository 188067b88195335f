package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newLink(id link.ID, p policy.Policy) *link.Link {
	return &link.Link{
		ID:          id,
		Destination: "https://example.com/" + string(id),
		CreatedAt:   created,
		Policy:      p,
	}
}

// testRepository runs the behaviour every link.Repository must share.
// Each call to newRepo must return an empty store.
func testRepository(t *testing.T, newRepo func(t *testing.T) link.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		repo := newRepo(t)
		p := policy.Kombinatio(policy.ClickFuse(3), policy.TimeBomb(created.Add(time.Hour)))

		require.NoError(t, repo.Insert(ctx, newLink("🔥🚀🌈", p)))

		got, err := repo.Get(ctx, "🔥🚀🌈")
		require.NoError(t, err)
		assert.Equal(t, link.ID("🔥🚀🌈"), got.ID)
		assert.Equal(t, "https://example.com/🔥🚀🌈", got.Destination)
		assert.True(t, created.Equal(got.CreatedAt))
		assert.Equal(t, int64(0), got.ClickCount)
		assert.Equal(t, p, got.Policy)
	})

	t.Run("insert of a taken id is a conflict", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.Permanent())))

		err := repo.Insert(ctx, newLink("😀😀😀", policy.ClickFuse(1)))

		assert.ErrorIs(t, err, link.ErrConflict)

		got, err := repo.Get(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.Equal(t, policy.Permanent(), got.Policy)
	})

	t.Run("exists", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.Permanent())))

		ok, err := repo.Exists(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, "🙈🙉🙊")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("get of a missing id is not found", func(t *testing.T) {
		_, err := newRepo(t).Get(ctx, "🙈🙉🙊")

		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("update persists when the mutation asks for it", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.ClickFuse(2))))

		got, err := repo.Update(ctx, "😀😀😀", func(l *link.Link) bool {
			l.Policy = policy.ClickFuse(1)
			l.ClickCount++

			return true
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Policy.Remaining)

		stored, err := repo.Get(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.Equal(t, policy.ClickFuse(1), stored.Policy)
		assert.Equal(t, int64(1), stored.ClickCount)
	})

	t.Run("update discards a mutation that is not persisted", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.ClickFuse(2))))

		_, err := repo.Update(ctx, "😀😀😀", func(l *link.Link) bool {
			l.Policy = policy.ClickFuse(0)

			return false
		})
		require.NoError(t, err)

		stored, err := repo.Get(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.Equal(t, policy.ClickFuse(2), stored.Policy)
	})

	t.Run("update of a missing id is not found", func(t *testing.T) {
		_, err := newRepo(t).Update(ctx, "🙈🙉🙊", func(*link.Link) bool { return true })

		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		const workers = 20

		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.ClickFuse(workers))))

		var wg sync.WaitGroup

		for range workers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := repo.Update(ctx, "😀😀😀", func(l *link.Link) bool {
					l.Policy.Remaining--
					l.ClickCount++

					return true
				})
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		stored, err := repo.Get(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.Equal(t, int64(0), stored.Policy.Remaining)
		assert.Equal(t, int64(workers), stored.ClickCount)
	})

	t.Run("overwrite then delete leaves nothing behind", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.Permanent())))

		require.NoError(t, repo.Overwrite(ctx, "😀😀😀", "noise"))

		got, err := repo.Get(ctx, "😀😀😀")
		require.NoError(t, err)
		assert.Equal(t, "noise", got.Destination)

		require.NoError(t, repo.Delete(ctx, "😀😀😀"))

		_, err = repo.Get(ctx, "😀😀😀")
		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("overwrite and delete of a missing id succeed", func(t *testing.T) {
		repo := newRepo(t)

		assert.NoError(t, repo.Overwrite(ctx, "🙈🙉🙊", "noise"))
		assert.NoError(t, repo.Delete(ctx, "🙈🙉🙊"))
	})

	t.Run("expired before", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("😀😀😀", policy.TimeBomb(created.Add(time.Minute)))))
		require.NoError(t, repo.Insert(ctx, newLink("😁😁😁", policy.Kombinatio(
			policy.ClickFuse(5),
			policy.TimeBomb(created.Add(2*time.Minute)),
		))))
		require.NoError(t, repo.Insert(ctx, newLink("😂😂😂", policy.TimeBomb(created.Add(time.Hour)))))
		require.NoError(t, repo.Insert(ctx, newLink("🤖🤖🤖", policy.ClickFuse(1))))

		ids, err := repo.ExpiredBefore(ctx, created.Add(2*time.Minute), 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []link.ID{"😀😀😀", "😁😁😁"}, ids)

		ids, err = repo.ExpiredBefore(ctx, created.Add(2*time.Minute), 1)
		require.NoError(t, err)
		assert.Len(t, ids, 1)

		ids, err = repo.ExpiredBefore(ctx, created, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("far future deadlines are not expired", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		deadline := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, repo.Insert(ctx, newLink("🚀🚀🚀", policy.TimeBomb(deadline))))

		ids, err := repo.ExpiredBefore(ctx, created, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = repo.ExpiredBefore(ctx, deadline, 10)
		require.NoError(t, err)
		assert.Equal(t, []link.ID{"🚀🚀🚀"}, ids)

		got, err := repo.Get(ctx, "🚀🚀🚀")
		require.NoError(t, err)
		assert.True(t, deadline.Equal(got.Policy.Deadline))
	})
}
