package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/fuselink/internal/link"
)

type cacheEntry struct {
	destination string
	expiresAt   time.Time
}

// MemoryCache is an in-process link.Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[link.ID]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[link.ID]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id link.ID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return "", link.ErrCacheMiss
	}

	if !c.now().Before(e.expiresAt) {
		delete(c.entries, id)

		return "", link.ErrCacheMiss
	}

	return e.destination, nil
}

func (c *MemoryCache) Set(_ context.Context, id link.ID, destination string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = cacheEntry{destination: destination, expiresAt: c.now().Add(ttl)}

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, id link.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)

	return nil
}

// Compile-time check.
var _ link.Cache = (*MemoryCache)(nil)
