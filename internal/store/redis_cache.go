package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/fuselink/internal/link"
)

// RedisCache is a Redis implementation of link.Cache. Destinations are plain
// string keys that expire on their own.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a new Redis-backed destination cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "link:",
	}
}

func (r *RedisCache) Get(ctx context.Context, id link.ID) (string, error) {
	destination, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", link.ErrCacheMiss
		}

		return "", err
	}

	return destination, nil
}

func (r *RedisCache) Set(ctx context.Context, id link.ID, destination string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, r.key(id), destination, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, id link.ID) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisCache) key(id link.ID) string {
	return r.prefix + string(id)
}

// Compile-time check.
var _ link.Cache = (*RedisCache)(nil)
