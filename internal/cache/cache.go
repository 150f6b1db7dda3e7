// Package cache provides a small compute-on-miss cache used by read
// paths that tolerate slightly stale data, such as the movie popularity
// ranking.  The cache is injected explicitly rather than living as
// package-level state so handlers can swap the backend or disable
// caching entirely in tests.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Cache stores opaque byte values under string keys with a per-entry
// TTL.  GetOrCompute returns the cached value when present and fresh,
// and otherwise invokes compute, stores the result and returns it.
// Implementations must be safe for concurrent use.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error)
	Invalidate(ctx context.Context, key string) error
}

// RedisCache backs the Cache interface with Redis so cached values are
// shared across server processes.  A Redis failure on read falls back
// to computing the value; a failure on write is ignored, since the
// cache is advisory.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache returns a RedisCache namespaced under the given prefix.
func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(k string) string { return c.prefix + ":" + k }

// GetOrCompute implements Cache.
func (c *RedisCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if bs, err := c.rdb.Get(ctx, c.key(key)).Bytes(); err == nil {
		return bs, nil
	}
	val, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.rdb.SetEx(ctx, c.key(key), val, ttl).Err()
	return val, nil
}

// Invalidate implements Cache.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}

// MemoryCache is an in-process Cache for tests and for deployments
// without Redis.  Entries expire lazily on read.  The clock is a field
// so tests can advance time deterministically.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	Now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache returns an empty MemoryCache using the wall clock.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), Now: time.Now}
}

// GetOrCompute implements Cache.
func (c *MemoryCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.Now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()
	val, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: val, expiresAt: c.Now().Add(ttl)}
	c.mu.Unlock()
	return val, nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
