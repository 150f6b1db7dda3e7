package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetOrCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("computes on miss and serves from cache after", func(t *testing.T) {
		c := NewMemoryCache()
		calls := 0
		compute := func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("ranking"), nil
		}

		got, err := c.GetOrCompute(ctx, "k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, []byte("ranking"), got)
		assert.Equal(t, 1, calls)

		got, err = c.GetOrCompute(ctx, "k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, []byte("ranking"), got)
		assert.Equal(t, 1, calls, "second read must hit the cache")
	})

	t.Run("recomputes after the ttl elapses", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		c.Now = func() time.Time { return now }

		calls := 0
		compute := func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("v"), nil
		}

		_, err := c.GetOrCompute(ctx, "k", 30*time.Second, compute)
		require.NoError(t, err)

		now = now.Add(29 * time.Second)
		_, err = c.GetOrCompute(ctx, "k", 30*time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)

		now = now.Add(2 * time.Second)
		_, err = c.GetOrCompute(ctx, "k", 30*time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("compute errors are not cached", func(t *testing.T) {
		c := NewMemoryCache()
		boom := errors.New("db down")
		calls := 0

		_, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
			calls++
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("ok"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), got)
		assert.Equal(t, 2, calls)
	})

	t.Run("invalidate forces recompute", func(t *testing.T) {
		c := NewMemoryCache()
		calls := 0
		compute := func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("v"), nil
		}

		_, err := c.GetOrCompute(ctx, "k", time.Minute, compute)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, "k"))
		_, err = c.GetOrCompute(ctx, "k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("keys are independent", func(t *testing.T) {
		c := NewMemoryCache()
		_, err := c.GetOrCompute(ctx, "a", time.Minute, func(ctx context.Context) ([]byte, error) {
			return []byte("va"), nil
		})
		require.NoError(t, err)
		got, err := c.GetOrCompute(ctx, "b", time.Minute, func(ctx context.Context) ([]byte, error) {
			return []byte("vb"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("vb"), got)
	})
}
