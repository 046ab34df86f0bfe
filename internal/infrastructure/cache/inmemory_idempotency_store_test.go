package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/posledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("reserves a new key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		processed, err := store.IsProcessed(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("rejects a key already reserved", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("accepts a key again after it expires", func(t *testing.T) {
		now := time.Now()
		store.now = func() time.Time { return now }

		isNew, err := store.MarkProcessed(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		store.now = func() time.Time { return now.Add(2 * time.Minute) }
		processed, err := store.IsProcessed(ctx, "key-3")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err = store.MarkProcessed(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
		store.now = time.Now
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "checkout", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "checkout"))

	isNew, err := store.MarkProcessed(ctx, "checkout", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "a released key can be reserved again")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Size())

	store.now = func() time.Time { return now.Add(time.Minute) }
	store.sweep()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore_FallsBackWithoutRedis(t *testing.T) {
	cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	store, err := NewIdempotencyStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)

	_, err = NewIdempotencyStore(context.Background(), cfg, WithInMemoryFallback(false))
	assert.Error(t, err)
}

func TestRequestKey(t *testing.T) {
	assert.Equal(t, "t:u:POST /sales:abc", RequestKey("t", "u", "POST /sales", "abc"))
}
