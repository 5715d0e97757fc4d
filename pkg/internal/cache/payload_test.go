package cache

import (
	"context"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/testutil"
	redisStore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCache(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemoryStore()
	pc := NewPayloadCache(mem)

	t.Run("miss on absent key", func(t *testing.T) {
		_, err := pc.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("returns stored bytes", func(t *testing.T) {
		require.NoError(t, pc.Set(ctx, "key", []byte{0x78, 0x9c, 0x01}, time.Hour))

		got, err := pc.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x78, 0x9c, 0x01}, got)
		assert.InDelta(t, time.Hour.Seconds(), mem.TTL("key").Seconds(), 5)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		require.NoError(t, pc.Set(ctx, "gone", []byte("x"), time.Hour))
		require.NoError(t, pc.Delete(ctx, "gone"))

		_, err := pc.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		require.NoError(t, pc.Set(ctx, "short", []byte("x"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := pc.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrMiss)
	})
}

func TestPayloadCacheWithRedis(t *testing.T) {
	addr := testutil.NewTestRedisAddr(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	pc := NewPayloadCache(redisStore.NewRedis(client))

	_, err := pc.Get(ctx, "message_dict:1:1")
	assert.ErrorIs(t, err, ErrMiss)

	payload := []byte{0x78, 0x9c, 0xff, 0x00, 0x10}
	require.NoError(t, pc.Set(ctx, "message_dict:1:1", payload, 24*time.Hour))

	got, err := pc.Get(ctx, "message_dict:1:1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	ttl, err := client.TTL(ctx, "message_dict:1:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 23*time.Hour)
}
