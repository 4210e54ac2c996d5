package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiterFromClient(client)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, mr
}

func TestAllow_FixedWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := limiter.Allow(ctx, "client-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, err := limiter.Allow(ctx, "client-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, err = limiter.Allow(ctx, "client-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "keys are counted independently")

	mr.FastForward(time.Minute + time.Second)

	allowed, _, err = limiter.Allow(ctx, "client-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "window expired")
}

func TestAllow_DisabledLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	allowed, _, err := limiter.Allow(context.Background(), "client-1", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_RedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	mr.Close()

	_, _, err := limiter.Allow(context.Background(), "client-1", 3, time.Minute)
	assert.Error(t, err)
	assert.Error(t, limiter.Health(context.Background()))
}

func TestHealth(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	assert.NoError(t, limiter.Health(context.Background()))
}
