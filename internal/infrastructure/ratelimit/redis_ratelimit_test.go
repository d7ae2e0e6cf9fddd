package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestRedisRateLimiter needs a disposable Redis; set TEST_REDIS_ADDR to run it.
func TestRedisRateLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("cannot reach redis at %s: %v", addr, err)
	}

	limiter := NewRedisRateLimiter(client, "weather-lookup-test:ratelimit:", zap.NewNop())
	id := "client-" + time.Now().Format("150405.000000")

	t.Cleanup(func() { _ = limiter.Reset(ctx, id) })

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, id, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, id, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, id))

	allowed, err = limiter.Allow(ctx, id, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
