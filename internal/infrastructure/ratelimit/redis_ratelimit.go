// Package ratelimit limits how often a client may call the lookup endpoints.
// The Redis limiter shares its sliding window across instances; the memory
// limiter keeps a token bucket per client in process.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

const defaultKeyPrefix = "weather-lookup:ratelimit:"

// slidingWindow trims entries older than the window, then admits the call
// when fewer than limit remain. Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window)
    return 1
end

return 0
`)

// RedisRateLimiter keeps one sorted set of request timestamps per client.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisRateLimiter creates a limiter on a shared client. An empty
// keyPrefix uses "weather-lookup:ratelimit:".
func NewRedisRateLimiter(client *redis.Client, keyPrefix string, logger *zap.Logger) ports.RateLimitService {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &RedisRateLimiter{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Allow admits the call when identifier made fewer than limit calls in the
// trailing window. Script failures are returned and the call is refused.
func (r *RedisRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	ctx, span := otel.Tracer("ratelimit").Start(ctx, "RedisRateLimiter.Allow",
		trace.WithAttributes(
			attribute.String("ratelimit.client", identifier),
			attribute.Int("ratelimit.limit", limit),
			attribute.Int64("ratelimit.window_ms", window.Milliseconds())))
	defer span.End()

	now := time.Now().UnixMilli()
	// members must be unique or calls in the same millisecond collapse
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	admitted, err := slidingWindow.Run(ctx, r.client, []string{r.keyPrefix + identifier},
		limit, window.Milliseconds(), now, member).Bool()
	if err != nil {
		span.RecordError(err)
		r.logger.Error("sliding window script failed", zap.String("client", identifier), zap.Error(err))

		return false, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.admitted", admitted))

	if !admitted {
		r.logger.Debug("client over limit", zap.String("client", identifier), zap.Int("limit", limit))
	}

	return admitted, nil
}

// Reset forgets the window of identifier.
func (r *RedisRateLimiter) Reset(ctx context.Context, identifier string) error {
	ctx, span := otel.Tracer("ratelimit").Start(ctx, "RedisRateLimiter.Reset",
		trace.WithAttributes(attribute.String("ratelimit.client", identifier)))
	defer span.End()

	err := r.client.Del(ctx, r.keyPrefix+identifier).Err()
	if err != nil {
		span.RecordError(err)
		r.logger.Error("sliding window reset failed", zap.String("client", identifier), zap.Error(err))
	}

	return err
}
