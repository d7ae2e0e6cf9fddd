package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

const (
	redisBackend = "RedisCache"

	// clearBatch is the SCAN page size used by Clear
	clearBatch = 100
)

// RedisCache stores entries in Redis under a key prefix, so Clear only
// touches this cache's keys even on a shared server.
type RedisCache struct {
	client   *redis.Client
	prefix   string
	recorder HitRecorder
	logger   *zap.Logger
}

// NewRedisCache creates a cache on an existing, shared client.
//
// Parameters:
//   - client: Connected Redis client
//   - prefix: Key namespace, e.g. "weather-lookup:cache:"
//   - recorder: Hit/miss recorder, may be nil
//   - logger: Zap logger
//
// Returns:
//   - ports.CacheService: Redis cache
func NewRedisCache(client *redis.Client, prefix string, recorder HitRecorder, logger *zap.Logger) ports.CacheService {
	return &RedisCache{
		client:   client,
		prefix:   prefix,
		recorder: recorderOrNoop(recorder),
		logger:   logger,
	}
}

// Get returns the entry under key, ErrCacheMiss, or the Redis error.
// Redis errors are neither hits nor misses.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := startSpan(ctx, redisBackend, "Get", attribute.String("cache.key", key))
	defer span.End()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
		lookupResult(ctx, span, r.recorder, key, false)
		return nil, ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		r.logger.Error("redis cache get failed", zap.String("key", key), zap.Error(err))

		return nil, err
	}

	lookupResult(ctx, span, r.recorder, key, true)

	return data, nil
}

// Set stores value under key for ttl. A zero ttl keeps the entry until deleted.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := startSpan(ctx, redisBackend, "Set",
		attribute.String("cache.key", key),
		attribute.Int("cache.value_size", len(value)),
		attribute.String("cache.ttl", ttl.String()))
	defer span.End()

	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		span.RecordError(err)
		r.logger.Error("redis cache set failed", zap.String("key", key), zap.Error(err))

		return err
	}

	return nil
}

// Delete removes key if present.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := startSpan(ctx, redisBackend, "Delete", attribute.String("cache.key", key))
	defer span.End()

	err := r.client.Del(ctx, r.prefix+key).Err()
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// Clear deletes every key under the prefix, one SCAN page at a time.
func (r *RedisCache) Clear(ctx context.Context) error {
	ctx, span := startSpan(ctx, redisBackend, "Clear")
	defer span.End()

	var (
		cursor  uint64
		removed int64
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", clearBatch).Result()
		if err != nil {
			span.RecordError(err)
			return err
		}

		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				span.RecordError(err)
				return err
			}

			removed += n
		}

		if cursor = next; cursor == 0 {
			break
		}
	}

	span.SetAttributes(attribute.Int64("cache.removed", removed))
	r.logger.Info("redis cache cleared", zap.String("prefix", r.prefix), zap.Int64("removed", removed))

	return nil
}
