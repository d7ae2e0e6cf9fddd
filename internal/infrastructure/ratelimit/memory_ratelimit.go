package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

// MemoryRateLimiter keeps one token bucket per client and limit.
// A bucket refills at limit tokens per window and holds at most limit tokens.
// Buckets idle for two windows are evicted.
type MemoryRateLimiter struct {
	buckets *cache.Cache
	logger  *zap.Logger
}

// NewMemoryRateLimiter creates a new in-memory rate limiter.
//
// Parameters:
//   - cleanupInterval: How often idle buckets are swept
//   - logger: Zap logger for rate limiter operations
//
// Returns:
//   - ports.RateLimitService: In-memory rate limiter implementation
func NewMemoryRateLimiter(cleanupInterval time.Duration, logger *zap.Logger) ports.RateLimitService {
	return &MemoryRateLimiter{
		buckets: cache.New(cache.NoExpiration, cleanupInterval),
		logger:  logger,
	}
}

// Allow takes one token from the client's bucket.
func (rl *MemoryRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if limit <= 0 || window <= 0 {
		return false, nil
	}

	key := bucketKey(identifier, limit, window)
	idle := 2 * window

	limiter, ok := rl.bucket(key)

	if !ok {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)

		// Add fails when another request created the bucket first.
		if err := rl.buckets.Add(key, limiter, idle); err != nil {
			limiter, _ = rl.bucket(key)
		}
	}

	// Refresh the idle deadline.
	rl.buckets.Set(key, limiter, idle)

	allowed := limiter.Allow()

	if !allowed {
		rl.logger.Debug("rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))
	}

	return allowed, nil
}

// Reset drops every bucket of identifier.
func (rl *MemoryRateLimiter) Reset(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := identifier + "|"

	for key := range rl.buckets.Items() {
		if strings.HasPrefix(key, prefix) {
			rl.buckets.Delete(key)
		}
	}

	return nil
}

func (rl *MemoryRateLimiter) bucket(key string) (*rate.Limiter, bool) {
	value, ok := rl.buckets.Get(key)

	if !ok {
		return nil, false
	}

	limiter, ok := value.(*rate.Limiter)

	return limiter, ok
}

func bucketKey(identifier string, limit int, window time.Duration) string {
	return fmt.Sprintf("%s|%d|%s", identifier, limit, window)
}
