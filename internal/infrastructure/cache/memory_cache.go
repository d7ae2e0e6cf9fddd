package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

const memoryBackend = "MemoryCache"

// MemoryCache keeps entries in process with go-cache.
type MemoryCache struct {
	entries  *gocache.Cache
	recorder HitRecorder
	logger   *zap.Logger
}

// NewMemoryCache creates an in-process cache.
//
// Parameters:
//   - defaultTTL: Lifetime of entries stored with a zero TTL
//   - cleanupInterval: How often expired entries are purged
//   - recorder: Hit/miss recorder, may be nil
//   - logger: Zap logger
//
// Returns:
//   - ports.CacheService: In-memory cache
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, recorder HitRecorder, logger *zap.Logger) ports.CacheService {
	return &MemoryCache{
		entries:  gocache.New(defaultTTL, cleanupInterval),
		recorder: recorderOrNoop(recorder),
		logger:   logger,
	}
}

// Get returns the entry under key or ErrCacheMiss.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := startSpan(ctx, memoryBackend, "Get", attribute.String("cache.key", key))
	defer span.End()

	value, found := m.entries.Get(key)
	data, ok := value.([]byte)

	lookupResult(ctx, span, m.recorder, key, found && ok)

	if !found || !ok {
		return nil, ErrCacheMiss
	}

	return data, nil
}

// Set stores a copy of value so later changes by the caller do not leak in.
// A zero ttl uses the cache default.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := startSpan(ctx, memoryBackend, "Set",
		attribute.String("cache.key", key),
		attribute.Int("cache.value_size", len(value)))
	defer span.End()

	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}

	m.entries.Set(key, append([]byte(nil), value...), ttl)

	return nil
}

// Delete removes key if present.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	_, span := startSpan(ctx, memoryBackend, "Delete", attribute.String("cache.key", key))
	defer span.End()

	m.entries.Delete(key)

	return nil
}

// Clear drops every entry.
func (m *MemoryCache) Clear(ctx context.Context) error {
	_, span := startSpan(ctx, memoryBackend, "Clear")
	defer span.End()

	span.SetAttributes(attribute.Int("cache.items", m.entries.ItemCount()))
	m.entries.Flush()

	m.logger.Info("memory cache cleared")

	return nil
}
