package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

const geoCacheKeyPrefix = "geo:"

// EmptyPlaceNameMessage is shown when a lookup is submitted without a place name.
const EmptyPlaceNameMessage = "Please enter a city name"

type geoResolver struct {
	client   ports.GeocodingClient
	cache    ports.CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewGeoResolver creates a resolver that validates place names before searching them.
// When cache is non-nil, resolved coordinates are kept for cacheTTL keyed by the
// normalized place name.
func NewGeoResolver(client ports.GeocodingClient, cache ports.CacheService, cacheTTL time.Duration, logger *zap.Logger) ports.GeoResolver {
	return &geoResolver{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (r *geoResolver) Resolve(ctx context.Context, placeName string) (domain.Coordinates, error) {
	name := strings.TrimSpace(placeName)

	if name == "" {
		return domain.Coordinates{}, domain.NewValidationError(EmptyPlaceNameMessage)
	}

	key := geoCacheKey(name)

	if coords, ok := r.cached(ctx, key); ok {
		r.logger.Debug("coordinates served from cache", zap.String("place", name))
		return coords, nil
	}

	coords, err := r.client.Search(ctx, name)

	if err != nil {
		r.logger.Warn("failed to resolve place name",
			zap.String("place", name),
			zap.Error(err))

		return domain.Coordinates{}, err
	}

	if err := coords.Validate(); err != nil {
		return domain.Coordinates{}, domain.NewMalformedResponseError("geocoding returned invalid coordinates", err)
	}

	r.store(ctx, key, coords)

	r.logger.Info("place name resolved",
		zap.String("place", name),
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude))

	return coords, nil
}

func (r *geoResolver) cached(ctx context.Context, key string) (domain.Coordinates, bool) {
	if r.cache == nil {
		return domain.Coordinates{}, false
	}

	data, err := r.cache.Get(ctx, key)

	if err != nil {
		return domain.Coordinates{}, false
	}

	var coords domain.Coordinates

	if err := json.Unmarshal(data, &coords); err != nil {
		r.logger.Warn("discarding unreadable cached coordinates", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)

		return domain.Coordinates{}, false
	}

	return coords, true
}

func (r *geoResolver) store(ctx context.Context, key string, coords domain.Coordinates) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(coords)

	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache coordinates", zap.String("key", key), zap.Error(err))
	}
}

// geoCacheKey lower-cases the name and collapses inner whitespace so that
// "New  York" and "new york" share one entry.
func geoCacheKey(name string) string {
	return geoCacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(name), " "))
}
