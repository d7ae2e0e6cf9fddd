package ports

import (
	"context"
	"time"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

// GeoResolver resolves a free-text place name to coordinates.
type GeoResolver interface {
	Resolve(ctx context.Context, placeName string) (domain.Coordinates, error)
}

// GeocodingClient is the provider-facing search behind a GeoResolver.
// It is called with an already validated, trimmed place name.
type GeocodingClient interface {
	Search(ctx context.Context, placeName string) (domain.Coordinates, error)
}

// WeatherClient issues the two weather requests for a coordinate pair.
type WeatherClient interface {
	GetCurrentConditions(ctx context.Context, coords domain.Coordinates) (*domain.CurrentConditions, error)
	GetForecast(ctx context.Context, coords domain.Coordinates) ([]domain.ForecastDay, error)
}

// LocationProvider is a single-shot device geolocation request.
// It yields coordinates, or a PermissionDenied / LocationUnavailable error.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (domain.Coordinates, error)
}

// ViewSink receives every view the orchestrator renders, in transition order.
type ViewSink interface {
	Show(ctx context.Context, view domain.RenderedView)
}

// LookupObserver is told about every lookup cycle once it has finished.
type LookupObserver interface {
	LookupCompleted(ctx context.Context, record domain.LookupRecord)
}

// CacheService stores opaque values with a time-to-live.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// RateLimitService decides whether a client may issue another request.
type RateLimitService interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, identifier string) error
}

// AuditRepository persists lookup records and summarizes them.
type AuditRepository interface {
	LogLookup(ctx context.Context, record domain.LookupRecord) error
	GetLookupStats(ctx context.Context, since time.Time) (map[string]interface{}, error)
}
