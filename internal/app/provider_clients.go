package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/circuitbreaker"
)

// providerGuard throttles and breaks calls to one provider endpoint.
type providerGuard struct {
	limiter *rate.Limiter
	breaker *circuitbreaker.Breaker
}

// ResilienceConfig shapes the guards put in front of every provider endpoint.
type ResilienceConfig struct {
	// RPS and Burst bound outbound calls; RPS <= 0 disables throttling
	RPS   float64
	Burst int

	BreakerTimeout     time.Duration
	BreakerMaxRequests uint32
}

func newProviderGuard(manager *circuitbreaker.Manager, name string, cfg ResilienceConfig) providerGuard {
	var limiter *rate.Limiter

	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}

		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return providerGuard{
		limiter: limiter,
		breaker: manager.GetBreaker(name, circuitbreaker.Config{
			MaxRequests:  cfg.BreakerMaxRequests,
			Interval:     time.Minute,
			Timeout:      cfg.BreakerTimeout,
			IsSuccessful: countsAsSuccess,
		}),
	}
}

// call waits for an outbound slot, then runs fn through the breaker.
// Rejections and aborted waits surface as TransportError.
func (g providerGuard) call(ctx context.Context, operation string, fn func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return domain.NewTransportError("outbound request slot not available", err)
		}
	}

	err := g.breaker.Execute(ctx, operation, fn)

	if circuitbreaker.IsRejected(err) {
		return domain.NewTransportError("weather provider temporarily unavailable", err)
	}

	return err
}

// countsAsSuccess keeps answers that reflect the caller, not provider health,
// from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, context.Canceled)
}

// ResilientGeocodingClient guards a GeocodingClient.
type ResilientGeocodingClient struct {
	client ports.GeocodingClient
	guard  providerGuard
}

// NewResilientGeocodingClient wraps client with a rate limiter and a breaker named "geocoding".
func NewResilientGeocodingClient(client ports.GeocodingClient, manager *circuitbreaker.Manager, cfg ResilienceConfig) *ResilientGeocodingClient {
	return &ResilientGeocodingClient{
		client: client,
		guard:  newProviderGuard(manager, "geocoding", cfg),
	}
}

// Search implements ports.GeocodingClient.
func (c *ResilientGeocodingClient) Search(ctx context.Context, placeName string) (domain.Coordinates, error) {
	var coords domain.Coordinates

	err := c.guard.call(ctx, "search", func() error {
		var err error
		coords, err = c.client.Search(ctx, placeName)

		return err
	})

	return coords, err
}

// ResilientWeatherClient guards both forecast calls.
// Current conditions and daily forecast have separate breakers.
type ResilientWeatherClient struct {
	client   ports.WeatherClient
	current  providerGuard
	forecast providerGuard
}

// NewResilientWeatherClient wraps client with per-endpoint rate limiters and breakers.
func NewResilientWeatherClient(client ports.WeatherClient, manager *circuitbreaker.Manager, cfg ResilienceConfig) *ResilientWeatherClient {
	return &ResilientWeatherClient{
		client:   client,
		current:  newProviderGuard(manager, "forecast-current", cfg),
		forecast: newProviderGuard(manager, "forecast-daily", cfg),
	}
}

// GetCurrentConditions implements ports.WeatherClient.
func (c *ResilientWeatherClient) GetCurrentConditions(ctx context.Context, coords domain.Coordinates) (*domain.CurrentConditions, error) {
	var current *domain.CurrentConditions

	err := c.current.call(ctx, "current", func() error {
		var err error
		current, err = c.client.GetCurrentConditions(ctx, coords)

		return err
	})

	return current, err
}

// GetForecast implements ports.WeatherClient.
func (c *ResilientWeatherClient) GetForecast(ctx context.Context, coords domain.Coordinates) ([]domain.ForecastDay, error) {
	var forecast []domain.ForecastDay

	err := c.forecast.call(ctx, "forecast", func() error {
		var err error
		forecast, err = c.client.GetForecast(ctx, coords)

		return err
	})

	return forecast, err
}
