// Package openmeteo implements clients for the Open-Meteo geocoding and forecast APIs.
// This package serves as a secondary adapter, translating domain requests
// into Open-Meteo calls and converting responses back to domain objects.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/version"
)

const (
	// DefaultGeocodingBaseURL is the public Open-Meteo geocoding endpoint
	DefaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com"

	// DefaultForecastBaseURL is the public Open-Meteo forecast endpoint
	DefaultForecastBaseURL = "https://api.open-meteo.com"

	// DefaultTimeout bounds each provider call when the context has no deadline
	DefaultTimeout = 10 * time.Second
)

// RequestObserver is told about every provider request once it has completed.
type RequestObserver interface {
	ProviderRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
}

// Client talks to both Open-Meteo APIs.
// It implements ports.GeocodingClient and ports.WeatherClient.
type Client struct {
	// geocodingBaseURL is the geocoding API base endpoint
	geocodingBaseURL string

	// forecastBaseURL is the forecast API base endpoint
	forecastBaseURL string

	// pipeline selects the forecast length and variables
	pipeline domain.PipelineConfig

	// httpClient performs the requests
	httpClient *http.Client

	// timeout bounds a request whose context carries no deadline
	timeout time.Duration

	// observer records request metrics, may be nil
	observer RequestObserver

	// logger records API interactions and errors
	logger *zap.Logger
}

// Config holds the settings for a Client.
type Config struct {
	GeocodingBaseURL string
	ForecastBaseURL  string
	Pipeline         domain.PipelineConfig
	Timeout          time.Duration
	Observer         RequestObserver
}

// NewClient creates a new Open-Meteo client.
//
// Parameters:
//   - cfg: Base URLs, forecast pipeline and timeout; empty fields use defaults
//   - httpClient: HTTP client used for every request
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *Client: Configured Open-Meteo client
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.GeocodingBaseURL == "" {
		cfg.GeocodingBaseURL = DefaultGeocodingBaseURL
	}

	if cfg.ForecastBaseURL == "" {
		cfg.ForecastBaseURL = DefaultForecastBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		geocodingBaseURL: cfg.GeocodingBaseURL,
		forecastBaseURL:  cfg.ForecastBaseURL,
		pipeline:         cfg.Pipeline.Normalize(),
		httpClient:       httpClient,
		timeout:          cfg.Timeout,
		observer:         cfg.Observer,
		logger:           logger,
	}
}

// getJSON performs a GET request and decodes the JSON body into out.
//
// Parameters:
//   - ctx: Context for cancellation (a timeout is added if it has no deadline)
//   - endpoint: Name of the endpoint for tracing and metrics
//   - rawURL: Base URL plus path
//   - query: Query parameters
//   - out: Destination for the decoded body
//
// Returns:
//   - error: TransportError on network failure, non-2xx status or unparseable body
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, query url.Values, out interface{}) error {
	tracer := otel.Tracer("openmeteo")
	ctx, span := tracer.Start(ctx, "OpenMeteo."+endpoint)

	defer span.End()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u, err := url.Parse(rawURL)

	if err != nil {
		return domain.NewTransportError("invalid provider url", err)
	}

	u.RawQuery = query.Encode()
	span.SetAttributes(attribute.String("http.url", u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)

	if err != nil {
		return domain.NewTransportError("failed to create request", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	if err != nil {
		span.RecordError(err)
		c.observe(ctx, endpoint, 0, start)

		if domain.IsTimeout(err) {
			return domain.NewTransportError("request timed out", err)
		}

		return domain.NewTransportError("request failed", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	c.observe(ctx, endpoint, resp.StatusCode, start)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("open-meteo returned non-success status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))

		return domain.NewTransportError(fmt.Sprintf("open-meteo returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return domain.NewTransportError("failed to decode response", err)
	}

	return nil
}

func (c *Client) observe(ctx context.Context, endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ProviderRequest(ctx, endpoint, status, time.Since(start))
	}
}
