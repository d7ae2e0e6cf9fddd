// Package observability sets up OpenTelemetry tracing and metrics for the service
// and records the lookup, provider, cache, database and HTTP measurements.
// A nil *Telemetry is valid and records nothing.
package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

// Telemetry owns the providers and instruments.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	logger         *zap.Logger

	RequestCounter          metric.Int64Counter
	RequestDuration         metric.Float64Histogram
	ErrorCounter            metric.Int64Counter
	LookupCounter           metric.Int64Counter
	LookupDuration          metric.Float64Histogram
	ProviderRequestDuration metric.Float64Histogram
	DBQueryDuration         metric.Float64Histogram
	CacheHitCounter         metric.Int64Counter
	CacheMissCounter        metric.Int64Counter
}

// Config selects the exporter endpoint and resource attributes.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// InitTelemetry installs global tracer and meter providers.
// Traces go to the OTLP gRPC endpoint; metrics are exposed through the
// Prometheus default registry.
//
// Parameters:
//   - ctx: Context for exporter setup
//   - cfg: Service identity and exporter settings
//   - logger: Zap logger
//
// Returns:
//   - *Telemetry: Providers and instruments
//   - error: Resource, exporter or instrument creation error
func InitTelemetry(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	tracerProvider, meterProvider, err := newProviders(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Telemetry{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(cfg.ServiceName),
		Meter:          meterProvider.Meter(cfg.ServiceName),
		logger:         logger,
	}

	if err := t.initInstruments(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Telemetry) initInstruments() error {
	var err error

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&t.RequestCounter, "http_requests_total", "Total number of HTTP requests"},
		{&t.ErrorCounter, "errors_total", "Total number of errors"},
		{&t.LookupCounter, "lookups_total", "Total number of completed lookup cycles"},
		{&t.CacheHitCounter, "cache_hits_total", "Total number of cache hits"},
		{&t.CacheMissCounter, "cache_misses_total", "Total number of cache misses"},
	}

	for _, c := range counters {
		*c.target, err = t.Meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return fmt.Errorf("counter %s: %w", c.name, err)
		}
	}

	histograms := []struct {
		target *metric.Float64Histogram
		name   string
		desc   string
	}{
		{&t.RequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&t.LookupDuration, "lookup_duration_seconds", "Lookup cycle duration in seconds"},
		{&t.ProviderRequestDuration, "provider_request_duration_seconds", "Weather provider request duration in seconds"},
		{&t.DBQueryDuration, "db_query_duration_seconds", "Database query duration in seconds"},
	}

	for _, h := range histograms {
		*h.target, err = t.Meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return fmt.Errorf("histogram %s: %w", h.name, err)
		}
	}

	return nil
}

// newProviders builds a sampled OTLP/gRPC tracer provider and a meter
// provider read by the Prometheus exporter.
func newProviders(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, *sdkmetric.MeterProvider, error) {
	spans, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("otlp trace exporter: %w", err)
	}

	scrape, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(scrape),
		sdkmetric.WithResource(res),
	)

	return tp, mp, nil
}

// RecordRequest records one served HTTP request.
func (t *Telemetry) RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if t == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	)

	t.RequestCounter.Add(ctx, 1, attrs)
	t.RequestDuration.Record(ctx, duration.Seconds(), attrs)

	if statusCode >= 500 {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", "http")))
	}
}

// RecordLookup records one completed or superseded lookup cycle.
func (t *Telemetry) RecordLookup(ctx context.Context, record domain.LookupRecord) {
	if t == nil {
		return
	}

	outcome := record.Outcome.String()
	if record.Superseded {
		outcome = "superseded"
	}

	attrs := metric.WithAttributes(
		attribute.String("trigger", string(record.Trigger)),
		attribute.String("outcome", outcome),
		attribute.String("error_code", record.ErrorCode),
	)

	t.LookupCounter.Add(ctx, 1, attrs)
	t.LookupDuration.Record(ctx, record.Duration.Seconds(), attrs)
}

// ProviderRequest records one Open-Meteo call. Status 0 means no response.
func (t *Telemetry) ProviderRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if t == nil {
		return
	}

	t.ProviderRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", strconv.Itoa(statusCode)),
	))

	if statusCode == 0 || statusCode >= 400 {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "provider"),
			attribute.String("endpoint", endpoint),
		))
	}
}

// RecordDBQuery records one audit store statement.
func (t *Telemetry) RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	if t == nil {
		return
	}

	t.DBQueryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))

	if err != nil {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "database"),
			attribute.String("operation", operation),
		))
	}
}

// RecordCacheHit counts a coordinate cache hit. Keys are not used as
// attributes; place names are unbounded.
func (t *Telemetry) RecordCacheHit(ctx context.Context, _ string) {
	if t == nil {
		return
	}

	t.CacheHitCounter.Add(ctx, 1)
}

// RecordCacheMiss counts a coordinate cache miss.
func (t *Telemetry) RecordCacheMiss(ctx context.Context, _ string) {
	if t == nil {
		return
	}

	t.CacheMissCounter.Add(ctx, 1)
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	t.logger.Info("telemetry shut down")

	return nil
}
