// Package middleware holds the HTTP middleware shared by the web and JSON adapters.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/observability"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	RequestIDHeader     = "X-Request-ID"
)

type requestIDsKey struct{}

// requestIDs ties log lines and spans of one request together. The
// correlation ID is kept from the caller when it sends one.
type requestIDs struct {
	correlation string
	request     string
}

func idsFrom(ctx context.Context) requestIDs {
	ids, _ := ctx.Value(requestIDsKey{}).(requestIDs)
	return ids
}

// GetCorrelationID returns the correlation ID assigned by TracingMiddleware.
func GetCorrelationID(ctx context.Context) string {
	return idsFrom(ctx).correlation
}

// GetRequestID returns the request ID assigned by TracingMiddleware.
func GetRequestID(ctx context.Context) string {
	return idsFrom(ctx).request
}

// ObservabilityMiddleware traces, measures and logs every request.
type ObservabilityMiddleware struct {
	telemetry *observability.Telemetry
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewObservabilityMiddleware creates the middleware set. With a nil telemetry
// spans go to the global tracer and no metrics are recorded.
func NewObservabilityMiddleware(telemetry *observability.Telemetry, logger *zap.Logger) *ObservabilityMiddleware {
	m := &ObservabilityMiddleware{
		telemetry: telemetry,
		tracer:    otel.Tracer("http"),
		logger:    logger,
	}

	if telemetry != nil {
		m.tracer = telemetry.Tracer
	}

	return m
}

// TracingMiddleware continues the caller's trace, assigns request IDs and
// echoes them as response headers.
func (m *ObservabilityMiddleware) TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeName(r)
		parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := m.tracer.Start(parent, r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ids := requestIDs{
			correlation: r.Header.Get(CorrelationIDHeader),
			request:     uuid.NewString(),
		}

		if ids.correlation == "" {
			ids.correlation = uuid.NewString()
		}

		span.SetAttributes(
			semconv.HTTPMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
			attribute.String("http.client_ip", GetClientIP(r)),
			attribute.String("correlation_id", ids.correlation),
			attribute.String("request_id", ids.request),
		)

		w.Header().Set(CorrelationIDHeader, ids.correlation)
		w.Header().Set(RequestIDHeader, ids.request)

		rec := record(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(ctx, requestIDsKey{}, ids)))

		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(rec.status))

		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

// MetricsMiddleware records request count and duration by route template.
func (m *ObservabilityMiddleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := record(w)
		next.ServeHTTP(rec, r)

		m.telemetry.RecordRequest(r.Context(), r.Method, routeName(r), rec.status, rec.elapsed())
	})
}

// LoggingMiddleware writes one line per request. Server errors log at Warn.
func (m *ObservabilityMiddleware) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := record(w)
		next.ServeHTTP(rec, r)

		ids := idsFrom(r.Context())
		log := m.logger.Info

		if rec.status >= http.StatusInternalServerError {
			log = m.logger.Warn
		}

		log("request completed",
			zap.String("correlation_id", ids.correlation),
			zap.String("request_id", ids.request),
			zap.String("method", r.Method),
			zap.String("route", routeName(r)),
			zap.String("client_ip", GetClientIP(r)),
			zap.Int("status_code", rec.status),
			zap.Int64("bytes_written", rec.written),
			zap.Duration("duration", rec.elapsed()))
	})
}

// routeName prefers the mux path template so metrics stay low-cardinality.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}

	return r.URL.Path
}

// statusRecorder captures what a handler wrote.
type statusRecorder struct {
	http.ResponseWriter

	status  int
	written int64
	started time.Time
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK, started: time.Now()}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.written += int64(n)

	return n, err
}

func (s *statusRecorder) elapsed() time.Duration {
	return time.Since(s.started)
}
