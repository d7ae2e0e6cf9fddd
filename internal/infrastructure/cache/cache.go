// Package cache stores resolved coordinates by normalized place name. The
// memory store serves a single instance; the Redis store is shared by all of
// them. Both trace every operation.
package cache

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrCacheMiss indicates a cache key was not found or has expired.
var ErrCacheMiss = errors.New("cache miss")

// HitRecorder counts cache lookups, typically into metrics.
type HitRecorder interface {
	RecordCacheHit(ctx context.Context, key string)
	RecordCacheMiss(ctx context.Context, key string)
}

type noopRecorder struct{}

func (noopRecorder) RecordCacheHit(context.Context, string) {}
func (noopRecorder) RecordCacheMiss(context.Context, string) {}

func recorderOrNoop(r HitRecorder) HitRecorder {
	if r == nil {
		return noopRecorder{}
	}

	return r
}

// startSpan opens the span for one cache operation, e.g. "MemoryCache.Get".
func startSpan(ctx context.Context, backend, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("cache").Start(ctx, backend+"."+op,
		trace.WithAttributes(append(attrs, attribute.String("cache.backend", backend))...))
}

// lookupResult finishes a Get span and feeds the recorder.
func lookupResult(ctx context.Context, span trace.Span, recorder HitRecorder, key string, hit bool) {
	span.SetAttributes(attribute.Bool("cache.hit", hit))

	if hit {
		recorder.RecordCacheHit(ctx, key)
	} else {
		recorder.RecordCacheMiss(ctx, key)
	}
}
