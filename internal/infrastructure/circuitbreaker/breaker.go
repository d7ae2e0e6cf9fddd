// Package circuitbreaker protects provider calls against cascading failures.
// It wraps Sony's GoBreaker library with tracing, structured logging and a
// manager that keeps one breaker per provider endpoint.
package circuitbreaker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Breaker wraps a gobreaker.CircuitBreaker with tracing and logging.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	name    string
}

// Config defines circuit breaker behavior and thresholds.
type Config struct {
	Name string

	// MaxRequests is the number of trial requests allowed while half-open
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open
	Timeout time.Duration

	// MinRequests and FailureRatio trip the breaker once both are reached.
	// Zero values default to 3 requests and a ratio of 0.5.
	MinRequests  uint32
	FailureRatio float64

	// IsSuccessful classifies an error as not counting towards tripping.
	// Nil counts every non-nil error as a failure.
	IsSuccessful func(err error) bool

	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// New creates a circuit breaker with the specified configuration.
//
// Parameters:
//   - cfg: Circuit breaker thresholds and callbacks
//   - logger: Zap logger for state changes
//
// Returns:
//   - *Breaker: Configured circuit breaker
func New(cfg Config, logger *zap.Logger) *Breaker {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	ratio := cfg.FailureRatio
	if ratio <= 0 {
		ratio = 0.5
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))

			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &Breaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

// Execute runs fn within the circuit breaker.
//
// Parameters:
//   - ctx: Context for tracing
//   - operation: Name of the operation for logging
//   - fn: Function to protect
//
// Returns:
//   - error: fn's error, or gobreaker.ErrOpenState / gobreaker.ErrTooManyRequests
func (b *Breaker) Execute(ctx context.Context, operation string, fn func() error) error {
	_, span := otel.Tracer("circuit-breaker").Start(ctx, "CircuitBreaker.Execute")

	defer span.End()

	span.SetAttributes(
		attribute.String("circuit_breaker.name", b.name),
		attribute.String("circuit_breaker.operation", operation),
		attribute.String("circuit_breaker.state", b.breaker.State().String()),
	)

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if IsRejected(err) {
		span.RecordError(err)

		b.logger.Warn("circuit breaker rejected call",
			zap.String("name", b.name),
			zap.String("operation", operation),
			zap.String("state", b.breaker.State().String()))
	}

	span.SetAttributes(
		attribute.String("circuit_breaker.final_state", b.breaker.State().String()),
		attribute.Bool("circuit_breaker.success", err == nil),
	)

	return err
}

// State returns the current circuit breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current circuit breaker statistics.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

// IsRejected reports whether err means the breaker refused to run the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Manager keeps one circuit breaker per name.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	logger   *zap.Logger
}

// NewManager creates a new circuit breaker manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

// GetBreaker retrieves or creates a circuit breaker by name.
// cfg is ignored when the breaker already exists.
func (m *Manager) GetBreaker(name string, cfg Config) *Breaker {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, exists = m.breakers[name]; exists {
		return breaker
	}

	cfg.Name = name
	breaker = New(cfg, m.logger)
	m.breakers[name] = breaker

	return breaker
}

// Stats is a snapshot of one breaker.
type Stats struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"total_successes"`
	TotalFailures        uint32 `json:"total_failures"`
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
	ConsecutiveFailures  uint32 `json:"consecutive_failures"`
}

// GetStats returns statistics for all managed circuit breakers, sorted by name.
func (m *Manager) GetStats() []Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]Stats, 0, len(m.breakers))

	for name, breaker := range m.breakers {
		counts := breaker.Counts()
		stats = append(stats, Stats{
			Name:                 name,
			State:                breaker.State().String(),
			Requests:             counts.Requests,
			TotalSuccesses:       counts.TotalSuccesses,
			TotalFailures:        counts.TotalFailures,
			ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
			ConsecutiveFailures:  counts.ConsecutiveFailures,
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	return stats
}
