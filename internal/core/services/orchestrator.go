package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

// ErrSuperseded is returned by a lookup whose result was dropped because a newer
// lookup started while it was in flight.
var ErrSuperseded = errors.New("lookup superseded by a newer lookup")

// Orchestrator drives one session's lookup state machine.
//
// Every trigger starts a new cycle with a larger sequence number and cancels the
// cycle before it. A cycle only applies a transition while its sequence number is
// still the latest, so a late response can never overwrite a newer result.
// State is guarded by mu, which is never held across provider calls.
type Orchestrator struct {
	resolver  ports.GeoResolver
	weather   ports.WeatherClient
	presenter *Presenter
	sink      ports.ViewSink
	observer  ports.LookupObserver
	logger    *zap.Logger

	mu       sync.Mutex
	sequence uint64
	cancel   context.CancelFunc
	state    domain.LookupState
	view     domain.RenderedView
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithViewSink publishes every rendered view to sink.
// The sink is called while the orchestrator's lock is held and must not call back into it.
func WithViewSink(sink ports.ViewSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithLookupObserver reports every finished cycle to observer.
func WithLookupObserver(observer ports.LookupObserver) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// NewOrchestrator creates an Orchestrator in the Idle state.
//
// Parameters:
//   - resolver: Resolves submitted place names
//   - weather: Fetches current conditions and forecasts
//   - logger: Zap logger for lookup cycles
//   - opts: Optional view sink and lookup observer
//
// Returns:
//   - *Orchestrator: Idle orchestrator
func NewOrchestrator(resolver ports.GeoResolver, weather ports.WeatherClient, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:  resolver,
		weather:   weather,
		presenter: NewPresenter(),
		logger:    logger,
		state:     domain.LookupState{Phase: domain.Idle},
	}

	for _, opt := range opts {
		opt(o)
	}

	o.view = o.presenter.RenderIdle()

	return o
}

// cycle carries one lookup from trigger to terminal state.
type cycle struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	record domain.LookupRecord
}

// Submit looks up the weather for a place name.
//
// Parameters:
//   - ctx: Context for cancellation of the whole cycle
//   - city: Free-text place name; surrounding whitespace is ignored
//
// Returns:
//   - domain.RenderedView: The view this cycle ended with (result or error)
//   - error: ErrSuperseded when a newer lookup replaced this one
func (o *Orchestrator) Submit(ctx context.Context, city string) (domain.RenderedView, error) {
	name := strings.TrimSpace(city)
	c := o.begin(ctx, domain.TriggerCity, name)

	defer c.cancel()

	if name == "" {
		return o.finish(c, nil, nil, domain.NewValidationError(EmptyPlaceNameMessage))
	}

	if !o.transition(c, domain.LookupState{Phase: domain.Loading}, o.presenter.RenderLoading()) {
		return o.finish(c, nil, nil, ErrSuperseded)
	}

	coords, err := o.resolver.Resolve(c.ctx, name)

	if err != nil {
		return o.finish(c, nil, nil, err)
	}

	return o.lookup(c, coords)
}

// UseLocation looks up the weather at the device's current location, skipping geocoding.
//
// Parameters:
//   - ctx: Context for cancellation of the whole cycle
//   - locator: Single-shot device geolocation
//
// Returns:
//   - domain.RenderedView: The view this cycle ended with (result or error)
//   - error: ErrSuperseded when a newer lookup replaced this one
func (o *Orchestrator) UseLocation(ctx context.Context, locator ports.LocationProvider) (domain.RenderedView, error) {
	c := o.begin(ctx, domain.TriggerLocation, "")

	defer c.cancel()

	if !o.transition(c, domain.LookupState{Phase: domain.Loading}, o.presenter.RenderLoading()) {
		return o.finish(c, nil, nil, ErrSuperseded)
	}

	coords, err := locator.CurrentLocation(c.ctx)

	if err != nil {
		return o.finish(c, nil, nil, err)
	}

	if err := coords.Validate(); err != nil {
		return o.finish(c, nil, nil, domain.NewValidationError("Invalid coordinates"))
	}

	return o.lookup(c, coords)
}

// State returns a copy of the current lookup state.
func (o *Orchestrator) State() domain.LookupState {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := o.state
	state.Forecast = append([]domain.ForecastDay(nil), o.state.Forecast...)

	return state
}

// View returns the view rendered by the latest applied transition.
func (o *Orchestrator) View() domain.RenderedView {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.view
}

func (o *Orchestrator) begin(ctx context.Context, trigger domain.Trigger, query string) *cycle {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}

	o.sequence++

	cctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	return &cycle{
		parent: ctx,
		ctx:    cctx,
		cancel: cancel,
		seq:    o.sequence,
		record: domain.LookupRecord{
			ID:        uuid.New(),
			Sequence:  o.sequence,
			Trigger:   trigger,
			Query:     query,
			StartedAt: time.Now(),
		},
	}
}

func (o *Orchestrator) lookup(c *cycle, coords domain.Coordinates) (domain.RenderedView, error) {
	c.record.Coordinates = &coords

	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(c.ctx, "Orchestrator.Fetch")

	defer span.End()

	span.SetAttributes(
		attribute.Int64("lookup.sequence", int64(c.seq)),
		attribute.Float64("lookup.latitude", coords.Latitude),
		attribute.Float64("lookup.longitude", coords.Longitude),
	)

	current, forecast, err := o.fetch(ctx, coords)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
	}

	return o.finish(c, current, forecast, err)
}

// fetch issues both weather requests concurrently; the first failure cancels the other.
func (o *Orchestrator) fetch(ctx context.Context, coords domain.Coordinates) (*domain.CurrentConditions, []domain.ForecastDay, error) {
	var (
		current  *domain.CurrentConditions
		forecast []domain.ForecastDay
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		current, err = o.weather.GetCurrentConditions(gctx, coords)

		return err
	})

	g.Go(func() error {
		var err error
		forecast, err = o.weather.GetForecast(gctx, coords)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if current == nil {
		return nil, nil, domain.NewMalformedResponseError("no current conditions returned", nil)
	}

	return current, forecast, nil
}

// finish applies the terminal transition for a cycle and reports it.
func (o *Orchestrator) finish(c *cycle, current *domain.CurrentConditions, forecast []domain.ForecastDay, err error) (domain.RenderedView, error) {
	var (
		state domain.LookupState
		view  domain.RenderedView
	)

	switch {
	case errors.Is(err, ErrSuperseded):
	case err != nil:
		code := domain.ErrorCode(err)
		message := domain.UserMessage(err)
		state = domain.LookupState{Phase: domain.Failed, ErrorCode: code, Message: message}
		view = o.presenter.RenderError(code, message)
	default:
		conditions := *current
		state = domain.LookupState{
			Phase:    domain.Displayed,
			Current:  &conditions,
			Forecast: append([]domain.ForecastDay(nil), forecast...),
		}
		view = o.presenter.Render(conditions, forecast)
	}

	applied := !errors.Is(err, ErrSuperseded) && o.transition(c, state, view)

	c.record.Duration = time.Since(c.record.StartedAt)
	c.record.Superseded = !applied
	c.record.Outcome = state.Phase
	c.record.ErrorCode = state.ErrorCode

	o.report(c)

	if !applied {
		return o.View(), ErrSuperseded
	}

	return view, nil
}

// transition applies state and view if c is still the latest cycle.
// It returns false, changing nothing, for a superseded cycle.
func (o *Orchestrator) transition(c *cycle, state domain.LookupState, view domain.RenderedView) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if c.seq != o.sequence {
		return false
	}

	o.state = state
	o.view = view

	if state.Phase == domain.Displayed || state.Phase == domain.Failed {
		o.cancel = nil
	}

	if o.sink != nil {
		o.sink.Show(c.parent, view)
	}

	return true
}

func (o *Orchestrator) report(c *cycle) {
	fields := []zap.Field{
		zap.String("lookup_id", c.record.ID.String()),
		zap.Uint64("sequence", c.seq),
		zap.String("trigger", string(c.record.Trigger)),
		zap.Duration("duration", c.record.Duration),
	}

	switch {
	case c.record.Superseded:
		o.logger.Info("lookup superseded", fields...)
	case c.record.Outcome == domain.Failed:
		o.logger.Warn("lookup failed", append(fields, zap.String("error_code", c.record.ErrorCode))...)
	default:
		o.logger.Info("lookup completed", fields...)
	}

	if o.observer != nil {
		o.observer.LookupCompleted(c.parent, c.record)
	}
}
