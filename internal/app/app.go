// Package app provides application-level coordination and dependency injection.
// It builds the lookup pipeline from configuration, wires the HTTP adapters and
// manages the lifecycle of the server and its backing services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/adapters/primary/rest"
	"github.com/sean-rowe/weather-lookup/internal/adapters/primary/web"
	"github.com/sean-rowe/weather-lookup/internal/adapters/secondary/openmeteo"
	"github.com/sean-rowe/weather-lookup/internal/config"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/cache"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/database"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/ratelimit"
	"github.com/sean-rowe/weather-lookup/internal/middleware"
	"github.com/sean-rowe/weather-lookup/internal/observability"
)

const redisKeyPrefix = "weather-lookup:"

// App manages the application lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	server    *http.Server
	logger    *zap.Logger
	telemetry *observability.Telemetry
	db        *database.PostgresDB
	redis     *redis.Client
	breakers  *circuitbreaker.Manager
	sessions  *web.Sessions
	auditor   *LookupAuditor
	audit     ports.AuditRepository
}

// New loads configuration from the environment and builds an App with a
// production zap logger.
func New() (*App, error) {
	logger, err := zap.NewProduction()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newApp(config.Load(), logger), nil
}

func newApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		breakers: circuitbreaker.NewManager(logger),
	}
}

// Start initializes all components and starts serving HTTP in the background.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Handler construction error
func (a *App) Start(ctx context.Context) error {
	handler, err := a.buildHandler(ctx)

	if err != nil {
		return err
	}

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info("starting HTTP server",
			zap.String("port", a.cfg.Server.Port),
			zap.String("environment", a.cfg.Server.Environment))

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	return nil
}

// buildHandler connects backing services and assembles the router.
// Optional services that fail to connect are logged and skipped.
func (a *App) buildHandler(ctx context.Context) (http.Handler, error) {
	if a.cfg.Observability.Enabled {
		if err := a.initTelemetry(ctx); err != nil {
			a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
		}
	}

	a.initRedis(ctx)

	if err := a.initDatabase(); err != nil {
		a.logger.Warn("failed to connect to database, continuing without it", zap.Error(err))
	}

	if a.db != nil {
		a.audit = NewDatabaseAdapter(a.db)
	}

	a.auditor = NewLookupAuditor(a.telemetry, a.audit, a.logger)

	a.sessions = web.NewSessions(a.orchestratorFactory(), web.SessionConfig{
		CookieName:      a.cfg.Session.CookieName,
		TTL:             a.cfg.Session.TTL,
		CleanupInterval: a.cfg.Session.CleanupInterval,
		SecureCookie:    a.cfg.Server.Environment == "production",
	}, a.logger)

	webHandler, err := web.NewHandler(a.sessions, a.logger)

	if err != nil {
		return nil, fmt.Errorf("failed to load page template: %w", err)
	}

	weatherHandler := rest.NewWeatherHandler(a.sessions, a.logger)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		a.initRateLimiter(),
		a.cfg.RateLimit.RPS,
		a.cfg.RateLimit.Window,
		a.logger,
	)

	return a.setupRouter(webHandler, weatherHandler, rateLimitMiddleware), nil
}

// orchestratorFactory builds the shared provider stack once and returns a
// factory producing one orchestrator per session on top of it.
func (a *App) orchestratorFactory() web.OrchestratorFactory {
	pipeline := a.cfg.Forecast.Pipeline()

	client := openmeteo.NewClient(openmeteo.Config{
		GeocodingBaseURL: a.cfg.External.GeocodingBaseURL,
		ForecastBaseURL:  a.cfg.External.ForecastBaseURL,
		Pipeline:         pipeline,
		Timeout:          a.cfg.External.HTTPTimeout,
		Observer:         a.telemetry,
	}, &http.Client{Timeout: a.cfg.External.HTTPTimeout}, a.logger)

	resilience := ResilienceConfig{
		RPS:                a.cfg.External.OutboundRPS,
		Burst:              a.cfg.External.OutboundBurst,
		BreakerTimeout:     a.cfg.External.BreakerTimeout,
		BreakerMaxRequests: uint32(a.cfg.External.BreakerMaxRequests),
	}

	geocoding := NewResilientGeocodingClient(client, a.breakers, resilience)
	weather := NewResilientWeatherClient(client, a.breakers, resilience)
	resolver := services.NewGeoResolver(geocoding, a.initGeoCache(), a.cfg.GeoCache.TTL, a.logger)

	a.logger.Info("lookup pipeline configured",
		zap.Int("forecast_days", pipeline.DayCount),
		zap.Bool("include_humidity", pipeline.IncludeHumidity),
		zap.Bool("geocode_cache", a.cfg.GeoCache.Enabled))

	return func() *services.Orchestrator {
		return services.NewOrchestrator(resolver, weather, a.logger,
			services.WithLookupObserver(a.auditor))
	}
}

// Stop drains the server, waits for pending audit writes, then closes the
// backing services in reverse order of startup.
func (a *App) Stop() {
	a.logger.Info("stopping weather lookup")

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown", zap.Error(err))
		}
	}

	if a.auditor != nil {
		a.auditor.Wait()
	}

	for _, c := range a.closers() {
		if err := c.close(); err != nil {
			a.logger.Error("close "+c.name, zap.Error(err))
		}
	}

	// Sync fails on stdout/stderr on some platforms.
	_ = a.logger.Sync()
}

type closer struct {
	name  string
	close func() error
}

func (a *App) closers() []closer {
	var out []closer

	if a.db != nil {
		out = append(out, closer{"database", a.db.Close})
	}

	if a.redis != nil {
		out = append(out, closer{"redis", a.redis.Close})
	}

	if a.telemetry != nil {
		out = append(out, closer{"telemetry", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return a.telemetry.Shutdown(ctx)
		}})
	}

	return out
}

// WaitForShutdown blocks until the process receives SIGINT or SIGTERM.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initRedis connects to Redis when enabled. On failure the app falls back
// to in-memory services.
func (a *App) initRedis(ctx context.Context) {
	if !a.cfg.Redis.Enabled {
		a.logger.Info("redis disabled, using in-process cache and rate limiter")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		a.logger.Warn("redis unreachable, using in-process cache and rate limiter", zap.Error(err))
		_ = client.Close()

		return
	}

	a.logger.Info("redis connected", zap.String("addr", a.cfg.Redis.Addr))
	a.redis = client
}

// initGeoCache returns nil unless coordinate caching is enabled.
func (a *App) initGeoCache() ports.CacheService {
	if !a.cfg.GeoCache.Enabled {
		return nil
	}

	if a.redis != nil {
		return cache.NewRedisCache(a.redis, redisKeyPrefix+"cache:", a.telemetry, a.logger)
	}

	return cache.NewMemoryCache(a.cfg.GeoCache.TTL, a.cfg.GeoCache.CleanupInterval, a.telemetry, a.logger)
}

func (a *App) initRateLimiter() ports.RateLimitService {
	if a.redis != nil {
		return ratelimit.NewRedisRateLimiter(a.redis, redisKeyPrefix+"ratelimit:", a.logger)
	}

	return ratelimit.NewMemoryRateLimiter(5*time.Minute, a.logger)
}

func (a *App) initDatabase() error {
	if !a.cfg.Database.Enabled {
		return nil
	}

	dbConfig := database.Config{
		Host:                  a.cfg.Database.Host,
		Port:                  a.cfg.Database.Port,
		User:                  a.cfg.Database.User,
		Password:              a.cfg.Database.Password,
		Database:              a.cfg.Database.Database,
		SSLMode:               a.cfg.Database.SSLMode,
		MaxConnections:        a.cfg.Database.MaxConnections,
		MaxIdleConnections:    a.cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: a.cfg.Database.ConnectionMaxLifetime,
	}

	var err error
	a.db, err = database.NewPostgresDB(dbConfig, a.telemetry, a.logger)

	return err
}

// setupRouter creates and configures the HTTP router with all middleware.
func (a *App) setupRouter(
	webHandler *web.Handler,
	weatherHandler *rest.WeatherHandler,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) http.Handler {
	router := mux.NewRouter()

	obs := middleware.NewObservabilityMiddleware(a.telemetry, a.logger)
	router.Use(obs.TracingMiddleware, obs.MetricsMiddleware, obs.LoggingMiddleware)

	router.HandleFunc("/health", a.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/health/live", a.livenessHandler).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", a.readinessHandler).Methods(http.MethodGet)
	router.HandleFunc("/version", a.versionHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", a.statsHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Lookup triggers share the per-client rate limit.
	limited := rateLimitMiddleware.Middleware
	router.Handle("/lookup", limited(http.HandlerFunc(webHandler.Lookup))).Methods(http.MethodPost)
	router.Handle("/location", limited(http.HandlerFunc(webHandler.Location))).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimitMiddleware.Middleware)
	weatherHandler.Register(api)

	router.HandleFunc("/", webHandler.Index).Methods(http.MethodGet)

	return router
}
