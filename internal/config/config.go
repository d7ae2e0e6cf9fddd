// Package config provides centralized configuration management for the weather lookup service.
// It loads configuration from environment variables (optionally seeded from a .env file)
// with defaults suited to local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

// Config is the full service configuration, one section per component.
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	External      ExternalConfig
	Forecast      ForecastConfig
	GeoCache      GeoCacheConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
}

// ServerConfig holds the listener and its timeouts.
type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig contains settings for the Redis coordinate cache and client rate limiting.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig contains PostgreSQL settings for the lookup audit.
type DatabaseConfig struct {
	Enabled               bool
	Host                  string
	Port                  int
	User                  string
	Password              string
	Database              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// ObservabilityConfig drives the OTLP trace exporter and Prometheus metrics.
type ObservabilityConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// ExternalConfig contains settings for the Open-Meteo providers.
type ExternalConfig struct {
	GeocodingBaseURL string
	ForecastBaseURL  string
	HTTPTimeout      time.Duration

	// OutboundRPS and OutboundBurst bound calls per provider endpoint
	OutboundRPS   float64
	OutboundBurst int

	// BreakerTimeout is how long an open breaker waits before probing again
	BreakerTimeout     time.Duration
	BreakerMaxRequests int
}

// ForecastConfig selects the forecast pipeline.
type ForecastConfig struct {
	Days            int
	IncludeHumidity bool
}

// Pipeline returns the normalized forecast pipeline.
func (f ForecastConfig) Pipeline() domain.PipelineConfig {
	return domain.PipelineConfig{
		DayCount:        f.Days,
		IncludeHumidity: f.IncludeHumidity,
	}.Normalize()
}

// GeoCacheConfig controls caching of resolved place names.
// Off by default: every trigger geocodes again.
type GeoCacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// SessionConfig controls browser sessions, one orchestrator each.
type SessionConfig struct {
	CookieName      string
	TTL             time.Duration
	CleanupInterval time.Duration
}

// RateLimitConfig bounds lookups per client IP: RPS requests each Window.
type RateLimitConfig struct {
	RPS    int
	Window time.Duration
}

// Load builds the configuration from the environment. A .env file in the
// working directory is read first when present; variables already set in the
// process environment win over it.
func Load() *Config {
	_ = godotenv.Load()

	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Environment:     environment,
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:               getEnvAsBool("DATABASE_ENABLED", false),
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnvAsInt("DB_PORT", 5432),
			User:                  getEnv("DB_USER", "weather"),
			Password:              getEnv("DB_PASSWORD", ""),
			Database:              getEnv("DB_NAME", "weather_lookup"),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxConnections:        getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			Enabled:        getEnvAsBool("TELEMETRY_ENABLED", true),
			ServiceName:    getEnv("SERVICE_NAME", "weather-lookup"),
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    environment,
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     getEnvAsFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		External: ExternalConfig{
			GeocodingBaseURL:   getEnv("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com"),
			ForecastBaseURL:    getEnv("FORECAST_BASE_URL", "https://api.open-meteo.com"),
			HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
			OutboundRPS:        getEnvAsFloat("OUTBOUND_RPS", 10),
			OutboundBurst:      getEnvAsInt("OUTBOUND_BURST", 5),
			BreakerTimeout:     getEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second),
			BreakerMaxRequests: getEnvAsInt("BREAKER_MAX_REQUESTS", 1),
		},
		Forecast: ForecastConfig{
			Days:            getEnvAsInt("FORECAST_DAYS", domain.DefaultForecastDays),
			IncludeHumidity: getEnvAsBool("FORECAST_INCLUDE_HUMIDITY", false),
		},
		GeoCache: GeoCacheConfig{
			Enabled:         getEnvAsBool("GEOCODE_CACHE_ENABLED", false),
			TTL:             getEnvAsDuration("GEOCODE_CACHE_TTL", time.Hour),
			CleanupInterval: 10 * time.Minute,
		},
		Session: SessionConfig{
			CookieName:      getEnv("SESSION_COOKIE", "weather_session"),
			TTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			CleanupInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// getEnv returns the variable key, or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	return envAs(key, fallback, func(v string) (string, error) { return v, nil })
}

func getEnvAsInt(key string, fallback int) int {
	return envAs(key, fallback, strconv.Atoi)
}

func getEnvAsBool(key string, fallback bool) bool {
	return envAs(key, fallback, strconv.ParseBool)
}

func getEnvAsFloat(key string, fallback float64) float64 {
	return envAs(key, fallback, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

// getEnvAsDuration accepts Go duration strings such as "10s" or "1h30m".
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	return envAs(key, fallback, time.ParseDuration)
}

// envAs parses the variable key with parse. Unset, empty and unparseable
// values all yield fallback.
func envAs[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}

	v, err := parse(raw)
	if err != nil {
		return fallback
	}

	return v
}
