package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

// RateLimitMiddleware rejects clients that exceed limit requests per window.
// Clients are identified by GetClientIP.
type RateLimitMiddleware struct {
	service ports.RateLimitService
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a rate limiting middleware.
//
// Parameters:
//   - service: Redis or in-memory rate limit backend
//   - limit: Requests allowed per window and client
//   - window: Sliding window length
//   - logger: Zap logger
//
// Returns:
//   - *RateLimitMiddleware: Middleware ready to wrap a handler
func NewRateLimitMiddleware(service ports.RateLimitService, limit int, window time.Duration, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		service: service,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Middleware wraps next. A failing backend lets the request through.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := GetClientIP(r)

		allowed, err := m.service.Allow(r.Context(), clientIP, m.limit, m.window)

		if err != nil {
			m.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("client_ip", clientIP),
				zap.Error(err))

			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))

		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)

			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "Too Many Requests",
				"code":  "RATE_LIMITED",
			})

			return
		}

		next.ServeHTTP(w, r)
	})
}
