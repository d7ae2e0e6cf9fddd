package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRateLimitService struct {
	mock.Mock
}

func (m *MockRateLimitService) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, identifier, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimitService) Reset(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded for first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"invalid header falls back", map[string]string{"X-Forwarded-For": "garbage"}, "192.0.2.1:80", "192.0.2.1"},
		{"remote addr", nil, "192.0.2.9:5555", "192.0.2.9"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"no port", nil, "192.0.2.10", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		allowed        bool
		err            error
		expectedStatus int
	}{
		{"allowed", true, nil, http.StatusOK},
		{"limited", false, nil, http.StatusTooManyRequests},
		{"backend failure fails open", false, assert.AnError, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRateLimitService)
			service.On("Allow", mock.Anything, "192.0.2.1", 10, time.Minute).Return(tt.allowed, tt.err)

			handler := NewRateLimitMiddleware(service, 10, time.Minute, zap.NewNop()).Middleware(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil)
			req.RemoteAddr = "192.0.2.1:4000"
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestTracingMiddleware_AssignsIDs(t *testing.T) {
	m := NewObservabilityMiddleware(nil, zap.NewNop())

	var seenCorrelation, seenRequest string

	router := mux.NewRouter()
	router.Use(m.TracingMiddleware, m.MetricsMiddleware, m.LoggingMiddleware)
	router.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		seenCorrelation = GetCorrelationID(r.Context())
		seenRequest = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/weather", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "corr-123", seenCorrelation)
	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))
	assert.NotEmpty(t, seenRequest)
	assert.Equal(t, seenRequest, rec.Header().Get("X-Request-ID"))
}
