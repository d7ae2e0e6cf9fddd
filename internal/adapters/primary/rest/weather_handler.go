// Package rest implements the JSON API for weather lookups.
// This package serves as a primary adapter: it turns query parameters into
// orchestrator triggers and returns the resulting view with a matching status.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/adapters/secondary/geolocation"
	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
	"github.com/sean-rowe/weather-lookup/internal/middleware"
)

// Sessions hands out the orchestrator owning the request's session.
type Sessions interface {
	Orchestrator(w http.ResponseWriter, r *http.Request) *services.Orchestrator
}

// WeatherHandler handles the weather lookup API.
type WeatherHandler struct {
	// sessions maps requests to their orchestrator
	sessions Sessions

	// logger records request processing events and errors
	logger *zap.Logger
}

// NewWeatherHandler creates a new HTTP handler for weather lookups.
//
// Parameters:
//   - sessions: Session registry providing one orchestrator per client
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *WeatherHandler: Configured handler instance
func NewWeatherHandler(sessions Sessions, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Register mounts the API routes on router.
func (h *WeatherHandler) Register(router *mux.Router) {
	router.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	router.HandleFunc("/weather/state", h.GetState).Methods(http.MethodGet)
}

// GetWeather runs a lookup and returns the rendered view.
//
// Query parameters:
//   - city: Place name to geocode, or
//   - lat, lon: Device coordinates, or
//   - geo_error: "denied" or "unsupported" when the device had no position
//
// Response codes:
//   - 200: Result view
//   - 400: VALIDATION_ERROR, PERMISSION_DENIED, LOCATION_UNAVAILABLE
//   - 404: NOT_FOUND
//   - 409: A newer lookup in the same session replaced this one; body is the session's
//     view at that moment, which may still be the newer lookup's loading view.
//     Poll /api/v1/weather/state for its outcome.
//   - 502: MALFORMED_RESPONSE
//   - 503: TRANSPORT_ERROR
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	o := h.sessions.Orchestrator(w, r)

	var (
		view domain.RenderedView
		err  error
	)

	if q.Has("lat") || q.Has("lon") || q.Has("geo_error") {
		provider, perr := geolocation.FromBrowser(q.Get("lat"), q.Get("lon"), q.Get("geo_error"))

		if perr != nil {
			provider = geolocation.Unavailable{Err: perr}
		}

		view, err = o.UseLocation(r.Context(), provider)
	} else {
		view, err = o.Submit(r.Context(), q.Get("city"))
	}

	if errors.Is(err, services.ErrSuperseded) {
		h.logger.Info("lookup superseded",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("request_id", middleware.GetRequestID(r.Context())))

		h.respondWithJSON(w, http.StatusConflict, view)

		return
	}

	h.respondWithJSON(w, statusForView(view), view)
}

// GetState returns the session's current view without starting a lookup.
func (h *WeatherHandler) GetState(w http.ResponseWriter, r *http.Request) {
	o := h.sessions.Orchestrator(w, r)

	h.respondWithJSON(w, http.StatusOK, o.View())
}

func statusForView(view domain.RenderedView) int {
	if view.Status != domain.ViewError {
		return http.StatusOK
	}

	return statusForCode(view.ErrorCode)
}

// statusForCode maps error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case domain.CodeValidation, domain.CodePermissionDenied, domain.CodeLocationUnavailable:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeMalformedResponse:
		return http.StatusBadGateway
	case domain.CodeTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithJSON sends a JSON response with the specified status code.
func (h *WeatherHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
