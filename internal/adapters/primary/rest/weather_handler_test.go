package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
)

var paris = domain.Coordinates{Latitude: 48.85, Longitude: 2.35}

// stubResolver resolves from a fixed table. Names in block wait for their
// channel to close before answering.
type stubResolver struct {
	places  map[string]domain.Coordinates
	block   map[string]chan struct{}
	started chan string
}

func (r *stubResolver) Resolve(ctx context.Context, name string) (domain.Coordinates, error) {
	if r.started != nil {
		r.started <- name
	}

	if release, ok := r.block[name]; ok {
		<-release
	}

	if coords, ok := r.places[name]; ok {
		return coords, nil
	}

	switch name {
	case "Offline":
		return domain.Coordinates{}, domain.NewTransportError("connection refused", nil)
	case "Garbled":
		return domain.Coordinates{}, domain.NewMalformedResponseError("no coordinates", nil)
	}

	return domain.Coordinates{}, domain.NewNotFoundError("no match for " + name)
}

type stubWeather struct{}

func (stubWeather) GetCurrentConditions(context.Context, domain.Coordinates) (*domain.CurrentConditions, error) {
	return &domain.CurrentConditions{WeatherCode: 2, TemperatureC: 18.5, WindSpeedKmh: 10.2}, nil
}

func (stubWeather) GetForecast(context.Context, domain.Coordinates) ([]domain.ForecastDay, error) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.ForecastDay, 5)

	for i := range days {
		days[i] = domain.ForecastDay{Date: start.AddDate(0, 0, i), WeatherCode: 61, TempMaxC: 20, TempMinC: 10, WindSpeedMaxKmh: 15}
	}

	return days, nil
}

// singleSession hands every request the same orchestrator.
type singleSession struct {
	orchestrator *services.Orchestrator
}

func (s singleSession) Orchestrator(http.ResponseWriter, *http.Request) *services.Orchestrator {
	return s.orchestrator
}

func newTestRouter(resolver *stubResolver) (*mux.Router, *services.Orchestrator) {
	if resolver.places == nil {
		resolver.places = map[string]domain.Coordinates{"Paris": paris}
	}

	o := services.NewOrchestrator(resolver, stubWeather{}, zap.NewNop())
	handler := NewWeatherHandler(singleSession{orchestrator: o}, zap.NewNop())

	router := mux.NewRouter()
	handler.Register(router)

	return router, o
}

func get(t *testing.T, router http.Handler, target string) (*httptest.ResponseRecorder, domain.RenderedView) {
	t.Helper()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var view domain.RenderedView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))

	return rr, view
}

func TestWeatherHandler_GetWeather(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedView   domain.ViewStatus
		expectedCode   string
		expectedMsg    string
	}{
		{"city found", "/weather?city=Paris", http.StatusOK, domain.ViewResult, "", ""},
		{"city with spaces", "/weather?city=%20%20Paris%20", http.StatusOK, domain.ViewResult, "", ""},
		{"empty city", "/weather?city=%20%20", http.StatusBadRequest, domain.ViewError, domain.CodeValidation, "Please enter a city name"},
		{"no parameters", "/weather", http.StatusBadRequest, domain.ViewError, domain.CodeValidation, "Please enter a city name"},
		{"unknown city", "/weather?city=Xyzzyville", http.StatusNotFound, domain.ViewError, domain.CodeNotFound, "City not found"},
		{"provider down", "/weather?city=Offline", http.StatusServiceUnavailable, domain.ViewError, domain.CodeTransport, "Failed to fetch weather data"},
		{"provider garbled", "/weather?city=Garbled", http.StatusBadGateway, domain.ViewError, domain.CodeMalformedResponse, ""},
		{"coordinates", "/weather?lat=48.85&lon=2.35", http.StatusOK, domain.ViewResult, "", ""},
		{"coordinates out of range", "/weather?lat=95&lon=2.35", http.StatusBadRequest, domain.ViewError, domain.CodeValidation, "Invalid coordinates"},
		{"half a coordinate", "/weather?lat=48.85", http.StatusBadRequest, domain.ViewError, domain.CodeValidation, ""},
		{"geolocation denied", "/weather?geo_error=denied", http.StatusBadRequest, domain.ViewError, domain.CodePermissionDenied, "Location access denied."},
		{"geolocation unsupported", "/weather?geo_error=unsupported", http.StatusBadRequest, domain.ViewError, domain.CodeLocationUnavailable, "Geolocation is not supported by your browser."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(&stubResolver{})

			rr, view := get(t, router, tt.target)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedView, view.Status)
			assert.Equal(t, tt.expectedCode, view.ErrorCode)

			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, view.Message)
			}
		})
	}
}

func TestWeatherHandler_ResultBody(t *testing.T) {
	router, _ := newTestRouter(&stubResolver{})

	_, view := get(t, router, "/weather?city=Paris")

	require.NotNil(t, view.Current)
	assert.Equal(t, "Partly cloudy", view.Current.Description)
	assert.Equal(t, 18.5, view.Current.TemperatureC)
	assert.Equal(t, "5-Day Forecast", view.ForecastTitle)
	require.Len(t, view.Forecast, 5)
	assert.Equal(t, "Slight rain", view.Forecast[0].Description)
	assert.Nil(t, view.Forecast[0].HumidityMaxPercent)
}

func TestWeatherHandler_GetState(t *testing.T) {
	router, _ := newTestRouter(&stubResolver{})

	rr, view := get(t, router, "/weather/state")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.ViewIdle, view.Status)

	get(t, router, "/weather?city=Xyzzyville")

	rr, view = get(t, router, "/weather/state")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.ViewError, view.Status)
	assert.Equal(t, domain.CodeNotFound, view.ErrorCode)
}

func TestWeatherHandler_SupersededLookupConflicts(t *testing.T) {
	release := make(chan struct{})
	resolver := &stubResolver{
		places:  map[string]domain.Coordinates{"Paris": paris, "Slowtown": {Latitude: 10, Longitude: 10}},
		block:   map[string]chan struct{}{"Slowtown": release},
		started: make(chan string, 2),
	}

	router, o := newTestRouter(resolver)

	type response struct {
		code int
		view domain.RenderedView
	}

	slow := make(chan response, 1)

	go func() {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/weather?city=Slowtown", nil))

		var view domain.RenderedView
		_ = json.Unmarshal(rr.Body.Bytes(), &view)
		slow <- response{rr.Code, view}
	}()

	require.Equal(t, "Slowtown", <-resolver.started)

	rr, latest := get(t, router, "/weather?city=Paris")
	require.Equal(t, http.StatusOK, rr.Code)
	<-resolver.started

	close(release)
	stale := <-slow

	assert.Equal(t, http.StatusConflict, stale.code)
	assert.Equal(t, latest, stale.view)
	assert.Equal(t, domain.Displayed, o.State().Phase)
}

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		domain.CodeValidation:          http.StatusBadRequest,
		domain.CodePermissionDenied:    http.StatusBadRequest,
		domain.CodeLocationUnavailable: http.StatusBadRequest,
		domain.CodeNotFound:            http.StatusNotFound,
		domain.CodeMalformedResponse:   http.StatusBadGateway,
		domain.CodeTransport:           http.StatusServiceUnavailable,
		"SOMETHING_NEW":                http.StatusInternalServerError,
	}

	for code, status := range tests {
		assert.Equal(t, status, statusForCode(code), code)
	}
}
