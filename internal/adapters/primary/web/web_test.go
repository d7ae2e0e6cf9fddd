package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
)

type fixedResolver map[string]domain.Coordinates

func (f fixedResolver) Resolve(_ context.Context, name string) (domain.Coordinates, error) {
	if coords, ok := f[name]; ok {
		return coords, nil
	}

	return domain.Coordinates{}, domain.NewNotFoundError("no match for " + name)
}

type fixedWeather struct{}

func (fixedWeather) GetCurrentConditions(context.Context, domain.Coordinates) (*domain.CurrentConditions, error) {
	return &domain.CurrentConditions{WeatherCode: 2, TemperatureC: 18.5, WindSpeedKmh: 10.2}, nil
}

func (fixedWeather) GetForecast(context.Context, domain.Coordinates) ([]domain.ForecastDay, error) {
	humidity := 72.0

	return []domain.ForecastDay{{
		Date:               time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		WeatherCode:        95,
		TempMaxC:           21.3,
		TempMinC:           11,
		WindSpeedMaxKmh:    12.5,
		HumidityMaxPercent: &humidity,
	}}, nil
}

func newTestSessions(created *int) *Sessions {
	factory := func() *services.Orchestrator {
		if created != nil {
			*created++
		}

		return services.NewOrchestrator(fixedResolver{"Paris": {Latitude: 48.85, Longitude: 2.35}}, fixedWeather{}, zap.NewNop())
	}

	return NewSessions(factory, SessionConfig{}, zap.NewNop())
}

func TestSessions_NewSessionSetsCookieAndHeader(t *testing.T) {
	sessions := newTestSessions(nil)

	rr := httptest.NewRecorder()
	o := sessions.Orchestrator(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, o)

	id := rr.Header().Get(SessionHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "weather_session", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 1800, cookies[0].MaxAge)
	assert.Equal(t, 1, sessions.Count())
}

func TestSessions_ReusesSession(t *testing.T) {
	created := 0
	sessions := newTestSessions(&created)

	rr := httptest.NewRecorder()
	first := sessions.Orchestrator(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rr.Header().Get(SessionHeader)

	byCookie := httptest.NewRequest(http.MethodGet, "/", nil)
	byCookie.AddCookie(&http.Cookie{Name: "weather_session", Value: id})

	byHeader := httptest.NewRequest(http.MethodGet, "/", nil)
	byHeader.Header.Set(SessionHeader, id)

	assert.Same(t, first, sessions.Orchestrator(httptest.NewRecorder(), byCookie))
	assert.Same(t, first, sessions.Orchestrator(httptest.NewRecorder(), byHeader))
	assert.Equal(t, 1, created)
}

func TestSessions_IgnoresForgedIDs(t *testing.T) {
	created := 0
	sessions := newTestSessions(&created)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "../../etc/passwd")

	rr := httptest.NewRecorder()
	sessions.Orchestrator(rr, req)

	assert.NotEqual(t, "../../etc/passwd", rr.Header().Get(SessionHeader))
	assert.Equal(t, 1, created)
}

func TestSessions_SeparateSessionsAreIndependent(t *testing.T) {
	sessions := newTestSessions(nil)

	a := sessions.Orchestrator(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	b := sessions.Orchestrator(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotSame(t, a, b)

	_, err := a.Submit(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, domain.Displayed, a.State().Phase)
	assert.Equal(t, domain.Idle, b.State().Phase)
	assert.Equal(t, 2, sessions.Count())
}

// browser replays the session cookie the way a browser would.
type browser struct {
	t       *testing.T
	handler *Handler
	cookie  *http.Cookie
}

func (b *browser) do(req *http.Request, serve http.HandlerFunc) *httptest.ResponseRecorder {
	b.t.Helper()

	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rr := httptest.NewRecorder()
	serve(rr, req)

	for _, c := range rr.Result().Cookies() {
		b.cookie = c
	}

	return rr
}

func (b *browser) page() string {
	return b.do(httptest.NewRequest(http.MethodGet, "/", nil), b.handler.Index).Body.String()
}

func newBrowser(t *testing.T) *browser {
	handler, err := NewHandler(newTestSessions(nil), zap.NewNop())
	require.NoError(t, err)

	return &browser{t: t, handler: handler}
}

func TestHandler_IndexStartsEmpty(t *testing.T) {
	b := newBrowser(t)

	rr := b.do(httptest.NewRequest(http.MethodGet, "/", nil), b.handler.Index)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `name="city"`)
	assert.NotContains(t, rr.Body.String(), "Forecast</h2>")
	assert.NotContains(t, rr.Body.String(), `http-equiv="refresh"`)
}

func TestHandler_LookupShowsResult(t *testing.T) {
	b := newBrowser(t)

	form := url.Values{"city": {"Paris"}}
	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := b.do(req, b.handler.Lookup)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?city=Paris", rr.Header().Get("Location"))

	page := b.page()

	assert.Contains(t, page, "18.5&deg;C")
	assert.Contains(t, page, "Partly cloudy")
	assert.Contains(t, page, "1-Day Forecast")
	assert.Contains(t, page, "Thunderstorm")
	assert.Contains(t, page, "72%")
}

func TestHandler_LookupEmptyCityShowsValidation(t *testing.T) {
	b := newBrowser(t)

	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader("city=+++"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	b.do(req, b.handler.Lookup)

	assert.Contains(t, b.page(), "Please enter a city name")
}

func TestHandler_LookupUnknownCity(t *testing.T) {
	b := newBrowser(t)

	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader("city=Xyzzyville"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	b.do(req, b.handler.Lookup)

	page := b.page()

	assert.Contains(t, page, "City not found")
	assert.NotContains(t, page, "Forecast</h2>")
}

func TestHandler_Location(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"coordinates", "?lat=48.85&lon=2.35", "Partly cloudy"},
		{"denied", "?geo_error=denied", "Location access denied."},
		{"unsupported", "?geo_error=unsupported", "Geolocation is not supported by your browser."},
		{"position unavailable", "?geo_error=unavailable", "Location access denied."},
		{"not a number", "?lat=NaN&lon=NaN", "Invalid coordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrowser(t)

			rr := b.do(httptest.NewRequest(http.MethodGet, "/location"+tt.query, nil), b.handler.Location)

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/", rr.Header().Get("Location"))
			assert.Contains(t, b.page(), tt.expected)
		})
	}
}
