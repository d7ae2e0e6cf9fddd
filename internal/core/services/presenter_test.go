package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

func TestPresenter_Render(t *testing.T) {
	p := NewPresenter()
	current := domain.CurrentConditions{WeatherCode: 95, TemperatureC: 18.5, WindSpeedKmh: 12.3}

	view := p.Render(current, forecastDays(5))

	assert.Equal(t, domain.ViewResult, view.Status)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Thunderstorm", view.Current.Description)
	assert.Equal(t, "fas fa-bolt text-yellow-600", view.Current.Icon)
	assert.Equal(t, 18.5, view.Current.TemperatureC)
	assert.Equal(t, 12.3, view.Current.WindSpeedKmh)

	assert.Equal(t, "5-Day Forecast", view.ForecastTitle)
	require.Len(t, view.Forecast, 5)
	assert.Equal(t, "2024-05-01", view.Forecast[0].Date)
	assert.Equal(t, "2024-05-05", view.Forecast[4].Date)
	assert.Equal(t, "Clear sky", view.Forecast[0].Description)
	assert.Nil(t, view.Forecast[0].HumidityMaxPercent)
}

func TestPresenter_RenderTitleFollowsDayCount(t *testing.T) {
	p := NewPresenter()

	view := p.Render(domain.CurrentConditions{}, forecastDays(7))

	assert.Equal(t, "7-Day Forecast", view.ForecastTitle)
	assert.Len(t, view.Forecast, 7)
}

func TestPresenter_UnknownCodeFallsBack(t *testing.T) {
	p := NewPresenter()
	days := forecastDays(1)
	days[0].WeatherCode = 42

	view := p.Render(domain.CurrentConditions{WeatherCode: 42}, days)

	assert.Equal(t, "Unknown", view.Current.Description)
	assert.Equal(t, "fas fa-question-circle text-gray-500", view.Current.Icon)
	assert.Equal(t, "Unknown", view.Forecast[0].Description)
}

func TestPresenter_IsPure(t *testing.T) {
	p := NewPresenter()
	humidity := 81.0
	days := forecastDays(2)
	days[1].HumidityMaxPercent = &humidity
	current := domain.CurrentConditions{WeatherCode: 3, TemperatureC: 9, WindSpeedKmh: 4}

	first := p.Render(current, days)
	second := p.Render(current, days)

	assert.Equal(t, first, second)
	require.NotNil(t, first.Forecast[1].HumidityMaxPercent)
	assert.Equal(t, 81.0, *first.Forecast[1].HumidityMaxPercent)

	*first.Forecast[1].HumidityMaxPercent = 0
	assert.Equal(t, 81.0, humidity, "view must not alias the input")
}

func TestPresenter_StatusViews(t *testing.T) {
	p := NewPresenter()

	assert.Equal(t, domain.RenderedView{Status: domain.ViewIdle}, p.RenderIdle())
	assert.Equal(t, domain.RenderedView{Status: domain.ViewLoading, Message: "Fetching weather data..."}, p.RenderLoading())
	assert.Equal(t,
		domain.RenderedView{Status: domain.ViewError, ErrorCode: domain.CodeNotFound, Message: "City not found"},
		p.RenderError(domain.CodeNotFound, "City not found"))
}
