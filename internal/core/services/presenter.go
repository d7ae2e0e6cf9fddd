package services

import (
	"fmt"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

const (
	loadingMessage = "Fetching weather data..."
	dateLayout     = "2006-01-02"
)

// Presenter turns provider data and catalog lookups into view models.
// It holds no state; every method is a pure function of its arguments.
type Presenter struct{}

// NewPresenter creates a Presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Render builds the result view for current conditions and a forecast.
func (p *Presenter) Render(current domain.CurrentConditions, forecast []domain.ForecastDay) domain.RenderedView {
	entry := domain.LookupWeatherCode(current.WeatherCode)

	days := make([]domain.ForecastDayView, 0, len(forecast))

	for _, day := range forecast {
		days = append(days, p.renderDay(day))
	}

	return domain.RenderedView{
		Status: domain.ViewResult,
		Current: &domain.CurrentView{
			WeatherCode:  current.WeatherCode,
			Description:  entry.Description,
			Icon:         entry.IconID,
			TemperatureC: current.TemperatureC,
			WindSpeedKmh: current.WindSpeedKmh,
		},
		ForecastTitle: fmt.Sprintf("%d-Day Forecast", len(days)),
		Forecast:      days,
	}
}

// RenderLoading builds the loading indicator view.
func (p *Presenter) RenderLoading() domain.RenderedView {
	return domain.RenderedView{
		Status:  domain.ViewLoading,
		Message: loadingMessage,
	}
}

// RenderError builds the error view for an error code and its user message.
func (p *Presenter) RenderError(code, message string) domain.RenderedView {
	return domain.RenderedView{
		Status:    domain.ViewError,
		ErrorCode: code,
		Message:   message,
	}
}

// RenderIdle builds the empty view shown before any lookup.
func (p *Presenter) RenderIdle() domain.RenderedView {
	return domain.RenderedView{Status: domain.ViewIdle}
}

func (p *Presenter) renderDay(day domain.ForecastDay) domain.ForecastDayView {
	entry := domain.LookupWeatherCode(day.WeatherCode)

	view := domain.ForecastDayView{
		Date:            day.Date.Format(dateLayout),
		WeatherCode:     day.WeatherCode,
		Description:     entry.Description,
		Icon:            entry.IconID,
		TempMaxC:        day.TempMaxC,
		TempMinC:        day.TempMinC,
		WindSpeedMaxKmh: day.WindSpeedMaxKmh,
	}

	// copy so the view never aliases the caller's forecast
	if day.HumidityMaxPercent != nil {
		humidity := *day.HumidityMaxPercent
		view.HumidityMaxPercent = &humidity
	}

	return view
}
