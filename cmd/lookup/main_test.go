package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

func TestPrintView(t *testing.T) {
	humidity := 81.0

	tests := []struct {
		name     string
		view     domain.RenderedView
		contains []string
		excludes []string
	}{
		{
			name:     "loading",
			view:     domain.RenderedView{Status: domain.ViewLoading, Message: "Loading weather data..."},
			contains: []string{"Loading weather data...\n"},
		},
		{
			name:     "error",
			view:     domain.RenderedView{Status: domain.ViewError, Message: "City not found"},
			contains: []string{"Error: City not found\n"},
		},
		{
			name: "result without humidity",
			view: domain.RenderedView{
				Status:        domain.ViewResult,
				Current:       &domain.CurrentView{Description: "Partly cloudy", TemperatureC: 18.5, WindSpeedKmh: 10.2},
				ForecastTitle: "5-Day Forecast",
				Forecast: []domain.ForecastDayView{
					{Date: "Wed, May 1", Description: "Clear sky", TempMaxC: 21.3, TempMinC: 11, WindSpeedMaxKmh: 12.5},
				},
			},
			contains: []string{"Now: Partly cloudy, 18.5°C, wind 10.2 km/h", "5-Day Forecast", "Wed, May 1", "Clear sky", "21.3", "11.0"},
			excludes: []string{"HUMIDITY"},
		},
		{
			name: "result with humidity",
			view: domain.RenderedView{
				Status:        domain.ViewResult,
				ForecastTitle: "1-Day Forecast",
				Forecast: []domain.ForecastDayView{
					{Date: "Wed, May 1", Description: "Clear sky", HumidityMaxPercent: &humidity},
				},
			},
			contains: []string{"HUMIDITY %", "81"},
			excludes: []string{"Now:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			printView(&out, tt.view)

			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}

			for _, s := range tt.excludes {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}
