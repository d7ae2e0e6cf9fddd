// Package domain contains the core business entities and domain logic for the weather lookup.
// This package defines the fundamental types and business rules that are independent
// of the weather provider, the UI layer and any infrastructure concerns.
package domain

import (
	"fmt"
	"time"
)

// Coordinates represent a geographic location using latitude and longitude.
// They are produced by geocoding a place name or by device geolocation and are
// consumed once per lookup cycle.
type Coordinates struct {
	// Latitude specifies the north-south position (-90 to 90 degrees)
	Latitude float64 `json:"latitude"`

	// Longitude specifies the east-west position (-180 to 180 degrees)
	Longitude float64 `json:"longitude"`
}

// Validate checks if the coordinates are within valid geographic bounds.
// Latitude must be between -90 and 90 degrees (south to north poles).
// Longitude must be between -180 and 180 degrees (international date line).
// NaN fails both checks.
func (c Coordinates) Validate() error {
	if !(c.Latitude >= -90 && c.Latitude <= 90) {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}

	if !(c.Longitude >= -180 && c.Longitude <= 180) {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}

	return nil
}

// CurrentConditions holds the instant weather reported for a location.
// Values are passed through exactly as the provider returns them.
type CurrentConditions struct {
	// WeatherCode is the provider's WMO weather code
	WeatherCode int

	// TemperatureC is the air temperature in degrees Celsius
	TemperatureC float64

	// WindSpeedKmh is the wind speed in kilometres per hour
	WindSpeedKmh float64
}

// ForecastDay holds the daily aggregates for one forecast day.
// A forecast is an ordered sequence of these, index 0 being the soonest day.
type ForecastDay struct {
	// Date is the calendar date of the forecast day in the location's timezone
	Date time.Time

	// WeatherCode is the most severe WMO weather code of the day
	WeatherCode int

	// TempMaxC is the daily maximum temperature in degrees Celsius
	TempMaxC float64

	// TempMinC is the daily minimum temperature in degrees Celsius
	TempMinC float64

	// WindSpeedMaxKmh is the daily maximum wind speed in kilometres per hour
	WindSpeedMaxKmh float64

	// HumidityMaxPercent is the daily maximum relative humidity.
	// It is nil unless the pipeline is configured to include humidity.
	HumidityMaxPercent *float64
}

const (
	// DefaultForecastDays is the number of forecast days requested when none is configured
	DefaultForecastDays = 5

	// MaxForecastDays is the largest daily forecast the provider serves
	MaxForecastDays = 16
)

// PipelineConfig selects the shape of the forecast request.
// One parametrized pipeline replaces separate short and extended variants.
type PipelineConfig struct {
	// DayCount caps the number of forecast days requested
	DayCount int

	// IncludeHumidity adds the daily maximum relative humidity to the forecast
	IncludeHumidity bool
}

// DefaultPipelineConfig returns the five day forecast without humidity.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{DayCount: DefaultForecastDays}
}

// Normalize clamps DayCount to the range the provider accepts.
// A zero or negative day count falls back to DefaultForecastDays.
func (p PipelineConfig) Normalize() PipelineConfig {
	switch {
	case p.DayCount <= 0:
		p.DayCount = DefaultForecastDays
	case p.DayCount > MaxForecastDays:
		p.DayCount = MaxForecastDays
	}

	return p
}
