package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

const dateLayout = "2006-01-02"

var dailyVariables = []string{
	"weathercode",
	"temperature_2m_max",
	"temperature_2m_min",
	"windspeed_10m_max",
}

const humidityVariable = "relative_humidity_2m_max"

// currentResponse represents the forecast response for current_weather=true.
type currentResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		Windspeed   *float64 `json:"windspeed"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// dailyResponse represents the forecast response for a daily variable list.
// The arrays are aligned by index.
type dailyResponse struct {
	Daily *struct {
		Time           []string  `json:"time"`
		WeatherCode    []int     `json:"weathercode"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WindspeedMax   []float64 `json:"windspeed_10m_max"`
		HumidityMax    []float64 `json:"relative_humidity_2m_max"`
	} `json:"daily"`
}

// GetCurrentConditions retrieves the instant weather at coords.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - coords: Location to query
//
// Returns:
//   - *domain.CurrentConditions: Code, temperature and wind as returned
//   - error: MalformedResponseError when current_weather or a field is missing,
//     TransportError for failed calls
func (c *Client) GetCurrentConditions(ctx context.Context, coords domain.Coordinates) (*domain.CurrentConditions, error) {
	query := coordinateQuery(coords)
	query.Set("current_weather", "true")
	query.Set("timezone", "auto")

	var resp currentResponse

	if err := c.getJSON(ctx, "current", c.forecastBaseURL+"/v1/forecast", query, &resp); err != nil {
		return nil, err
	}

	cw := resp.CurrentWeather

	if cw == nil {
		return nil, domain.NewMalformedResponseError("response has no current_weather", nil)
	}

	if cw.Temperature == nil || cw.Windspeed == nil || cw.WeatherCode == nil {
		return nil, domain.NewMalformedResponseError("current_weather is missing fields", nil)
	}

	return &domain.CurrentConditions{
		WeatherCode:  *cw.WeatherCode,
		TemperatureC: *cw.Temperature,
		WindSpeedKmh: *cw.Windspeed,
	}, nil
}

// GetForecast retrieves the daily forecast at coords.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - coords: Location to query
//
// Returns:
//   - []domain.ForecastDay: Days in chronological order
//   - error: MalformedResponseError when daily is missing, arrays disagree in
//     length or a date does not parse, TransportError for failed calls
func (c *Client) GetForecast(ctx context.Context, coords domain.Coordinates) ([]domain.ForecastDay, error) {
	variables := dailyVariables

	if c.pipeline.IncludeHumidity {
		variables = append(append([]string(nil), dailyVariables...), humidityVariable)
	}

	query := coordinateQuery(coords)
	query.Set("daily", strings.Join(variables, ","))
	query.Set("forecast_days", strconv.Itoa(c.pipeline.DayCount))
	query.Set("timezone", "auto")

	var resp dailyResponse

	if err := c.getJSON(ctx, "forecast", c.forecastBaseURL+"/v1/forecast", query, &resp); err != nil {
		return nil, err
	}

	return c.zipDaily(resp)
}

// zipDaily joins the index-aligned daily arrays into forecast days.
func (c *Client) zipDaily(resp dailyResponse) ([]domain.ForecastDay, error) {
	daily := resp.Daily

	if daily == nil {
		return nil, domain.NewMalformedResponseError("response has no daily block", nil)
	}

	n := len(daily.Time)

	lengths := map[string]int{
		"weathercode":        len(daily.WeatherCode),
		"temperature_2m_max": len(daily.TemperatureMax),
		"temperature_2m_min": len(daily.TemperatureMin),
		"windspeed_10m_max":  len(daily.WindspeedMax),
	}

	if c.pipeline.IncludeHumidity {
		lengths[humidityVariable] = len(daily.HumidityMax)
	}

	for name, length := range lengths {
		if length != n {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("daily %s has %d entries, time has %d", name, length, n), nil)
		}
	}

	days := make([]domain.ForecastDay, 0, n)

	for i := 0; i < n; i++ {
		date, err := time.Parse(dateLayout, daily.Time[i])

		if err != nil {
			return nil, domain.NewMalformedResponseError("unparseable forecast date", err)
		}

		day := domain.ForecastDay{
			Date:            date,
			WeatherCode:     daily.WeatherCode[i],
			TempMaxC:        daily.TemperatureMax[i],
			TempMinC:        daily.TemperatureMin[i],
			WindSpeedMaxKmh: daily.WindspeedMax[i],
		}

		if c.pipeline.IncludeHumidity {
			humidity := daily.HumidityMax[i]
			day.HumidityMaxPercent = &humidity
		}

		days = append(days, day)
	}

	return days, nil
}

func coordinateQuery(coords domain.Coordinates) url.Values {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))

	return query
}
