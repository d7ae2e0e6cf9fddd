package domain

// ViewStatus tells a UI adapter which region content to show.
type ViewStatus string

const (
	ViewIdle    ViewStatus = "idle"
	ViewLoading ViewStatus = "loading"
	ViewResult  ViewStatus = "result"
	ViewError   ViewStatus = "error"
)

// RenderedView is the inert, render-ready view model produced by the presenter.
// UI adapters turn it into markup, JSON or terminal output.
type RenderedView struct {
	Status        ViewStatus        `json:"status"`
	Message       string            `json:"message,omitempty"`
	ErrorCode     string            `json:"error_code,omitempty"`
	Current       *CurrentView      `json:"current,omitempty"`
	ForecastTitle string            `json:"forecast_title,omitempty"`
	Forecast      []ForecastDayView `json:"forecast,omitempty"`
}

// CurrentView is the current-conditions summary.
type CurrentView struct {
	WeatherCode  int     `json:"weather_code"`
	Description  string  `json:"description"`
	Icon         string  `json:"icon"`
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedKmh float64 `json:"wind_speed_kmh"`
}

// ForecastDayView is one entry of the forecast list.
type ForecastDayView struct {
	Date               string   `json:"date"`
	WeatherCode        int      `json:"weather_code"`
	Description        string   `json:"description"`
	Icon               string   `json:"icon"`
	TempMaxC           float64  `json:"temp_max_c"`
	TempMinC           float64  `json:"temp_min_c"`
	WindSpeedMaxKmh    float64  `json:"wind_speed_max_kmh"`
	HumidityMaxPercent *float64 `json:"humidity_max_percent,omitempty"`
}
