package domain

// WeatherCodeEntry is the human description and icon identifier for a WMO weather code.
type WeatherCodeEntry struct {
	Description string `json:"description"`
	IconID      string `json:"icon"`
}

// UnknownWeatherCode is returned for any code the catalog does not know.
var UnknownWeatherCode = WeatherCodeEntry{
	Description: "Unknown",
	IconID:      "fas fa-question-circle text-gray-500",
}

// weatherCodes covers the WMO code space documented by Open-Meteo.
var weatherCodes = map[int]WeatherCodeEntry{
	0:  {Description: "Clear sky", IconID: "fas fa-sun text-yellow-400"},
	1:  {Description: "Mainly clear", IconID: "fas fa-cloud-sun text-yellow-400"},
	2:  {Description: "Partly cloudy", IconID: "fas fa-cloud text-gray-500"},
	3:  {Description: "Overcast", IconID: "fas fa-smog text-gray-400"},
	45: {Description: "Fog", IconID: "fas fa-smog text-gray-400"},
	48: {Description: "Depositing rime fog", IconID: "fas fa-smog text-gray-300"},
	51: {Description: "Light drizzle", IconID: "fas fa-cloud-rain text-blue-500"},
	53: {Description: "Moderate drizzle", IconID: "fas fa-cloud-rain text-blue-500"},
	55: {Description: "Dense drizzle", IconID: "fas fa-cloud-rain text-blue-600"},
	56: {Description: "Light freezing drizzle", IconID: "fas fa-icicles text-blue-300"},
	57: {Description: "Dense freezing drizzle", IconID: "fas fa-icicles text-blue-400"},
	61: {Description: "Slight rain", IconID: "fas fa-cloud-showers-heavy text-blue-500"},
	63: {Description: "Moderate rain", IconID: "fas fa-cloud-showers-heavy text-blue-600"},
	65: {Description: "Heavy rain", IconID: "fas fa-cloud-rain text-blue-700"},
	66: {Description: "Light freezing rain", IconID: "fas fa-icicles text-blue-400"},
	67: {Description: "Heavy freezing rain", IconID: "fas fa-icicles text-blue-600"},
	71: {Description: "Slight snow", IconID: "fas fa-snowflake text-blue-300"},
	73: {Description: "Moderate snow", IconID: "fas fa-snowflake text-blue-400"},
	75: {Description: "Heavy snow", IconID: "fas fa-snowman text-blue-500"},
	77: {Description: "Snow grains", IconID: "fas fa-snowflake text-gray-300"},
	80: {Description: "Slight rain showers", IconID: "fas fa-cloud-sun-rain text-blue-400"},
	81: {Description: "Moderate rain showers", IconID: "fas fa-cloud-showers-heavy text-blue-500"},
	82: {Description: "Violent rain showers", IconID: "fas fa-cloud-showers-water text-blue-700"},
	85: {Description: "Slight snow showers", IconID: "fas fa-snowflake text-blue-300"},
	86: {Description: "Heavy snow showers", IconID: "fas fa-snowman text-blue-500"},
	95: {Description: "Thunderstorm", IconID: "fas fa-bolt text-yellow-600"},
	96: {Description: "Thunderstorm with slight hail", IconID: "fas fa-cloud-bolt text-yellow-600"},
	99: {Description: "Thunderstorm with heavy hail", IconID: "fas fa-cloud-bolt text-yellow-700"},
}

// LookupWeatherCode returns the catalog entry for a WMO weather code.
// It never fails: unmapped codes resolve to UnknownWeatherCode.
func LookupWeatherCode(code int) WeatherCodeEntry {
	if entry, ok := weatherCodes[code]; ok {
		return entry
	}

	return UnknownWeatherCode
}

// KnownWeatherCodes returns every code the catalog maps, in no particular order.
func KnownWeatherCodes() []int {
	codes := make([]int, 0, len(weatherCodes))

	for code := range weatherCodes {
		codes = append(codes, code)
	}

	return codes
}
