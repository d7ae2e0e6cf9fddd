package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupWeatherCode(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected WeatherCodeEntry
	}{
		{"clear sky", 0, WeatherCodeEntry{Description: "Clear sky", IconID: "fas fa-sun text-yellow-400"}},
		{"thunderstorm", 95, WeatherCodeEntry{Description: "Thunderstorm", IconID: "fas fa-bolt text-yellow-600"}},
		{"unmapped code", 42, UnknownWeatherCode},
		{"negative code", -1, UnknownWeatherCode},
		{"above range", 100, UnknownWeatherCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LookupWeatherCode(tt.code))
		})
	}
}

func TestLookupWeatherCode_CoversDocumentedCodes(t *testing.T) {
	documented := []int{0, 1, 2, 3, 45, 48, 51, 53, 55, 56, 57, 61, 63, 65, 66, 67, 71, 73, 75, 77, 80, 81, 82, 85, 86, 95, 96, 99}

	assert.ElementsMatch(t, documented, KnownWeatherCodes())

	for _, code := range documented {
		entry := LookupWeatherCode(code)
		assert.NotEqual(t, UnknownWeatherCode, entry, "code %d", code)
		assert.NotEmpty(t, entry.Description, "code %d", code)
		assert.NotEmpty(t, entry.IconID, "code %d", code)
	}
}

func TestUnknownWeatherCode(t *testing.T) {
	assert.Equal(t, "Unknown", UnknownWeatherCode.Description)
	assert.Equal(t, "fas fa-question-circle text-gray-500", UnknownWeatherCode.IconID)
}
