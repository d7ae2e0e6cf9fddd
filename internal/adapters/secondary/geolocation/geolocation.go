// Package geolocation provides device location sources for the use-current-location trigger.
// Browsers resolve geolocation on the client, so the server only ever receives the
// outcome: a coordinate pair or the reason none is available.
package geolocation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
)

// Browser failure reasons reported instead of coordinates.
// ReasonUnavailable covers position-unavailable and timeout errors.
const (
	ReasonDenied      = "denied"
	ReasonUnavailable = "unavailable"
	ReasonUnsupported = "unsupported"
)

// Static is a location source that already knows its coordinates.
type Static struct {
	Coordinates domain.Coordinates
}

// CurrentLocation returns the fixed coordinates, honouring cancellation.
func (s Static) CurrentLocation(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, err
	}

	return s.Coordinates, nil
}

// Unavailable is a location source that failed on the device.
type Unavailable struct {
	Err error
}

// CurrentLocation returns the recorded device failure.
func (u Unavailable) CurrentLocation(context.Context) (domain.Coordinates, error) {
	return domain.Coordinates{}, u.Err
}

// FromBrowser builds a location source from what a browser reported.
//
// Parameters:
//   - lat, lon: Coordinates as decimal strings, empty when the browser has none
//   - reason: "denied", "unavailable", "unsupported" or empty
//
// Returns:
//   - ports.LocationProvider: Static coordinates or the matching failure
//   - error: ValidationError when coordinates are missing or not numbers
func FromBrowser(lat, lon, reason string) (ports.LocationProvider, error) {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case ReasonDenied:
		return Unavailable{Err: domain.NewPermissionDeniedError("user denied geolocation")}, nil
	case ReasonUnavailable:
		return Unavailable{Err: domain.NewPermissionDeniedError("position unavailable")}, nil
	case ReasonUnsupported:
		return Unavailable{Err: domain.NewLocationUnavailableError("geolocation not supported")}, nil
	case "":
	default:
		// every error callback of getCurrentPosition is shown as a refusal
		return Unavailable{Err: domain.NewPermissionDeniedError("geolocation failed: " + reason)}, nil
	}

	if lat == "" || lon == "" {
		return nil, domain.NewValidationError("Both latitude and longitude are required")
	}

	latitude, err := strconv.ParseFloat(lat, 64)

	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("Invalid latitude %q", lat))
	}

	longitude, err := strconv.ParseFloat(lon, 64)

	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("Invalid longitude %q", lon))
	}

	coords := domain.Coordinates{Latitude: latitude, Longitude: longitude}

	if err := coords.Validate(); err != nil {
		return nil, domain.NewValidationError("Invalid coordinates")
	}

	return Static{Coordinates: coords}, nil
}
