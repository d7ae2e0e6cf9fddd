package openmeteo

import (
	"context"
	"net/url"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

// searchResponse represents the Open-Meteo geocoding /v1/search response.
// Absent and empty results both mean no match.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Search resolves a place name to the coordinates of its top match.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - placeName: Trimmed, non-empty place name
//
// Returns:
//   - domain.Coordinates: Coordinates of the best match
//   - error: NotFoundError without results, MalformedResponseError for a result
//     without coordinates, TransportError for failed calls
func (c *Client) Search(ctx context.Context, placeName string) (domain.Coordinates, error) {
	query := url.Values{}
	query.Set("name", placeName)
	query.Set("count", "1")
	query.Set("language", "en")
	query.Set("format", "json")

	var resp searchResponse

	if err := c.getJSON(ctx, "search", c.geocodingBaseURL+"/v1/search", query, &resp); err != nil {
		return domain.Coordinates{}, err
	}

	if len(resp.Results) == 0 {
		return domain.Coordinates{}, domain.NewNotFoundError("no geocoding match for " + placeName)
	}

	top := resp.Results[0]

	if top.Latitude == nil || top.Longitude == nil {
		return domain.Coordinates{}, domain.NewMalformedResponseError("geocoding result without coordinates", nil)
	}

	return domain.Coordinates{
		Latitude:  *top.Latitude,
		Longitude: *top.Longitude,
	}, nil
}
