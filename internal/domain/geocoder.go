package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formatted_address"`
	PlaceName        string  `json:"place_name"`
	Confidence       float64 `json:"confidence"` // 0.0–1.0 provider confidence score
}

// Found reports whether the provider returned a usable match.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lon != 0 || r.FormattedAddress != ""
}

// Geocoder resolves addresses to coordinates and back.
type Geocoder interface {
	// ForwardGeocode converts a free-form address to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
