package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolveLocation fills in whatever the user did not supply.
//
// Without a position, the address is forward geocoded; any failure there is
// returned as ErrGeocodingFailed because the location cannot be classified
// without coordinates. With a position but no address, a reverse lookup
// fills the address on a best-effort basis and failures are only logged.
func ResolveLocation(ctx context.Context, loc Location, geocoder Geocoder, logger *slog.Logger) (Location, error) {
	if loc.Position == nil {
		address := strings.TrimSpace(loc.Address)
		if address == "" {
			return loc, fmt.Errorf("%w: an address or coordinates are required", ErrInvalidLocation)
		}
		if geocoder == nil {
			return loc, fmt.Errorf("%w: no geocoder configured, supply coordinates", ErrGeocodingFailed)
		}

		result, err := geocoder.ForwardGeocode(ctx, address)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"location_id", loc.ID,
				"address", address,
				"error", err,
			)
			return loc, fmt.Errorf("%w: %q: %w", ErrGeocodingFailed, address, err)
		}
		if result.Lat == 0 && result.Lon == 0 {
			return loc, fmt.Errorf("%w: no match for %q", ErrGeocodingFailed, address)
		}
		loc.Position = &Coordinate{Lat: result.Lat, Lng: result.Lon}
		return loc, nil
	}

	if geocoder == nil || strings.TrimSpace(loc.Address) != "" {
		return loc, nil
	}

	result, err := geocoder.ReverseGeocode(ctx, loc.Position.Lat, loc.Position.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"location_id", loc.ID,
			"lat", loc.Position.Lat,
			"lng", loc.Position.Lng,
			"error", err,
		)
		return loc, nil
	}
	if result.FormattedAddress != "" {
		loc.Address = result.FormattedAddress
	}
	return loc, nil
}
