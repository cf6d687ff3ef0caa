package registry

import (
	"context"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
)

func textPtr(s string) *string { return &s }

// DemoLocations returns the sample locations shown to first-time users,
// stamped at now.
func DemoLocations(now time.Time) []domain.Location {
	return []domain.Location{
		{
			ID:          "demo-1",
			Name:        "Home",
			Address:     "123 Main St, Anytown, USA",
			Type:        domain.LocationHome,
			Position:    &domain.Coordinate{Lat: 40.7128, Lng: -74.0060},
			RiskLevel:   domain.RiskLow,
			LastUpdated: now,
		},
		{
			ID:                "demo-2",
			Name:              "Office",
			Address:           "456 Business Ave, Downtown, USA",
			Type:              domain.LocationWork,
			Position:          &domain.Coordinate{Lat: 40.7589, Lng: -73.9851},
			RiskLevel:         domain.RiskMedium,
			DominantAlertText: textPtr("Severe thunderstorm warning in effect until 8 PM"),
			LastUpdated:       now,
		},
		{
			ID:                "demo-3",
			Name:              "Mom's House",
			Address:           "789 Family Lane, Suburbs, USA",
			Type:              domain.LocationFamily,
			Position:          &domain.Coordinate{Lat: 40.6782, Lng: -73.9442},
			RiskLevel:         domain.RiskHigh,
			DominantAlertText: textPtr("Tornado watch in effect. Take shelter immediately."),
			LastUpdated:       now,
		},
	}
}

// SeedDemo adds the demo locations when the registry is empty. It reports
// whether anything was seeded.
func (r *Registry) SeedDemo(ctx context.Context, now time.Time) (bool, error) {
	if r.Len() > 0 {
		return false, nil
	}
	for _, loc := range DemoLocations(now) {
		if _, err := r.Add(ctx, loc); err != nil {
			return false, err
		}
	}
	return true, nil
}
