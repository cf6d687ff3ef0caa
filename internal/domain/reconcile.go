package domain

import "time"

// RiskChange records one location whose classification moved during a pass.
type RiskChange struct {
	LocationID        string    `json:"location_id"`
	LocationName      string    `json:"location_name"`
	Previous          RiskLevel `json:"previous"`
	Current           RiskLevel `json:"current"`
	DominantAlertID   string    `json:"dominant_alert_id,omitempty"`
	DominantAlertText *string   `json:"dominant_alert_text,omitempty"`
	ChangedAt         time.Time `json:"changed_at"`
}

// ReconcileResult is the output of a reconciliation pass.
type ReconcileResult struct {
	Locations    []Location
	Changes      []RiskChange
	Unclassified int
}

// Reconcile classifies every positioned location against alerts and returns
// an updated copy of locations. LastUpdated moves to now only for locations
// whose risk level or dominant alert text changed, so running it twice with
// the same alerts produces no changes the second time.
func Reconcile(locations []Location, alerts []Alert, now time.Time) ReconcileResult {
	res := ReconcileResult{Locations: make([]Location, len(locations))}
	copy(res.Locations, locations)

	for i := range res.Locations {
		loc := &res.Locations[i]
		if loc.Position == nil {
			res.Unclassified++
			continue
		}

		c := Classify(*loc.Position, alerts)
		text := c.DominantText()
		if loc.RiskLevel == c.Risk && equalText(loc.DominantAlertText, text) {
			continue
		}

		change := RiskChange{
			LocationID:        loc.ID,
			LocationName:      loc.Name,
			Previous:          loc.RiskLevel,
			Current:           c.Risk,
			DominantAlertText: text,
			ChangedAt:         now,
		}
		if c.Dominant != nil {
			change.DominantAlertID = c.Dominant.ID
		}

		loc.RiskLevel = c.Risk
		loc.DominantAlertText = text
		loc.LastUpdated = now
		res.Changes = append(res.Changes, change)
	}
	return res
}

func equalText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
