package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// AlertType classifies the weather hazard behind an alert.
type AlertType string

const (
	AlertTornado      AlertType = "tornado"
	AlertThunderstorm AlertType = "thunderstorm"
	AlertFlood        AlertType = "flood"
	AlertWinterStorm  AlertType = "winter-storm"
	AlertHurricane    AlertType = "hurricane"
	AlertWildfire     AlertType = "wildfire"
	AlertOther        AlertType = "other"
)

// ParseAlertType validates an alert type string.
func ParseAlertType(s string) (AlertType, error) {
	switch t := AlertType(s); t {
	case AlertTornado, AlertThunderstorm, AlertFlood, AlertWinterStorm,
		AlertHurricane, AlertWildfire, AlertOther:
		return t, nil
	default:
		return "", fmt.Errorf("unknown alert type %q", s)
	}
}

func (t *AlertType) UnmarshalText(b []byte) error {
	v, err := ParseAlertType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Severity is the ordered alert severity scale. The zero value is not a
// valid severity.
type Severity int

const (
	SeverityMinor Severity = iota + 1
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

var severityNames = map[Severity]string{
	SeverityMinor:    "minor",
	SeverityModerate: "moderate",
	SeveritySevere:   "severe",
	SeverityExtreme:  "extreme",
}

// ParseSeverity maps a severity label to its rank. Unknown labels are
// rejected rather than ranked as zero.
func ParseSeverity(s string) (Severity, error) {
	for sev, name := range severityNames {
		if name == s {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Rank returns the numeric rank: extreme(4) > severe(3) > moderate(2) > minor(1).
func (s Severity) Rank() int { return int(s) }

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Urgency tells the user how soon to act on an alert.
type Urgency string

const (
	UrgencyExpected  Urgency = "expected"
	UrgencyImmediate Urgency = "immediate"
)

func (u *Urgency) UnmarshalText(b []byte) error {
	switch v := Urgency(b); v {
	case UrgencyExpected, UrgencyImmediate:
		*u = v
		return nil
	default:
		return fmt.Errorf("unknown urgency %q", string(b))
	}
}

// AlertArea is the circular zone an alert covers.
type AlertArea struct {
	Center        Coordinate
	RadiusKm      float64
	LocationLabel string
	CountyLabels  []string
}

// alertAreaJSON is the flat wire shape shared with the dashboard client:
// {"lat", "lng", "radius", "location", "counties"}.
type alertAreaJSON struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Radius   float64  `json:"radius"`
	Location string   `json:"location,omitempty"`
	Counties []string `json:"counties,omitempty"`
}

func (a AlertArea) MarshalJSON() ([]byte, error) {
	return json.Marshal(alertAreaJSON{
		Lat:      a.Center.Lat,
		Lng:      a.Center.Lng,
		Radius:   a.RadiusKm,
		Location: a.LocationLabel,
		Counties: a.CountyLabels,
	})
}

func (a *AlertArea) UnmarshalJSON(b []byte) error {
	var w alertAreaJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = AlertArea{
		Center:        Coordinate{Lat: w.Lat, Lng: w.Lng},
		RadiusKm:      w.Radius,
		LocationLabel: w.Location,
		CountyLabels:  w.Counties,
	}
	return nil
}

// Alert is a single weather alert with its affected area.
type Alert struct {
	ID          string     `json:"id"`
	Type        AlertType  `json:"type"`
	Severity    Severity   `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Area        *AlertArea `json:"area"`
	IssuedAt    time.Time  `json:"issued"`
	ExpiresAt   time.Time  `json:"expires"`
	Urgency     Urgency    `json:"urgency"`
}

// Active reports whether the alert has not yet expired at now.
func (a Alert) Active(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}

// Validate checks the invariants classification relies on. A record that
// fails validation is skipped, not fatal.
func (a Alert) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformedAlert)
	case !a.Severity.Valid():
		return fmt.Errorf("%w: alert %s: invalid severity", ErrMalformedAlert, a.ID)
	case a.Area == nil:
		return fmt.Errorf("%w: alert %s: missing area", ErrMalformedAlert, a.ID)
	case math.IsNaN(a.Area.RadiusKm) || a.Area.RadiusKm < 0:
		return fmt.Errorf("%w: alert %s: invalid radius %v", ErrMalformedAlert, a.ID, a.Area.RadiusKm)
	case !a.ExpiresAt.After(a.IssuedAt):
		return fmt.Errorf("%w: alert %s: expires before it is issued", ErrMalformedAlert, a.ID)
	}
	return nil
}

// FilterActive returns the alerts still active at now, preserving order.
func FilterActive(alerts []Alert, now time.Time) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Active(now) {
			out = append(out, a)
		}
	}
	return out
}
