package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationType describes what a saved location is to the user.
type LocationType string

const (
	LocationHome     LocationType = "home"
	LocationWork     LocationType = "work"
	LocationSchool   LocationType = "school"
	LocationFamily   LocationType = "family"
	LocationFriend   LocationType = "friend"
	LocationHospital LocationType = "hospital"
	LocationOther    LocationType = "other"
)

// ParseLocationType validates a location type. An empty string maps to other.
func ParseLocationType(s string) (LocationType, error) {
	switch t := LocationType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return LocationOther, nil
	case LocationHome, LocationWork, LocationSchool, LocationFamily,
		LocationFriend, LocationHospital, LocationOther:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidLocation, s)
	}
}

// RiskLevel is the three-tier safety classification, ordered low < medium < high.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "low"
	}
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low", "":
		*r = RiskLow
	case "medium":
		*r = RiskMedium
	case "high":
		*r = RiskHigh
	default:
		return fmt.Errorf("unknown risk level %q", string(b))
	}
	return nil
}

// Location is a user-saved place. Position is nil until the address has been
// resolved; such locations are not classified.
type Location struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Address           string       `json:"address"`
	Type              LocationType `json:"type"`
	Position          *Coordinate  `json:"position,omitempty"`
	RiskLevel         RiskLevel    `json:"riskLevel"`
	DominantAlertText *string      `json:"weatherAlert,omitempty"`
	LastUpdated       time.Time    `json:"lastUpdated"`
}

// NewLocation creates a location with a fresh identity and low risk.
func NewLocation(name, address string, typ LocationType, pos *Coordinate) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, fmt.Errorf("%w: name is required", ErrInvalidLocation)
	}
	if typ == "" {
		typ = LocationOther
	}
	return Location{
		ID:          uuid.NewString(),
		Name:        name,
		Address:     strings.TrimSpace(address),
		Type:        typ,
		Position:    pos,
		RiskLevel:   RiskLow,
		LastUpdated: clock.Now().UTC(),
	}, nil
}
