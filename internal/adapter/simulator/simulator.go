// Package simulator generates demo weather alerts around a fixed set of US
// regions. Each call produces a complete replacement set; no alert identity
// survives from one call to the next.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

type template struct {
	typ         domain.AlertType
	severity    domain.Severity
	title       string
	description string
}

var templates = []template{
	{
		typ:         domain.AlertTornado,
		severity:    domain.SeverityExtreme,
		title:       "Tornado Warning",
		description: "Tornado activity detected. Take shelter immediately in a sturdy building.",
	},
	{
		typ:         domain.AlertThunderstorm,
		severity:    domain.SeveritySevere,
		title:       "Severe Thunderstorm Warning",
		description: "Heavy rain and hail expected. Avoid travel if possible.",
	},
	{
		typ:         domain.AlertFlood,
		severity:    domain.SeverityModerate,
		title:       "Flash Flood Warning",
		description: "Rapid water rise possible in low-lying areas",
	},
	{
		typ:         domain.AlertWinterStorm,
		severity:    domain.SeveritySevere,
		title:       "Winter Storm Warning",
		description: "Heavy snow and ice conditions expected",
	},
}

// Region is a named place alerts are centered on.
type Region struct {
	Label    string
	Counties []string
	Center   domain.Coordinate
}

// DefaultRegions are the demo regions alerts are generated around.
var DefaultRegions = []Region{
	{Label: "Springfield, IL", Counties: []string{"Sangamon County", "Menard County"}, Center: domain.Coordinate{Lat: 39.8008, Lng: -89.6611}},
	{Label: "Chicago, IL", Counties: []string{"Cook County", "DuPage County"}, Center: domain.Coordinate{Lat: 41.9676, Lng: -87.6881}},
	{Label: "Mancos, CO", Counties: []string{"Montezuma County"}, Center: domain.Coordinate{Lat: 37.3452, Lng: -108.2920}},
	{Label: "Denver, CO", Counties: []string{"Denver County", "Jefferson County"}, Center: domain.Coordinate{Lat: 39.7392, Lng: -104.9903}},
	{Label: "St. Louis, MO", Counties: []string{"St. Louis County", "St. Charles County"}, Center: domain.Coordinate{Lat: 38.6270, Lng: -90.1994}},
}

// Generator implements alertstore.Source with randomly generated alerts.
type Generator struct {
	regions []Region
	clock   clockwork.Clock
	logger  *slog.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New creates a Generator. A zero seed draws a random one.
func New(seed uint64, clock clockwork.Clock, logger *slog.Logger) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		regions: DefaultRegions,
		clock:   clock,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// FetchActiveAlerts generates a fresh alert set. It never fails.
func (g *Generator) FetchActiveAlerts(_ context.Context) ([]domain.Alert, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	n := g.alertCount()
	alerts := make([]domain.Alert, 0, n)

	for i := range n {
		tpl := templates[g.rng.IntN(len(templates))]
		region := g.regions[g.rng.IntN(len(g.regions))]

		urgency := domain.UrgencyExpected
		if tpl.severity == domain.SeverityExtreme {
			urgency = domain.UrgencyImmediate
		}

		lifetime := time.Duration((3 + g.rng.Float64()*8) * float64(time.Hour))
		alerts = append(alerts, domain.Alert{
			ID:          fmt.Sprintf("alert-%d-%d", now.UnixMilli(), i),
			Type:        tpl.typ,
			Severity:    tpl.severity,
			Title:       tpl.title,
			Description: tpl.description,
			Area: &domain.AlertArea{
				Center: domain.Coordinate{
					Lat: region.Center.Lat + (g.rng.Float64()-0.5)*0.2,
					Lng: region.Center.Lng + (g.rng.Float64()-0.5)*0.2,
				},
				RadiusKm:      float64(g.rng.IntN(40) + 25),
				LocationLabel: region.Label,
				CountyLabels:  append([]string(nil), region.Counties...),
			},
			IssuedAt:  now,
			ExpiresAt: now.Add(lifetime),
			Urgency:   urgency,
		})
	}

	if len(alerts) == 0 {
		g.logger.Debug("generated clear weather, no active alerts")
	} else {
		g.logger.Debug("generated weather alerts", "alert_count", len(alerts))
	}
	return alerts, nil
}

// alertCount draws the number of alerts: a quarter of cycles are clear, a
// quarter have one or two alerts, and the rest have two to four.
func (g *Generator) alertCount() int {
	switch p := g.rng.Float64(); {
	case p < 0.25:
		return 0
	case p < 0.5:
		return g.rng.IntN(2) + 1
	default:
		return g.rng.IntN(3) + 2
	}
}
