package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIssued = time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)

func testAlert(id string, sev Severity, center Coordinate, radiusKm float64) Alert {
	return Alert{
		ID:          id,
		Type:        AlertThunderstorm,
		Severity:    sev,
		Title:       id + " title",
		Description: id + " description",
		Area:        &AlertArea{Center: center, RadiusKm: radiusKm},
		IssuedAt:    testIssued,
		ExpiresAt:   testIssued.Add(3 * time.Hour),
		Urgency:     UrgencyExpected,
	}
}

var nyc = Coordinate{Lat: 40.7128, Lng: -74.0060}

func TestClassify_NoAlerts(t *testing.T) {
	c := Classify(nyc, nil)

	assert.Empty(t, c.Affecting)
	assert.Nil(t, c.Dominant)
	assert.Nil(t, c.DominantText())
	assert.Equal(t, RiskLow, c.Risk)
}

func TestClassify_EndToEndScenario(t *testing.T) {
	a := testAlert("A", SeveritySevere, nyc, 5)
	b := testAlert("B", SeverityExtreme, Coordinate{Lat: 40.80, Lng: -74.05}, 50)

	c := Classify(nyc, []Alert{a, b})

	require.Len(t, c.Affecting, 2)
	assert.Equal(t, "A", c.Affecting[0].ID)
	assert.Equal(t, "B", c.Affecting[1].ID)
	require.NotNil(t, c.Dominant)
	assert.Equal(t, "B", c.Dominant.ID)
	assert.Equal(t, RiskHigh, c.Risk)
	assert.Equal(t, "B description", *c.DominantText())
}

func TestClassify_OutsideAreaIgnored(t *testing.T) {
	far := testAlert("far", SeverityExtreme, Coordinate{Lat: 41.9676, Lng: -87.6881}, 65)

	c := Classify(nyc, []Alert{far})

	assert.Empty(t, c.Affecting)
	assert.Equal(t, RiskLow, c.Risk)
}

func TestClassify_TieBreakFirstWins(t *testing.T) {
	first := testAlert("first", SeveritySevere, nyc, 10)
	second := testAlert("second", SeveritySevere, nyc, 20)

	for range 20 {
		c := Classify(nyc, []Alert{first, second})
		require.NotNil(t, c.Dominant)
		assert.Equal(t, "first", c.Dominant.ID)
	}

	c := Classify(nyc, []Alert{second, first})
	assert.Equal(t, "second", c.Dominant.ID)
}

func TestClassify_SeverityMapping(t *testing.T) {
	tests := []struct {
		sev  Severity
		want RiskLevel
	}{
		{SeverityMinor, RiskLow},
		{SeverityModerate, RiskMedium},
		{SeveritySevere, RiskHigh},
		{SeverityExtreme, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			c := Classify(nyc, []Alert{testAlert("x", tt.sev, nyc, 1)})
			assert.Equal(t, tt.want, c.Risk)
			assert.Equal(t, tt.want, SeverityRisk(tt.sev))
		})
	}
}

func TestClassify_MinorWithHigherPresent(t *testing.T) {
	minor := testAlert("minor", SeverityMinor, nyc, 10)
	moderate := testAlert("moderate", SeverityModerate, nyc, 10)

	c := Classify(nyc, []Alert{minor, moderate})

	assert.Equal(t, "moderate", c.Dominant.ID)
	assert.Equal(t, RiskMedium, c.Risk)
}

func TestClassify_Monotonic(t *testing.T) {
	base := []Alert{
		testAlert("minor", SeverityMinor, nyc, 10),
		testAlert("moderate", SeverityModerate, nyc, 10),
	}
	before := Classify(nyc, base)

	for _, sev := range []Severity{SeverityModerate, SeveritySevere, SeverityExtreme} {
		extended := append(append([]Alert{}, base...), testAlert("extra", sev, nyc, 10))
		after := Classify(nyc, extended)
		assert.GreaterOrEqual(t, after.Risk, before.Risk, "adding %s lowered risk", sev)
	}
}

func TestClassify_RemovingDominantRecomputes(t *testing.T) {
	moderate := testAlert("moderate", SeverityModerate, nyc, 10)
	extreme := testAlert("extreme", SeverityExtreme, nyc, 10)

	assert.Equal(t, RiskHigh, Classify(nyc, []Alert{moderate, extreme}).Risk)

	c := Classify(nyc, []Alert{moderate})
	assert.Equal(t, RiskMedium, c.Risk)
	assert.Equal(t, "moderate", c.Dominant.ID)
}

func TestClassify_SkipsMalformed(t *testing.T) {
	noArea := testAlert("no-area", SeverityExtreme, nyc, 10)
	noArea.Area = nil
	badSeverity := testAlert("bad-severity", Severity(0), nyc, 10)
	good := testAlert("good", SeverityModerate, nyc, 10)

	c := Classify(nyc, []Alert{noArea, badSeverity, good})

	require.Len(t, c.Affecting, 1)
	assert.Equal(t, "good", c.Dominant.ID)
	assert.Equal(t, RiskMedium, c.Risk)
}
