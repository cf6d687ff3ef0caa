package domain

// Classification is the outcome of correlating one position with an alert set.
type Classification struct {
	Affecting []Alert
	Dominant  *Alert
	Risk      RiskLevel
}

// DominantText returns the description of the dominant alert, or nil when no
// alert affects the position.
func (c Classification) DominantText() *string {
	if c.Dominant == nil {
		return nil
	}
	text := c.Dominant.Description
	return &text
}

// SeverityRisk maps an alert severity to a risk tier:
// extreme and severe are high, moderate is medium, minor is low.
func SeverityRisk(s Severity) RiskLevel {
	switch s {
	case SeverityExtreme, SeveritySevere:
		return RiskHigh
	case SeverityModerate:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify finds the alerts whose area contains pos, picks the most severe
// one, and derives the risk tier from it. Ties go to the alert that appears
// first in alerts. Malformed alerts are ignored.
func Classify(pos Coordinate, alerts []Alert) Classification {
	var c Classification
	for i := range alerts {
		a := alerts[i]
		if a.Validate() != nil {
			continue
		}
		if !Contains(*a.Area, pos) {
			continue
		}
		c.Affecting = append(c.Affecting, a)
	}

	for i := range c.Affecting {
		if c.Dominant == nil || c.Affecting[i].Severity.Rank() > c.Dominant.Severity.Rank() {
			c.Dominant = &c.Affecting[i]
		}
	}

	if c.Dominant != nil {
		c.Risk = SeverityRisk(c.Dominant.Severity)
	}
	return c
}
