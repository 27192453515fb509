package weave

import (
	"time"

	"github.com/HerbHall/presage/pkg/models"
)

// Confidence factor weights. Proximity dominates; type and severity
// agreement split the remainder evenly.
const (
	weightProximity = 0.4
	weightType      = 0.3
	weightSeverity  = 0.3
)

// Correlate computes pairwise correlations for a closed batch. For every
// alert A it collects all other alerts within +/-window of A's timestamp;
// alerts with no neighbors produce no correlation.
func Correlate(alerts []models.Alert, window time.Duration) []models.Correlation {
	if len(alerts) < 2 {
		return nil
	}

	var out []models.Correlation
	for i := range alerts {
		primary := &alerts[i]

		var related []models.Alert
		for j := range alerts {
			if i == j {
				continue
			}
			gap := alerts[j].Timestamp.Sub(primary.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap <= window {
				related = append(related, alerts[j])
			}
		}
		if len(related) == 0 {
			continue
		}

		out = append(out, models.Correlation{
			Primary:    *primary,
			Related:    related,
			Kind:       classifyKind(primary, related),
			Confidence: correlationConfidence(primary, related, window),
		})
	}
	return out
}

// classifyKind orders the primary against its neighbors: cause when every
// related alert fired strictly later, effect when strictly earlier,
// related for mixed ordering (ties count as mixed).
func classifyKind(primary *models.Alert, related []models.Alert) models.CorrelationKind {
	allLater, allEarlier := true, true
	for i := range related {
		if !related[i].Timestamp.After(primary.Timestamp) {
			allLater = false
		}
		if !related[i].Timestamp.Before(primary.Timestamp) {
			allEarlier = false
		}
	}
	switch {
	case allLater:
		return models.CorrelationCause
	case allEarlier:
		return models.CorrelationEffect
	default:
		return models.CorrelationRelated
	}
}

// correlationConfidence blends three factors: inverse time proximity of
// the related alerts, the fraction sharing the primary's type, and the
// fraction sharing its severity. Capped at 1.
func correlationConfidence(primary *models.Alert, related []models.Alert, window time.Duration) float64 {
	var gapSum time.Duration
	sameType, sameSeverity := 0, 0
	for i := range related {
		gap := related[i].Timestamp.Sub(primary.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		gapSum += gap
		if related[i].Type == primary.Type {
			sameType++
		}
		if related[i].Severity == primary.Severity {
			sameSeverity++
		}
	}

	n := float64(len(related))
	meanGap := gapSum.Seconds() / n
	proximity := 1.0 / (1.0 + meanGap/window.Seconds())

	confidence := weightProximity*proximity +
		weightType*(float64(sameType)/n) +
		weightSeverity*(float64(sameSeverity)/n)
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
