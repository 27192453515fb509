package seer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/HerbHall/presage/pkg/models"
)

// minOccurrences is the observation count at which a pattern earns a
// prediction and becomes eligible for matching.
const minOccurrences = 3

// maxConfidence caps prediction confidence regardless of occurrence count.
const maxConfidence = 0.9

// clusterAlerts groups a batch's alerts by timestamp gap: a cluster starts
// with the first alert and extends while the next alert falls within the
// window of the cluster's first alert. Only clusters of two or more alerts
// are kept.
func clusterAlerts(alerts []models.Alert, window time.Duration) [][]models.Alert {
	if len(alerts) < 2 {
		return nil
	}

	sorted := make([]models.Alert, len(alerts))
	copy(sorted, alerts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var clusters [][]models.Alert
	current := []models.Alert{sorted[0]}
	for _, a := range sorted[1:] {
		if a.Timestamp.Sub(current[0].Timestamp) <= window {
			current = append(current, a)
			continue
		}
		if len(current) >= 2 {
			clusters = append(clusters, current)
		}
		current = []models.Alert{a}
	}
	if len(current) >= 2 {
		clusters = append(clusters, current)
	}
	return clusters
}

// deriveCandidate builds a single-occurrence pattern from one cluster.
func deriveCandidate(cluster []models.Alert) models.Pattern {
	types := make(map[string]struct{})
	severity := models.SeverityWarning
	first, last := cluster[0].Timestamp, cluster[0].Timestamp

	for i := range cluster {
		types[cluster[i].Type] = struct{}{}
		if cluster[i].Severity == models.SeverityCritical {
			severity = models.SeverityCritical
		}
		if cluster[i].Timestamp.Before(first) {
			first = cluster[i].Timestamp
		}
		if cluster[i].Timestamp.After(last) {
			last = cluster[i].Timestamp
		}
	}

	typeList := make([]string, 0, len(types))
	for t := range types {
		typeList = append(typeList, t)
	}
	sort.Strings(typeList)

	window := last.Sub(first)

	return models.Pattern{
		ID:          patternID(typeList, window),
		AlertTypes:  typeList,
		TimeWindow:  window,
		Severity:    severity,
		Frequency:   clusterFrequency(len(cluster), window),
		Occurrences: 1,
		FirstSeen:   first,
		LastSeen:    last,
	}
}

// patternID derives the registry key from the sorted alert types and the
// observed window length. Identical recurring clusters map to one id.
func patternID(sortedTypes []string, window time.Duration) string {
	return fmt.Sprintf("pattern-%s-%s", strings.Join(sortedTypes, "_"), window)
}

// clusterFrequency is alerts per hour over the cluster's span. Spans under
// one minute are clamped so instantaneous clusters don't blow up the rate.
func clusterFrequency(size int, window time.Duration) float64 {
	hours := window.Hours()
	if hours < 1.0/60 {
		hours = 1.0 / 60
	}
	return float64(size) / hours
}

// merge folds a candidate into an existing registry pattern. The frequency
// stays a running average over all merges; the prediction is recomputed
// from the delta between the previous and new lastSeen once the pattern
// has enough occurrences.
func merge(existing *models.Pattern, candidate *models.Pattern) {
	prevLastSeen := existing.LastSeen

	existing.Occurrences++
	existing.Frequency = (existing.Frequency*float64(existing.Occurrences-1) + candidate.Frequency) /
		float64(existing.Occurrences)
	if candidate.LastSeen.After(existing.LastSeen) {
		existing.LastSeen = candidate.LastSeen
	}
	if candidate.Severity == models.SeverityCritical {
		existing.Severity = models.SeverityCritical
	}

	if existing.Occurrences < minOccurrences {
		return
	}

	confidence := 0.5 + 0.1*float64(existing.Occurrences)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	next := existing.LastSeen
	if interval := existing.LastSeen.Sub(prevLastSeen); interval > 0 {
		next = existing.LastSeen.Add(interval)
	} else if existing.Prediction != nil {
		// Re-observation at the same instant: keep the prior estimate.
		next = existing.Prediction.NextExpected
	}

	existing.Prediction = &models.Prediction{
		NextExpected: next,
		Confidence:   confidence,
	}
}

// matchConfidence scores a pattern against a candidate alert set with the
// same three-factor blend used for batch correlations: type overlap,
// severity overlap, and time-window proximity.
func matchConfidence(p *models.Pattern, alerts []models.Alert) float64 {
	if len(alerts) == 0 {
		return 0
	}

	patternTypes := make(map[string]struct{}, len(p.AlertTypes))
	for _, t := range p.AlertTypes {
		patternTypes[t] = struct{}{}
	}

	candidateTypes := make(map[string]struct{})
	severityMatches := 0
	first, last := alerts[0].Timestamp, alerts[0].Timestamp
	for i := range alerts {
		candidateTypes[alerts[i].Type] = struct{}{}
		if alerts[i].Severity == p.Severity {
			severityMatches++
		}
		if alerts[i].Timestamp.Before(first) {
			first = alerts[i].Timestamp
		}
		if alerts[i].Timestamp.After(last) {
			last = alerts[i].Timestamp
		}
	}

	shared := 0
	for t := range candidateTypes {
		if _, ok := patternTypes[t]; ok {
			shared++
		}
	}
	union := len(patternTypes) + len(candidateTypes) - shared
	typeOverlap := float64(shared) / float64(union)

	severityOverlap := float64(severityMatches) / float64(len(alerts))

	span := last.Sub(first)
	ref := p.TimeWindow
	if ref <= 0 {
		ref = time.Minute
	}
	diff := math.Abs(span.Seconds() - p.TimeWindow.Seconds())
	proximity := 1.0 / (1.0 + diff/ref.Seconds())

	return 0.4*proximity + 0.3*typeOverlap + 0.3*severityOverlap
}
