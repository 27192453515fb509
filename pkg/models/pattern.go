package models

import "time"

// Prediction is a pattern's estimated next occurrence.
type Prediction struct {
	NextExpected time.Time `json:"next_expected"`
	Confidence   float64   `json:"confidence"` // 0.0-1.0
}

// Pattern is a recurring co-occurrence of alert types within a
// characteristic time window. Patterns with at least three observed
// occurrences carry a prediction.
type Pattern struct {
	ID          string        `json:"id"`
	AlertTypes  []string      `json:"alert_types"` // sorted, unique
	TimeWindow  time.Duration `json:"time_window"`
	Severity    Severity      `json:"severity"`
	Frequency   float64       `json:"frequency"` // alerts/hour, running average
	Occurrences int           `json:"occurrences"`
	FirstSeen   time.Time     `json:"first_seen"`
	LastSeen    time.Time     `json:"last_seen"`
	Prediction  *Prediction   `json:"prediction,omitempty"`
}

// UpcomingPrediction is a pattern whose predicted occurrence is still in
// the future, annotated with the time remaining.
type UpcomingPrediction struct {
	Pattern    Pattern       `json:"pattern"`
	Prediction Prediction    `json:"prediction"`
	DueIn      time.Duration `json:"due_in"`
}

// PatternMatch scores a registered pattern against a candidate alert set.
type PatternMatch struct {
	Pattern    Pattern `json:"pattern"`
	Confidence float64 `json:"confidence"`
}

// CorrelationKind classifies the temporal relation between a primary alert
// and its related alerts within one batch.
type CorrelationKind string

const (
	CorrelationCause   CorrelationKind = "cause"   // every related alert is strictly later
	CorrelationEffect  CorrelationKind = "effect"  // every related alert is strictly earlier
	CorrelationRelated CorrelationKind = "related" // mixed ordering
)

// Correlation links one alert to the others that fired near it in time.
// Derived per batch, never persisted independently of its batch.
type Correlation struct {
	Primary    Alert           `json:"primary"`
	Related    []Alert         `json:"related"`
	Kind       CorrelationKind `json:"kind"`
	Confidence float64         `json:"confidence"` // 0.0-1.0
}

// Batch is the set of alerts collected within one fixed time window,
// together with their derived correlations. Read-only once archived.
type Batch struct {
	ID           string        `json:"id"`
	Alerts       []Alert       `json:"alerts"`
	Correlations []Correlation `json:"correlations"`
	CreatedAt    time.Time     `json:"created_at"`
	Processed    bool          `json:"processed"`
}
