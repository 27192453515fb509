// Package models provides the public data model shared across Presage modules.
package models

import "time"

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity value.
func (s Severity) Valid() bool {
	return s == SeverityWarning || s == SeverityCritical
}

// TypePredictedPattern is the alert type used for synthetic alerts emitted
// ahead of a predicted pattern occurrence. Synthetic alerts flow through the
// normal notification fan-out but are excluded from prediction verification.
const TypePredictedPattern = "predicted_alert_pattern"

// Alert is a single reported threshold-crossing event.
// Immutable once created: appended to history, never mutated.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// Synthetic reports whether the alert was emitted by the prediction
// pipeline rather than a real alert source.
func (a *Alert) Synthetic() bool {
	return a.Type == TypePredictedPattern
}

// AlertFilter narrows an alert history query. Zero values match everything.
type AlertFilter struct {
	Type     string
	Severity Severity
	From     time.Time
	To       time.Time
}

// Matches reports whether the alert passes every set filter field.
func (f AlertFilter) Matches(a *Alert) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if !f.From.IsZero() && a.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.Timestamp.After(f.To) {
		return false
	}
	return true
}
