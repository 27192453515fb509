// Package testutil holds shared test fixtures for the pipeline modules.
package testutil

import (
	"time"

	"github.com/HerbHall/presage/pkg/models"
)

// NewAlert returns an Alert with sensible defaults, suitable for test
// fixtures. Override individual fields with options as needed.
func NewAlert(opts ...func(*models.Alert)) models.Alert {
	a := models.Alert{
		Type:      "cpu_usage",
		Value:     92.5,
		Threshold: 90,
		Timestamp: time.Now().UTC(),
		Severity:  models.SeverityWarning,
		Message:   "CPU usage above threshold",
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// WithType sets the alert type.
func WithType(t string) func(*models.Alert) {
	return func(a *models.Alert) { a.Type = t }
}

// WithSeverity sets the alert severity.
func WithSeverity(s models.Severity) func(*models.Alert) {
	return func(a *models.Alert) { a.Severity = s }
}

// WithTimestamp sets the alert timestamp.
func WithTimestamp(t time.Time) func(*models.Alert) {
	return func(a *models.Alert) { a.Timestamp = t }
}

// WithValue sets the alert value.
func WithValue(v float64) func(*models.Alert) {
	return func(a *models.Alert) { a.Value = v }
}

// Series returns n alerts of one type spaced gap apart, starting at start.
func Series(n int, alertType string, start time.Time, gap time.Duration) []models.Alert {
	out := make([]models.Alert, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewAlert(
			WithType(alertType),
			WithTimestamp(start.Add(time.Duration(i)*gap)),
		))
	}
	return out
}
