// Package seed generates synthetic alert traffic so the pipeline can be
// exercised without live alerts. Registered only when the server runs in
// dev mode.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// timeNow is swapped in tests.
var timeNow = time.Now

// AlertSink receives generated alerts. Implemented by the beacon module;
// injected at the composition root.
type AlertSink interface {
	Record(ctx context.Context, alert models.Alert) models.Alert
}

// PatternSpec describes one recurring synthetic alert stream.
type PatternSpec struct {
	// Type is the alert type emitted.
	Type string `json:"type"`
	// Frequency is how many alerts to emit per day.
	Frequency int `json:"frequency"`
	// Severity of every emitted alert.
	Severity models.Severity `json:"severity"`
	// Jitter shifts each alert by a uniform random fraction of the
	// spacing interval, 0 (exact) to 1.
	Jitter float64 `json:"jitter"`
}

// GenerateSpec describes a full synthetic data request.
type GenerateSpec struct {
	Days     int           `json:"days"`
	Patterns []PatternSpec `json:"patterns"`
}

// Validate rejects specs that would generate nothing or run away.
func (s *GenerateSpec) Validate() error {
	if s.Days < 1 || s.Days > 30 {
		return fmt.Errorf("days must be in 1..30")
	}
	if len(s.Patterns) == 0 {
		return fmt.Errorf("at least one pattern is required")
	}
	for i, p := range s.Patterns {
		if p.Type == "" {
			return fmt.Errorf("pattern %d: type is required", i)
		}
		if p.Frequency < 1 || p.Frequency > 1440 {
			return fmt.Errorf("pattern %d: frequency must be in 1..1440", i)
		}
		if !p.Severity.Valid() {
			return fmt.Errorf("pattern %d: severity must be warning or critical", i)
		}
		if p.Jitter < 0 || p.Jitter > 1 {
			return fmt.Errorf("pattern %d: jitter must be in 0..1", i)
		}
	}
	return nil
}

// Generate produces days x frequency alerts per pattern with strictly
// increasing timestamps, ending at now. Jitter shifts each alert off its
// exact slot but never enough to reorder the stream.
func Generate(spec GenerateSpec, now time.Time) []models.Alert {
	now = now.UTC()
	start := now.Add(-time.Duration(spec.Days) * 24 * time.Hour)

	var alerts []models.Alert
	for _, p := range spec.Patterns {
		interval := 24 * time.Hour / time.Duration(p.Frequency)
		total := spec.Days * p.Frequency
		for i := 0; i < total; i++ {
			ts := start.Add(time.Duration(i) * interval)
			if p.Jitter > 0 {
				// Bounded to +-jitter/2 of the interval so order holds.
				offset := (rand.Float64() - 0.5) * p.Jitter * float64(interval)
				ts = ts.Add(time.Duration(offset))
			}
			alerts = append(alerts, models.Alert{
				Type:      p.Type,
				Value:     50 + rand.Float64()*50,
				Threshold: 50,
				Timestamp: ts,
				Severity:  p.Severity,
				Message:   fmt.Sprintf("Synthetic %s alert", p.Type),
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Timestamp.Before(alerts[j].Timestamp) })
	for i := 1; i < len(alerts); i++ {
		if !alerts[i].Timestamp.After(alerts[i-1].Timestamp) {
			alerts[i].Timestamp = alerts[i-1].Timestamp.Add(time.Millisecond)
		}
	}
	return alerts
}

// Module implements the Seed test data plugin.
type Module struct {
	logger *zap.Logger
	sink   AlertSink
}

// New creates a new Seed plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "seed",
		Version:      "0.1.0",
		Description:  "Synthetic alert generation for development",
		Dependencies: []string{"beacon"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.logger.Info("seed module initialized")
	return nil
}

// SetSink injects the alert destination. Called once from the composition
// root before Start.
func (m *Module) SetSink(s AlertSink) { m.sink = s }

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }
