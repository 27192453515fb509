package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// HistorySource supplies the alert history the derivations run over.
// Implemented by the beacon module; injected at the composition root.
type HistorySource interface {
	History() []models.Alert
}

// Module implements the Insight analytics plugin.
type Module struct {
	logger *zap.Logger
	cfg    InsightConfig
	source HistorySource
}

// New creates a new Insight plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "insight",
		Version:      "0.1.0",
		Description:  "On-demand alert analytics",
		Dependencies: []string{"beacon"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal insight config: %w", err)
		}
	}
	m.logger.Info("insight module initialized")
	return nil
}

// SetHistorySource injects the alert history provider. Called once from
// the composition root before Start.
func (m *Module) SetHistorySource(s HistorySource) { m.source = s }

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	status := "healthy"
	if m.source == nil {
		status = "degraded"
	}
	return plugin.HealthStatus{Status: status}
}

// Dashboard builds the full analytics report over alerts recorded within
// the given timeframe ending now.
func (m *Module) Dashboard(timeframe time.Duration) analytics.Dashboard {
	now := time.Now().UTC()

	var alerts []models.Alert
	if m.source != nil {
		cutoff := now.Add(-timeframe)
		for _, a := range m.source.History() {
			if !a.Timestamp.Before(cutoff) {
				alerts = append(alerts, a)
			}
		}
	}

	trend := ComputeTrend(alerts)
	summary := analytics.Summary{
		TotalAlerts: len(alerts),
		Trend:       trend.Direction,
		Timeframe:   timeframe.String(),
	}
	for _, a := range alerts {
		switch a.Severity {
		case models.SeverityCritical:
			summary.CriticalCount++
		case models.SeverityWarning:
			summary.WarningCount++
		}
	}

	return analytics.Dashboard{
		Summary:      summary,
		TimeSeries:   buildTimeSeries(alerts, now, timeframe),
		Distribution: ComputeDistribution(alerts),
		Patterns:     ComputePatternStrengths(alerts),
		Seasonality:  ComputeSeasonality(alerts),
		Forecast:     ComputeForecast(alerts, now),
		GeneratedAt:  now,
	}
}

// buildTimeSeries buckets alerts into hourly volume/mean-value points
// spanning the timeframe.
func buildTimeSeries(alerts []models.Alert, now time.Time, timeframe time.Duration) []analytics.TimeSeriesPoint {
	hours := int(timeframe / time.Hour)
	if hours < 1 {
		hours = 1
	}
	start := now.Truncate(time.Hour).Add(-time.Duration(hours-1) * time.Hour)

	counts := make([]int, hours)
	sums := make([]float64, hours)
	for _, a := range alerts {
		slot := int(a.Timestamp.Sub(start) / time.Hour)
		if slot < 0 || slot >= hours {
			continue
		}
		counts[slot]++
		sums[slot] += a.Value
	}

	out := make([]analytics.TimeSeriesPoint, 0, hours)
	for i := 0; i < hours; i++ {
		point := analytics.TimeSeriesPoint{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Count:     counts[i],
		}
		if counts[i] > 0 {
			point.MeanValue = sums[i] / float64(counts[i])
		}
		out = append(out, point)
	}
	return out
}
