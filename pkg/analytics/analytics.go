// Package analytics provides public SDK types for Presage's on-demand
// analytics derivations. All types are plain JSON-tagged structs built by
// pure functions over a supplied alert list.
package analytics

import "time"

// TrendDirection classifies the slope of a value series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Trend is the least-squares slope of alert values over their index order.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Slope     float64        `json:"slope"`
	Samples   int            `json:"samples"`
}

// Seasonality reports whether alert volume repeats over a given period.
type Seasonality struct {
	Period      string  `json:"period"` // "daily", "weekly", "monthly"
	BucketHours int     `json:"bucket_hours"`
	Variation   float64 `json:"variation"` // coefficient of variation of bucket sums
	Seasonal    bool    `json:"seasonal"`
}

// Distribution holds alert counts grouped along one dimension.
type Distribution struct {
	ByHourOfDay map[int]int    `json:"by_hour_of_day"`
	ByDayOfWeek map[string]int `json:"by_day_of_week"`
	ByType      map[string]int `json:"by_type"`
	BySeverity  map[string]int `json:"by_severity"`
}

// ForecastPoint is one predicted hourly value.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Forecast is the next-24-hour projection for a value series.
type Forecast struct {
	Baseline    float64         `json:"baseline"` // median of the last 24 values
	Trend       TrendDirection  `json:"trend"`
	Points      []ForecastPoint `json:"points"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// PatternStrength measures how regular an alert type's inter-arrival
// intervals are. Only strengths above 0.5 are reported.
type PatternStrength struct {
	AlertType   string        `json:"alert_type"`
	Strength    float64       `json:"strength"` // 0.0-1.0
	MeanGap     time.Duration `json:"mean_gap"`
	Occurrences int           `json:"occurrences"`
}

// TimeSeriesPoint is one hourly bucket of alert volume.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	MeanValue float64   `json:"mean_value"`
}

// Summary is the headline block of the analytics dashboard.
type Summary struct {
	TotalAlerts   int            `json:"total_alerts"`
	CriticalCount int            `json:"critical_count"`
	WarningCount  int            `json:"warning_count"`
	Trend         TrendDirection `json:"trend"`
	Timeframe     string         `json:"timeframe"`
}

// Dashboard bundles every derivation for one reporting timeframe.
type Dashboard struct {
	Summary      Summary           `json:"summary"`
	TimeSeries   []TimeSeriesPoint `json:"time_series"`
	Distribution Distribution      `json:"distribution"`
	Patterns     []PatternStrength `json:"patterns"`
	Seasonality  []Seasonality     `json:"seasonality"`
	Forecast     Forecast          `json:"forecast"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
