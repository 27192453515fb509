package insight

import "time"

// InsightConfig holds analytics settings.
type InsightConfig struct {
	// DefaultTimeframe is the dashboard window used when a request does
	// not name one.
	DefaultTimeframe time.Duration `mapstructure:"default_timeframe"`
	// MaxTimeframe bounds how far back a dashboard request may reach.
	MaxTimeframe time.Duration `mapstructure:"max_timeframe"`
}

// DefaultConfig returns the default insight configuration.
func DefaultConfig() InsightConfig {
	return InsightConfig{
		DefaultTimeframe: 24 * time.Hour,
		MaxTimeframe:     30 * 24 * time.Hour,
	}
}
