package weave

import "time"

// WeaveConfig holds configuration for the Weave batching module.
type WeaveConfig struct {
	BatchWindow         time.Duration `mapstructure:"batch_window"`
	CorrelationWindow   time.Duration `mapstructure:"correlation_window"`
	StaleBatchAge       time.Duration `mapstructure:"stale_batch_age"`
	BatchRetention      time.Duration `mapstructure:"batch_retention"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

// DefaultConfig returns sensible defaults for the Weave module.
func DefaultConfig() WeaveConfig {
	return WeaveConfig{
		BatchWindow:         5 * time.Minute,
		CorrelationWindow:   60 * time.Second,
		StaleBatchAge:       24 * time.Hour,
		BatchRetention:      30 * 24 * time.Hour,
		MaintenanceInterval: 24 * time.Hour,
	}
}
