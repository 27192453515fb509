package seer

import "time"

// SeerConfig holds configuration for the Seer pattern mining module.
type SeerConfig struct {
	MiningInterval   time.Duration `mapstructure:"mining_interval"`
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	ClusterWindow    time.Duration `mapstructure:"cluster_window"`
	NotifyConfidence float64       `mapstructure:"notify_confidence"`
	PatternRetention time.Duration `mapstructure:"pattern_retention"`
}

// DefaultConfig returns sensible defaults for the Seer module.
func DefaultConfig() SeerConfig {
	return SeerConfig{
		MiningInterval:   1 * time.Hour,
		CheckInterval:    5 * time.Minute,
		ClusterWindow:    5 * time.Minute,
		NotifyConfidence: 0.7,
		PatternRetention: 30 * 24 * time.Hour,
	}
}
