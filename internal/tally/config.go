package tally

import "time"

// TallyConfig holds accuracy tracker settings.
type TallyConfig struct {
	// RecordLimit caps the number of retained accuracy records. Oldest
	// records are evicted first.
	RecordLimit int `mapstructure:"record_limit"`
	// PersistInterval is how often the record registry is snapshotted to
	// durable storage.
	PersistInterval time.Duration `mapstructure:"persist_interval"`
}

// DefaultConfig returns the default tally configuration.
func DefaultConfig() TallyConfig {
	return TallyConfig{
		RecordLimit:     1000,
		PersistInterval: time.Hour,
	}
}
