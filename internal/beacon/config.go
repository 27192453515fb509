package beacon

import "time"

// BeaconConfig holds configuration for the Beacon alert store.
type BeaconConfig struct {
	HistoryLimit  int             `mapstructure:"history_limit"`
	NotifyTimeout time.Duration   `mapstructure:"notify_timeout"`
	Channels      []ChannelConfig `mapstructure:"channels"`
}

// ChannelConfig describes one configured notification channel.
type ChannelConfig struct {
	Name    string        `mapstructure:"name"`
	Type    string        `mapstructure:"type"` // "webhook", "email"
	Enabled bool          `mapstructure:"enabled"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Email   EmailConfig   `mapstructure:"email"`
}

// DefaultConfig returns sensible defaults for the Beacon module.
func DefaultConfig() BeaconConfig {
	return BeaconConfig{
		HistoryLimit:  1000,
		NotifyTimeout: 10 * time.Second,
	}
}
