package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/presage.db")

	// Module defaults
	v.SetDefault("plugins.beacon.history_limit", 1000)
	v.SetDefault("plugins.beacon.notify_timeout", "10s")
	v.SetDefault("plugins.weave.batch_window", "5m")
	v.SetDefault("plugins.weave.correlation_window", "60s")
	v.SetDefault("plugins.weave.stale_batch_age", "24h")
	v.SetDefault("plugins.weave.batch_retention", "720h")
	v.SetDefault("plugins.weave.maintenance_interval", "24h")
	v.SetDefault("plugins.seer.mining_interval", "1h")
	v.SetDefault("plugins.seer.check_interval", "5m")
	v.SetDefault("plugins.seer.cluster_window", "5m")
	v.SetDefault("plugins.seer.notify_confidence", 0.7)
	v.SetDefault("plugins.seer.pattern_retention", "720h")
	v.SetDefault("plugins.tally.record_limit", 1000)
	v.SetDefault("plugins.tally.persist_interval", "1h")
	v.SetDefault("plugins.insight.default_timeframe", "24h")
	v.SetDefault("plugins.insight.max_timeframe", "720h")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("presage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/presage")
	}

	// Environment variable support: PRESAGE_SERVER_PORT=9090
	v.SetEnvPrefix("PRESAGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
