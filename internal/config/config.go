// Package config loads cleaner configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix shared by all settings,
// e.g. CLEANER_PG_HOST.
const Prefix = "CLEANER"

// Config holds all cleaner configuration loaded from environment variables.
// Command-line flags override MaxAge and the cluster list where both exist.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DBDriver         string `envconfig:"DB_DRIVER" default:"postgres"`
	PGUsername       string `envconfig:"PG_USERNAME" default:"postgres"`
	PGPassword       string `envconfig:"PG_PASSWORD"`
	PGHost           string `envconfig:"PG_HOST" default:"localhost"`
	PGPort           int    `envconfig:"PG_PORT" default:"5432"`
	PGDBName         string `envconfig:"PG_DB_NAME"`
	PGParams         string `envconfig:"PG_PARAMS" default:"sslmode=disable"`
	SQLiteDataSource string `envconfig:"SQLITE_DATASOURCE"`

	// Cleaner
	MaxAge          string `envconfig:"MAX_AGE"`
	ClusterListFile string `envconfig:"CLUSTER_LIST_FILE"`

	// Metrics (optional — a batch process has no scrape endpoint, so
	// metrics are pushed to a Pushgateway when configured)
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// Load reads configuration from CLEANER_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
