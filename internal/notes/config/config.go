// Package config holds the notes service configuration.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "cleannote/pkg/config"
	"cleannote/pkg/logger"
)

const (
	ServiceName = "notes"

	LogConfigSummary = "notes configuration"
)

// Config is the full notes configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load reads the configuration from path, or from the environment when path is
// empty, and checks the store driver.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	logger.Log(ctx).Debug(ctx, LogConfigSummary,
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}
