package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config is a thin Viper wrapper. Durations are parsed from their string
 * form (e.g. "5s", "1h") via mapstructure's duration decode hook.
 */

type Config struct {
	Port string `mapstructure:"PORT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	WebhookRegistryPath string `mapstructure:"WEBHOOK_REGISTRY_PATH"`

	BatchingMaxSize int           `mapstructure:"BATCHING_MAX_SIZE"`
	BatchingMaxWait time.Duration `mapstructure:"BATCHING_MAX_WAIT"`

	RetryBase           time.Duration `mapstructure:"RETRY_BASE"`
	RetryMax            time.Duration `mapstructure:"RETRY_MAX"`
	RetryFailureHorizon time.Duration `mapstructure:"RETRY_FAILURE_HORIZON"`

	RetentionDeliveredTTL time.Duration `mapstructure:"RETENTION_DELIVERED_TTL"`
	RetentionFailedTTL    time.Duration `mapstructure:"RETENTION_FAILED_TTL"`

	ShutdownDrainDeadline time.Duration `mapstructure:"SHUTDOWN_DRAIN_DEADLINE"`

	ErrorsBufferSize int `mapstructure:"ERRORS_BUFFER_SIZE"`
}

// defaults mirrors the documented configuration defaults.
func defaults() Config {
	return Config{
		Port:                  "8080",
		RedisAddr:             "localhost:6379",
		RedisDB:               0,
		WebhookRegistryPath:   "webhooks.yaml",
		BatchingMaxSize:       10,
		BatchingMaxWait:       5 * time.Second,
		RetryBase:             10 * time.Second,
		RetryMax:              time.Hour,
		RetryFailureHorizon:   7 * 24 * time.Hour,
		ShutdownDrainDeadline: 30 * time.Second,
		ErrorsBufferSize:      128,
	}
}

// GetConfig loads configuration from .env (if present) and the environment,
// falling back to the documented defaults for anything unset.
func GetConfig() (*Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", cfg.Port)
	v.SetDefault("REDIS_ADDR", cfg.RedisAddr)
	v.SetDefault("REDIS_DB", cfg.RedisDB)
	v.SetDefault("WEBHOOK_REGISTRY_PATH", cfg.WebhookRegistryPath)
	v.SetDefault("BATCHING_MAX_SIZE", cfg.BatchingMaxSize)
	v.SetDefault("BATCHING_MAX_WAIT", cfg.BatchingMaxWait)
	v.SetDefault("RETRY_BASE", cfg.RetryBase)
	v.SetDefault("RETRY_MAX", cfg.RetryMax)
	v.SetDefault("RETRY_FAILURE_HORIZON", cfg.RetryFailureHorizon)
	v.SetDefault("RETENTION_DELIVERED_TTL", cfg.RetentionDeliveredTTL)
	v.SetDefault("RETENTION_FAILED_TTL", cfg.RetentionFailedTTL)
	v.SetDefault("SHUTDOWN_DRAIN_DEADLINE", cfg.ShutdownDrainDeadline)
	v.SetDefault("ERRORS_BUFFER_SIZE", cfg.ErrorsBufferSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}

	return &cfg, nil
}
