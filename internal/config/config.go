// Package config loads runtime settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "ECOCYCLE_"

// Config holds all settings of the ecocycle shell.
type Config struct {
	DSN       string `env:"DSN, default=postgres://localhost:5432/ecocycle"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=console"`
	Migrate   bool   `env:"MIGRATE, default=true"`

	Credentials string        `env:"CREDENTIALS, default=plain"`
	SessionKey  string        `env:"SESSION_KEY, default=dev-secret-change-me"`
	SessionTTL  time.Duration `env:"SESSION_TTL, default=24h"`

	Feed  string `env:"FEED, default=memory"`
	Redis RedisConfig
}

// RedisConfig locates the review feed cache when Feed is "redis".
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads envFile (if it exists) into the process environment and then
// decodes the prefixed variables.
func Load(ctx context.Context, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith decodes the configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Feed {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown feed backend %q", c.Feed)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}
