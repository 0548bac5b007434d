// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Addr          string        `env:"REDBLUE_ADDR"           envDefault:":8080"`
	Debug         bool          `env:"REDBLUE_DEBUG"          envDefault:"false"`
	DBDriver      string        `env:"REDBLUE_DB_DRIVER"      envDefault:"sqlite"`
	DBDSN         string        `env:"REDBLUE_DB_DSN"         envDefault:"red-blue.sqlite"`
	AdminPassword string        `env:"REDBLUE_ADMIN_PASSWORD"`
	RoundTimeout  time.Duration `env:"REDBLUE_ROUND_TIMEOUT"  envDefault:"60s"`

	// WSOrigins lists extra origins allowed to open game sockets.
	WSOrigins []string `env:"REDBLUE_WS_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported REDBLUE_DB_DRIVER %q", c.DBDriver)
	}
	if c.RoundTimeout <= 0 {
		return errors.New("REDBLUE_ROUND_TIMEOUT must be positive")
	}
	return nil
}

func (c Config) LobbyExpiry() time.Duration {
	if c.Debug {
		return time.Minute
	}
	return 10 * time.Minute
}

// DisconnectGrace is how long a vacated seat may stay empty.
func (c Config) DisconnectGrace() time.Duration {
	if c.Debug {
		return time.Minute
	}
	return 10 * time.Minute
}

// DisconnectCheckDelay is when the expiry check runs after a disconnect.
func (c Config) DisconnectCheckDelay() time.Duration {
	return c.DisconnectGrace() + 10*time.Second
}
