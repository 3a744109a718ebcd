// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ORGAUTH_ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Addr string `env:"ORGAUTH_ADDR" envDefault:":8080" validate:"required"`

	// TokenTTL is the sliding expiration window: a session token not
	// used for this long becomes invalid.
	TokenTTL      time.Duration `env:"ORGAUTH_TOKEN_TTL" envDefault:"30m" validate:"required"`
	SweepInterval time.Duration `env:"ORGAUTH_TOKEN_SWEEP_INTERVAL" envDefault:"1m" validate:"required"`
	CookieDomain  string        `env:"ORGAUTH_COOKIE_DOMAIN"`

	// PasswordSalt switches the hasher to the legacy deterministic
	// salted-SHA256 scheme; empty selects bcrypt.
	PasswordSalt string `env:"ORGAUTH_PASSWORD_SALT"`

	// DatabaseURL selects the PostgreSQL directories; empty runs on the
	// in-memory ones.
	DatabaseURL string `env:"ORGAUTH_PG_DSN"`

	LogLevel string `env:"ORGAUTH_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Bootstrap admin account, created at startup when both are set.
	AdminEmail    string `env:"ORGAUTH_ADMIN_EMAIL" validate:"omitempty,email"`
	AdminPassword string `env:"ORGAUTH_ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
