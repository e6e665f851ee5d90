// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"STANZA_DB_PATH" envDefault:"./data/stanza.db"`
	ServerHost string `env:"STANZA_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"STANZA_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"STANZA_ENV" envDefault:"development"`
	LogLevel   string `env:"STANZA_LOG_LEVEL" envDefault:"info"`

	// Rate limiting
	APIRateLimit  float64 `env:"STANZA_API_RATE_LIMIT" envDefault:"10"`  // requests per second per key
	APIRateBurst  int     `env:"STANZA_API_RATE_BURST" envDefault:"20"`  // burst per key
	GlobalRateRPS float64 `env:"STANZA_GLOBAL_RATE_RPS" envDefault:"50"` // requests per second per client IP

	// Event log retention; the maintenance job purges older entries.
	EventRetention time.Duration `env:"STANZA_EVENT_RETENTION" envDefault:"720h"`

	// Seeding configuration
	DoSeed     bool   `env:"STANZA_DO_SEED" envDefault:"false"`
	AdminEmail string `env:"STANZA_ADMIN_EMAIL" envDefault:"admin@localhost.localdomain"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("STANZA_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.APIRateLimit <= 0 || cfg.GlobalRateRPS <= 0 {
		return nil, fmt.Errorf("rate limits must be positive")
	}
	if cfg.EventRetention <= 0 {
		return nil, fmt.Errorf("STANZA_EVENT_RETENTION must be positive")
	}

	return cfg, nil
}
