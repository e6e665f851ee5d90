// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, os.Setenv(key, value))
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/stanza.db", cfg.DBPath)
	assert.Equal(t, "localhost", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, float64(10), cfg.APIRateLimit)
	assert.Equal(t, 20, cfg.APIRateBurst)
	assert.Equal(t, 720*time.Hour, cfg.EventRetention)
	assert.False(t, cfg.DoSeed)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "STANZA_DB_PATH", "/custom/path.db")
	setEnv(t, "STANZA_SERVER_HOST", "0.0.0.0")
	setEnv(t, "STANZA_SERVER_PORT", "3000")
	setEnv(t, "STANZA_ENV", "production")
	setEnv(t, "STANZA_LOG_LEVEL", "debug")
	setEnv(t, "STANZA_API_RATE_LIMIT", "5")
	setEnv(t, "STANZA_EVENT_RETENTION", "48h")
	setEnv(t, "STANZA_DO_SEED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/custom/path.db", cfg.DBPath)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, float64(5), cfg.APIRateLimit)
	assert.Equal(t, 48*time.Hour, cfg.EventRetention)
	assert.True(t, cfg.DoSeed)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port zero", "STANZA_SERVER_PORT", "0"},
		{"port too high", "STANZA_SERVER_PORT", "70000"},
		{"negative rate limit", "STANZA_API_RATE_LIMIT", "-1"},
		{"zero retention", "STANZA_EVENT_RETENTION", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, Config{Env: "development"}.IsDevelopment())
	assert.False(t, Config{Env: "production"}.IsDevelopment())
	assert.False(t, Config{Env: ""}.IsDevelopment())
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1", 443, "127.0.0.1:443"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			assert.Equal(t, tt.want, cfg.ServerAddr())
		})
	}
}
