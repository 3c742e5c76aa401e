// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 19200, cfg.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, uint32(1234), cfg.ControllerID)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	assert.Equal(t, 10, cfg.Discover.Rounds)
	assert.Equal(t, 500*time.Millisecond, cfg.Discover.Interval)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.yaml")
	content := []byte(`
port: /dev/ttyUSB0
baud: 115200
controller_id: 77
logging:
  level: debug
poll:
  interval: 250ms
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("AURA_BAUD", "9600")
	t.Setenv("AURA_METRICS_ADDR", ":9100")

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 9600, cfg.Baud, "environment overrides the file")
	assert.Equal(t, uint32(77), cfg.ControllerID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero baud", func(c *Config) { c.Baud = 0 }},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"broadcast controller", func(c *Config) { c.ControllerID = 0 }},
		{"zero poll", func(c *Config) { c.Poll.Interval = 0 }},
		{"zero rounds", func(c *Config) { c.Discover.Rounds = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"port and url", func(c *Config) { c.Port, c.URL = "/dev/ttyS0", "ws://host" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New())
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
