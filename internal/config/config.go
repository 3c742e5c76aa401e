// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads aurastat settings from flags, environment and file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. AURA_PORT
const EnvPrefix = "AURA"

// LumberjackConfig configures log file rotation
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig selects level, encoding and an optional log file
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type DiscoverConfig struct {
	Rounds   int           `mapstructure:"rounds"`
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the top-level configuration
type Config struct {
	Port         string        `mapstructure:"port"`
	Baud         int           `mapstructure:"baud"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	URL          string        `mapstructure:"url"`
	Username     string        `mapstructure:"username"`
	NoSSLVerify  bool          `mapstructure:"no_ssl_verify"`
	Replay       string        `mapstructure:"replay"`
	Capture      string        `mapstructure:"capture"`
	ControllerID uint32        `mapstructure:"controller_id"`
	Trace        bool          `mapstructure:"trace"`

	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Poll     PollConfig     `mapstructure:"poll"`
	Discover DiscoverConfig `mapstructure:"discover"`
}

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "")
	v.SetDefault("baud", 19200)
	v.SetDefault("read_timeout", "500ms")
	v.SetDefault("url", "")
	v.SetDefault("username", "")
	v.SetDefault("no_ssl_verify", false)
	v.SetDefault("replay", "")
	v.SetDefault("capture", "")
	v.SetDefault("controller_id", 1234)
	v.SetDefault("trace", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.max_size", 10)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 7)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("poll.interval", "1s")
	v.SetDefault("discover.rounds", 10)
	v.SetDefault("discover.interval", "500ms")
}

// Load reads the config file selected with SetConfigFile (if any), applies
// AURA_* environment overrides and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud must be positive, got %d", c.Baud))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read_timeout must be positive, got %s", c.ReadTimeout))
	}
	if c.ControllerID == 0 {
		errs = append(errs, errors.New("controller_id 0 is reserved for broadcast"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval))
	}
	if c.Discover.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("discover.rounds must be positive, got %d", c.Discover.Rounds))
	}
	if c.Discover.Interval < 0 {
		errs = append(errs, fmt.Errorf("discover.interval must not be negative, got %s", c.Discover.Interval))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}
	if c.Port != "" && c.URL != "" {
		errs = append(errs, errors.New("port and url are mutually exclusive"))
	}
	return errors.Join(errs...)
}
