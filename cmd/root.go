// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/internal/config"
	"github.com/Thermoquad/aurastat/internal/logging"
)

var (
	v       = viper.New()
	cfgFile string

	// populated by PersistentPreRunE
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "aurastat",
	Short: "AURA Bus Client",
	Long: `Aurastat - A CLI tool for polling and configuring devices on an AURA bus.

Discovers sensors, handles and expanders with WHOAMI broadcasts, polls their
status, manages handle access cards, and records or replays bus traffic.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  WebSocket: --url ws://host/path [--username user]
  Replay:    --replay capture.cbor

Settings may also come from a config file (--config) or AURA_* environment
variables, e.g. AURA_PORT=/dev/ttyUSB0.

For WebSocket authentication, the password is read from the AURA_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 19200, "Baud rate (serial only)")
	flags.Duration("read-timeout", 0, "Read timeout that ends a response burst (default 500ms)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Traffic capture
	flags.String("replay", "", "Replay a capture file instead of opening a connection")
	flags.String("capture", "", "Record bus traffic to a capture file")

	flags.Uint32("controller-id", 0, "Source id of outgoing requests (default 1234)")
	flags.Bool("trace", false, "Log every frame and chunk")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")

	bind := map[string]string{
		"port":          "port",
		"baud":          "baud",
		"read_timeout":  "read-timeout",
		"url":           "url",
		"username":      "username",
		"no_ssl_verify": "no-ssl-verify",
		"replay":        "replay",
		"capture":       "capture",
		"controller_id": "controller-id",
		"trace":         "trace",
		"logging.level": "log-level",
		"metrics.addr":  "metrics-addr",
	}
	for key, flag := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// setup loads the configuration and builds the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	c, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Trace {
		c.Logging.Level = "debug"
	}

	l, err := logging.New(c.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	cfg, logger = c, l
	logger.Debug("configuration loaded", zap.String("file", v.ConfigFileUsed()))
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
