// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/aurastat/pkg/device"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover devices with WHOAMI broadcasts",
	Long: `Send REQ_WHOAMI broadcasts and list every device that answers.

Several devices share the bus, so one broadcast may be answered by many of
them, and a device that misses one round usually answers the next. The
broadcast is therefore repeated (discover.rounds, default 10) with a pause
between rounds (discover.interval, default 500ms).

Examples:
  aurastat discover --port /dev/ttyUSB0
  AURA_DISCOVER_ROUNDS=3 aurastat discover --url ws://bridge.local/aura

Exit codes:
  0 - At least one device found
  1 - No devices answered
  2 - Connection error`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().Int("rounds", 0, "Number of WHOAMI rounds (default 10)")
	if err := v.BindPFlag("discover.rounds", discoverCmd.Flags().Lookup("rounds")); err != nil {
		panic(err)
	}
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	s, err := openSession(nil)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	fmt.Printf("Aurastat - Device Discovery\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Rounds: %d every %s\n\n", cfg.Discover.Rounds, cfg.Discover.Interval)

	err = s.discover(ctx, cfg.Discover.Rounds, cfg.Discover.Interval, func(round int, created []*device.Device) {
		for _, d := range created {
			fmt.Printf("Round %d: found %s 0x%08X\n", round+1, d.Label(), d.UID())
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return withExitCode(exitConnection, err)
	}

	// Summary
	devices := s.registry.Devices()
	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Devices found: %d\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  0x%08X  %s\n", d.UID(), d.Label())
	}
	fmt.Printf("\n%s", s.stats)

	if len(devices) == 0 {
		return withExitCode(exitFailure, fmt.Errorf("no devices discovered, check connection and device power"))
	}
	return nil
}
