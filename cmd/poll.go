// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	pollCount       int
	pollAccessEvery int
	pollAccessCount uint8
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll device status continuously",
	Long: `Discover devices, then broadcast REQ_STATUS every poll.interval
(default 1s) and print each device's status as it is reported.

Handles additionally get their access log refreshed every --access-every
polls. With --metrics-addr, readings and bus counters are exported to
Prometheus.

Press Ctrl+C to stop; statistics are printed on exit.`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().IntVarP(&pollCount, "count", "n", 0, "Number of polls (0 = until interrupted)")
	pollCmd.Flags().IntVar(&pollAccessEvery, "access-every", 16, "Refresh handle access logs every N polls (0 disables)")
	pollCmd.Flags().Uint8Var(&pollAccessCount, "access-count", 4, "Access records read per refresh")
	pollCmd.Flags().Duration("interval", 0, "Poll interval (default 1s)")
	if err := v.BindPFlag("poll.interval", pollCmd.Flags().Lookup("interval")); err != nil {
		panic(err)
	}
}

func runPoll(cmd *cobra.Command, args []string) error {
	s, err := openSession(nil)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	fmt.Printf("Aurastat - Status Poll\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Interval: %s\n", cfg.Poll.Interval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := s.discover(ctx, cfg.Discover.Rounds, cfg.Discover.Interval, nil); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return withExitCode(exitConnection, err)
	}
	for _, d := range s.registry.Devices() {
		fmt.Printf("%s 0x%08X\n", d.Label(), d.UID())
	}
	fmt.Println()

	// One request per interval; the bus is shared by every device.
	limiter := rate.NewLimiter(rate.Every(cfg.Poll.Interval), 1)

	for i := 0; pollCount == 0 || i < pollCount; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		unknown, err := s.pollStatus()
		if err != nil {
			logger.Warn("status request ended early", zap.Error(err))
		}

		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		printDevices(s.registry.Devices())
		for _, uid := range unknown {
			fmt.Printf("Unknown uid src: 0x%08X\n", uid)
		}
		fmt.Println()

		if pollAccessEvery > 0 && i%pollAccessEvery == 0 {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
			if err := s.refreshAccess(pollAccessCount); err != nil {
				logger.Warn("access log refresh failed", zap.Error(err))
			}
		}
	}

	fmt.Printf("\n%s", s.stats)
	return nil
}
