// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/device"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Discover devices and print one status snapshot",
	Long: `Discover devices, send a single REQ_STATUS broadcast and print the
status reported by every device.

Responses from devices that were not discovered are listed separately.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(nil)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer s.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := s.discover(ctx, cfg.Discover.Rounds, cfg.Discover.Interval, nil); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return withExitCode(exitConnection, err)
	}
	if s.registry.Len() == 0 {
		return withExitCode(exitFailure, fmt.Errorf("no devices discovered"))
	}

	unknown, err := s.pollStatus()
	if err != nil {
		logger.Warn("status request ended early", zap.Error(err))
	}
	printDevices(s.registry.Devices())
	for _, uid := range unknown {
		fmt.Printf("Unknown uid src: 0x%08X\n", uid)
	}
	return nil
}

// printDevices writes one block per device
func printDevices(devices []*device.Device) {
	for _, d := range devices {
		fmt.Printf("%s 0x%08X:\n", d.Label(), d.UID())
		if d.Updated().IsZero() {
			fmt.Printf("  (no status)\n")
			continue
		}
		fmt.Printf("  %s\n", d.Status())
	}
}
