// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

var scanAll bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find serial ports with an AURA bus attached",
	Long: `Enumerate serial ports and probe each one with a REQ_WHOAMI broadcast.

A port is reported as an AURA bus when at least one valid frame comes back
before the read timeout. Each probe opens and closes the port, so ports in
use by other programs are reported as unavailable.

Exit codes:
  0 - At least one AURA bus found
  1 - No port answered
  2 - Ports could not be enumerated`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Probe every port, not only USB serial adapters")
}

func runScan(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return withExitCode(exitConnection, fmt.Errorf("failed to enumerate serial ports: %w", err))
	}

	fmt.Printf("Aurastat - Port Scan\n")
	fmt.Printf("Baud: %d, read timeout: %s\n\n", cfg.Baud, cfg.ReadTimeout)

	found := 0
	for _, p := range ports {
		if !p.IsUSB && !scanAll {
			continue
		}

		desc := p.Name
		if p.IsUSB {
			desc = fmt.Sprintf("%s [%s:%s %s]", p.Name, p.VID, p.PID, p.Product)
		}

		frames, err := probePort(p.Name)
		switch {
		case err != nil:
			fmt.Printf("  %-40s unavailable (%v)\n", desc, err)
		case len(frames) == 0:
			fmt.Printf("  %-40s no answer\n", desc)
		default:
			found++
			fmt.Printf("  %-40s AURA bus, %d device(s) answered\n", desc, len(frames))
		}
	}

	if found == 0 {
		return withExitCode(exitFailure, fmt.Errorf("no AURA bus found on %d port(s)", len(ports)))
	}
	return nil
}

// probePort opens name for a single whoami transaction
func probePort(name string) ([]*aura.Frame, error) {
	link := aura.LinkFunc(func() (aura.Stream, error) {
		return OpenSerialConnection(name, cfg.Baud, cfg.ReadTimeout)
	})
	engine := aura.NewEngine(link,
		aura.WithControllerID(cfg.ControllerID),
		aura.WithLogger(logger.Named("scan").With(zap.String("port", name))))
	return engine.RequestWhoami()
}
