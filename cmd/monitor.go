// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Thermoquad/aurastat/internal/logging"
	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/device"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring an AURA bus",
	Long: `Monitor AURA devices via an interactive terminal UI.

The monitor discovers devices, then polls their status every poll.interval
and shows:
  - Device list (arrow keys to select)
  - Status of the selected device
  - Bus statistics
  - Event log (discoveries, unknown responders, dropped frames)

Logging to the terminal is suppressed while the TUI runs; configure
logging.file.filename to keep a log.

Supports serial, WebSocket and replay connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// Messages sent from the bus worker to the TUI
type discoveredMsg struct {
	round   int
	created []*device.Device
}

type pollMsg struct {
	unknown []uint32
	err     error
	stats   aura.Statistics
}

type workerDoneMsg struct {
	err error
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Keep the file log only; the TUI owns the terminal.
	tuiLogger, err := logging.NewWithWriter(cfg.Logging, io.Discard)
	if err != nil {
		return err
	}
	defer tuiLogger.Sync()

	s, err := openSession(tuiLogger)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(initialMonitorModel(s.connInfo, s.registry), tea.WithAltScreen())
	done := startMonitorWorker(ctx, s, p.Send)

	_, err = p.Run()

	// The worker must be off the bus before the session closes the stream
	cancel()
	<-done

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startMonitorWorker runs monitorWorker on its own goroutine. The returned
// channel is closed once the worker has stopped.
func startMonitorWorker(ctx context.Context, s *session, send func(tea.Msg)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		monitorWorker(ctx, s, send)
	}()
	return done
}

// monitorWorker runs discovery and the poll loop, reporting to the TUI via
// send. All bus traffic happens on this goroutine.
func monitorWorker(ctx context.Context, s *session, send func(tea.Msg)) {
	err := s.discover(ctx, cfg.Discover.Rounds, cfg.Discover.Interval, func(round int, created []*device.Device) {
		send(discoveredMsg{round: round, created: created})
	})
	if err != nil {
		send(workerDoneMsg{err: err})
		return
	}

	limiter := rate.NewLimiter(rate.Every(cfg.Poll.Interval), 1)
	for i := 0; ; i++ {
		if err := limiter.Wait(ctx); err != nil {
			send(workerDoneMsg{})
			return
		}

		unknown, err := s.pollStatus()
		if err != nil {
			s.log.Warn("status request ended early", zap.Error(err))
		}
		if i%16 == 0 {
			if aerr := s.refreshAccess(4); aerr != nil {
				s.log.Warn("access log refresh failed", zap.Error(aerr))
			}
		}
		send(pollMsg{unknown: unknown, err: err, stats: *s.stats})
	}
}
