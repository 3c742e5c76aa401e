// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/capture"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log [CAPTURE]",
	Short: "Display raw frame log in human-readable format",
	Long: `Decode and display AURA frames with their header fields and chunks.

With a CAPTURE argument, the frames recorded in a capture file (see
--capture) are printed with their direction and time. Without it, the
connection is monitored passively and every frame on the bus is printed as
it arrives, including requests from other controllers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return printCapture(args[0], os.Stdout)
	}
	if cfg.Replay != "" {
		return printCapture(cfg.Replay, os.Stdout)
	}

	// Open connection (serial, WebSocket or replay)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer conn.Close()

	fmt.Printf("Aurastat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	decoder := aura.NewDecoder()
	buf := make([]byte, 256)

	for ctx.Err() == nil {
		n, err := conn.Read(buf)
		if err != nil {
			// A closed WebSocket or finished file does not come back
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				logger.Info("connection closed")
				return nil
			}
			logger.Warn("read error", zap.Error(err))
			continue
		}
		printDecoded(os.Stdout, decoder, buf[:n])
	}
	return nil
}

func printDecoded(w io.Writer, decoder *aura.Decoder, data []byte) {
	frames, errs := decoder.Feed(data)
	for _, err := range errs {
		fmt.Fprintf(w, "[ERROR] %v\n", err)
	}
	for _, f := range frames {
		fmt.Fprint(w, aura.FormatFrame(f))
	}
}

// printCapture formats every frame in a capture file. TX and RX streams are
// decoded separately so that a request never splices into a response.
func printCapture(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	decoders := map[capture.Direction]*aura.Decoder{
		capture.TX: aura.NewDecoder(),
		capture.RX: aura.NewDecoder(),
	}

	reader := capture.NewReader(f)
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		decoder, ok := decoders[rec.Direction]
		if !ok {
			continue
		}

		frames, errs := decoder.Feed(rec.Data)
		for _, err := range errs {
			fmt.Fprintf(w, "%s %s [ERROR] %v\n", rec.Time.Format("15:04:05.000"), rec.Direction, err)
		}
		for _, frame := range frames {
			frame.Timestamp = rec.Time
			fmt.Fprintf(w, "%s %s", rec.Direction, aura.FormatFrame(frame))
		}
	}
}
