// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/device"
)

var (
	handleUID    string
	handleOffset uint8
	handleCount  uint8
)

var handleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Manage access cards on a handle",
	Long: `Read and change the card list and access log of an access-control handle.

The handle is addressed directly with --uid (decimal or 0x hex); no discovery
round is needed.

Examples:
  aurastat handle cards  --uid 0x1A2B --offset 0 --count 4
  aurastat handle access --uid 0x1A2B
  aurastat handle write  --uid 0x1A2B 04A2197F00000001 04:A2:19:80:00:00:00:02
  aurastat handle clear  --uid 0x1A2B`,
}

var handleCardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Read a page of provisioned card ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHandle(func(e *aura.Engine, uid uint32) ([]*aura.Frame, error) {
			return device.ReadSavedCards(e, uid, handleOffset, handleCount)
		})
	},
}

var handleAccessCmd = &cobra.Command{
	Use:   "access",
	Short: "Read a page of the access log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHandle(func(e *aura.Engine, uid uint32) ([]*aura.Frame, error) {
			return device.ReadAccessLog(e, uid, handleOffset, handleCount)
		})
	},
}

var handleWriteCmd = &cobra.Command{
	Use:   "write CARD...",
	Short: "Provision card ids (16 hex digits each)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cards := make([]aura.CardUID, 0, len(args))
		for _, arg := range args {
			card, err := aura.ParseCardUID(arg)
			if err != nil {
				return err
			}
			cards = append(cards, card)
		}
		return runHandle(func(e *aura.Engine, uid uint32) ([]*aura.Frame, error) {
			return device.WriteCards(e, uid, cards)
		})
	},
}

var handleClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every provisioned card",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHandle(func(e *aura.Engine, uid uint32) ([]*aura.Frame, error) {
			return device.ClearCards(e, uid)
		})
	},
}

func init() {
	rootCmd.AddCommand(handleCmd)
	handleCmd.PersistentFlags().StringVar(&handleUID, "uid", "", "Handle uid (decimal or 0x hex)")
	handleCmd.PersistentFlags().Uint8Var(&handleOffset, "offset", 0, "First record of the page")
	handleCmd.PersistentFlags().Uint8Var(&handleCount, "count", 4, "Records per page")
	if err := handleCmd.MarkPersistentFlagRequired("uid"); err != nil {
		panic(err)
	}

	handleCmd.AddCommand(handleCardsCmd, handleAccessCmd, handleWriteCmd, handleClearCmd)
}

func parseUID(s string) (uint32, error) {
	uid, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid uid %q: %w", s, err)
	}
	if uid == 0 {
		return 0, fmt.Errorf("uid 0 is the broadcast address")
	}
	return uint32(uid), nil
}

func runHandle(request func(e *aura.Engine, uid uint32) ([]*aura.Frame, error)) error {
	uid, err := parseUID(handleUID)
	if err != nil {
		return err
	}

	s, err := openSession(nil)
	if err != nil {
		return withExitCode(exitConnection, err)
	}
	defer s.Close()

	h := device.New(uid, uint8(device.TypeHandle))
	s.registry.Add(h)

	frames, err := request(s.engine, uid)
	if err != nil {
		logger.Warn("handle request ended early", zap.Error(err))
	}
	if len(frames) == 0 {
		return withExitCode(exitFailure, fmt.Errorf("handle 0x%08X did not answer", uid))
	}

	for _, f := range frames {
		if f.SourceID != uid {
			logger.Warn("answer from another device", zap.Uint32("uid", f.SourceID))
			continue
		}
		chunks, err := f.Chunks()
		if err != nil {
			logger.Warn("payload partially decoded", zap.Error(err))
		}
		fmt.Printf("%s from 0x%08X:\n", f.Function, f.SourceID)
		for _, c := range chunks {
			fmt.Printf("  %s\n", aura.FormatChunk(c))
		}
	}

	s.registry.ApplyReadData(frames)
	fmt.Printf("\n%s\n", h)
	return nil
}
