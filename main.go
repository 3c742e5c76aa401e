// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Aurastat - AURA Bus Client
//
// A CLI tool for discovering, polling and configuring devices on an AURA
// serial bus.

package main

import (
	"os"

	"github.com/Thermoquad/aurastat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
