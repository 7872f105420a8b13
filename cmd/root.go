// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package cmd

import (
	"os"

	"github.com/snowfork/root-relayer/cmd/run"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "root-relay",
	Short:        "Root relay delivers aggregated spoke roots to their hub connectors",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(processPendingCmd())
	rootCmd.AddCommand(encodeCallCmd())
	rootCmd.AddCommand(markProcessedCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
