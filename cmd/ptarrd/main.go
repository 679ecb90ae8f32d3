// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptarr/ptarr/internal/buildinfo"
)

func main() {
	root := &cobra.Command{
		Use:   "ptarrd",
		Short: "ptarr daemon: private-tracker RSS acquisition orchestrator",
	}

	root.AddCommand(runServeCommand())
	root.AddCommand(runVersionCommand())
	root.AddCommand(runDBCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print(buildinfo.String())
			return nil
		},
	}
}
