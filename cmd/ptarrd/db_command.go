// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/ptarr/ptarr/internal/config"
	"github.com/ptarr/ptarr/internal/store"
)

// runDBCommand groups offline database maintenance operations. Unlike
// the teacher's db command (a one-shot SQLite-to-Postgres migration,
// since qui supports both backends), this daemon only ever runs
// against sqlite, so the migrate subcommand here just applies the
// idempotent schema and prints the database path rather than crossing
// engines.
func runDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance operations",
	}

	cmd.AddCommand(runDBMigrateCommand())
	cmd.AddCommand(runDBVacuumCommand())
	return cmd
}

func runDBMigrateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema, creating the file if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.PT.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			cmd.Printf("schema applied: %s\n", cfg.PT.DatabasePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to ptarr.toml (defaults to ./ptarr.toml)")
	return cmd
}

func runDBVacuumCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim disk space after heavy RSS history churn",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.PT.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.Conn().ExecContext(cmd.Context(), "VACUUM"); err != nil {
				return err
			}
			cmd.Println("vacuum complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to ptarr.toml (defaults to ./ptarr.toml)")
	return cmd
}
