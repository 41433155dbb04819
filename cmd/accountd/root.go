// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the accountd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accountd",
		Short: "accountd - user accounts over HTTP",
		Long: `accountd registers users, keeps them logged in with cookie sessions,
and resets forgotten passwords by email. Users are stored in PostgreSQL;
sessions and reset tokens are stored in Redis.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
