// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/infinitejoke/accounts/internal/config"
	"github.com/infinitejoke/accounts/internal/store"
	"github.com/infinitejoke/accounts/internal/xdg"
)

// Migrator wraps the methods the migrate commands use from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// MigratorFactory opens a Migrator for a database URL.
type MigratorFactory func(databaseURL string) (Migrator, error)

func defaultMigratorFactory(databaseURL string) (Migrator, error) {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(defaultMigratorFactory)
}

func newMigrateCmd(factory MigratorFactory) *cobra.Command {
	var databaseURL string

	withMigrator := func(cmd *cobra.Command, fn func(Migrator) error) error {
		url, err := getDatabaseURL(databaseURL)
		if err != nil {
			return err
		}
		m, err := factory(url)
		if err != nil {
			return oops.With("operation", "create migrator").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrln("warning: closing migrator:", closeErr)
			}
		}()
		return fn(m)
	}

	runUp := func(cmd *cobra.Command, _ []string) error {
		return withMigrator(cmd, func(m Migrator) error {
			cmd.Println("Running migrations...")
			if err := m.Up(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		})
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the PostgreSQL schema. With no subcommand, all pending
migrations are applied.`,
		Args: cobra.NoArgs,
		RunE: runUp,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (overrides config and DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runUp,
	})

	var confirmed bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Long:  `Roll back every migration. This drops the users table and every account in it.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("down drops all accounts; pass --yes to confirm")
			}
			return withMigrator(cmd, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back when N is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseSteps(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m Migrator) error {
				if err := m.Steps(n); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "step migrations").Wrap(err)
				}
				cmd.Printf("Moved %d step(s)\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long: `Mark VERSION as the current schema version and clear the dirty flag
without running any migration. Use it after repairing a failed migration
by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "status",
		Aliases: []string{"version"},
		Short:   "Show the schema version and pending migrations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				st, err := m.Status()
				if err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "read status").Wrap(err)
				}
				printStatus(cmd, st)
				return nil
			})
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, st store.Status) {
	cmd.Printf("Version: %d\n", st.Version)
	if st.Dirty {
		cmd.Println("Dirty: true (repair the schema, then run 'migrate force VERSION')")
	} else {
		cmd.Println("Dirty: false")
	}
	cmd.Printf("Applied: %s\n", migrationList(st.Applied))
	cmd.Printf("Pending: %s\n", migrationList(st.Pending))
}

func migrationList(versions []uint) string {
	if len(versions) == 0 {
		return "none"
	}
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = fmt.Sprintf("%06d", v)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// getDatabaseURL resolves the database URL. An explicit flag value wins
// over the config file and DATABASE_URL.
func getDatabaseURL(flagValue string) (string, error) {
	path, err := xdg.ResolveConfigFile(configFile)
	if err != nil {
		return "", err //nolint:wrapcheck // already coded by xdg
	}
	cfg, err := config.Load(path, nil)
	if err != nil {
		return "", err //nolint:wrapcheck // already coded by config
	}
	if flagValue != "" {
		cfg.DatabaseURL = flagValue
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return "", err //nolint:wrapcheck // already coded by config
	}
	return cfg.DatabaseURL, nil
}

// parseForceVersion reads a version number. Sscanf stops at the first
// non-digit, so "3abc" is 3.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(s, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer, got %q", s)
	}
	return version, nil
}

func parseSteps(s string) (int, error) {
	n, err := parseForceVersion(s)
	if err != nil {
		return 0, oops.Code("INVALID_STEPS").With("input", s).Errorf("steps must be an integer, got %q", s)
	}
	if n == 0 {
		return 0, oops.Code("INVALID_STEPS").Errorf("steps must not be zero")
	}
	return n, nil
}
