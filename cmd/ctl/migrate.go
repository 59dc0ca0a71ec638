package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/bizops/internal/shared/database"
)

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// openMigrator is swapped in tests.
var openMigrator = func(databaseURL string) (migrator, error) {
	return database.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply, roll back or inspect the embedded schema migrations against DATABASE_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return printVersion(cmd, m)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(printVersion),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
		}

		m, err := openMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				cmd.PrintErrln("close migrator:", err)
			}
		}()
		return run(cmd, m)
	}
}

func printVersion(cmd *cobra.Command, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("version %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("version %d\n", version)
	return nil
}
