package main

import (
	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// loadConfig is swapped in tests.
var loadConfig = config.NewConfig

// NewRootCmd creates the root command for the bizops CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bizops-ctl",
		Short:        "Operate the bizops API",
		Long:         `Operator tooling for the bizops API: password hashing, schema migrations and credential seeding.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateUserCmd())

	return cmd
}
