package main

import (
	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/bizops/internal/components/auth"
)

// NewHashCmd creates the hash subcommand.
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt hash of a password at HASH_COST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			hash, err := auth.NewBcryptHasher(cfg).Hash(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}
