package main

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/bizops/internal/components/auth"
	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// NewCreateUserCmd creates the create-user subcommand.
func NewCreateUserCmd() *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create a credential and grant it roles",
		Long: `Create a credential with the same validation and hashing rules as sign-up, then grant
the given roles. Everything happens in one transaction.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
			}

			creds, err := validateCredentials(args[0], args[1])
			if err != nil {
				return err
			}

			cred, err := createUser(cmd.Context(), cfg, creds, roles)
			if err != nil {
				return err
			}
			cmd.Printf("created %s (%s) roles=%v\n", cred.Username, cred.ID, roles)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "role id to grant (repeatable)")
	return cmd
}

func validateCredentials(username, password string) (auth.Credentials, error) {
	v, err := auth.NewValidator()
	if err != nil {
		return auth.Credentials{}, err
	}
	raw, err := json.Marshal(auth.Credentials{Username: username, Password: password})
	if err != nil {
		return auth.Credentials{}, err
	}
	creds, err := v.Credentials(raw)
	if err != nil {
		return auth.Credentials{}, oops.Code("CREDENTIALS_INVALID").Wrap(err)
	}
	return creds, nil
}

func createUser(ctx context.Context, cfg *config.Config, creds auth.Credentials, roles []string) (*auth.Credential, error) {
	hash, err := auth.NewBcryptHasher(cfg).Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, oops.Code("DB_TX_FAILED").Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	store := auth.NewStore(tx)
	cred, err := store.Create(ctx, creds.Username, hash)
	if err != nil {
		return nil, err
	}
	if err := store.AssignRoles(ctx, cred.ID, roles); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("DB_TX_FAILED").Wrap(err)
	}
	return cred, nil
}
