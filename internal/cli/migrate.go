package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pg "rosie/internal/adapters/storage/postgres"
)

var ErrNoDSN = errors.New("DB_DSN is required to run migrations")

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Storage.DSN == "" {
				return ErrNoDSN
			}

			db, err := pg.Open(cmd.Context(), cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
