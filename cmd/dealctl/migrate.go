package main

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"fareglitch/internal/config"
	"fareglitch/pkg/dbtest"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate path...",
		Short: "Apply SQL migration files in order (directories expand to their *.sql files)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config.Load: %w", err)
			}

			db, err := sqlx.ConnectContext(cmd.Context(), "pgx", cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("sqlx.ConnectContext: %w", err)
			}
			defer db.Close()

			applied, err := dbtest.Migrate(cmd.Context(), db, args...)
			for _, file := range applied {
				fmt.Println("applied", file)
			}

			return err
		},
	}
}
