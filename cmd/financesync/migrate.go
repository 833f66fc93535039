package main

import (
	"log/slog"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup as well, so this is only needed
to prepare a database ahead of time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			slog.Info("Running database migrations", "database", settings.Database.Path)
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cmd.Println(cli.FormatSuccess("Database migrations completed"))
			return nil
		},
	}
}
