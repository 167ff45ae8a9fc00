package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/content_auth/internal/config"
	"github.com/Skotchmaster/content_auth/internal/db"
	"github.com/Skotchmaster/content_auth/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users, otps and refresh_tokens tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		l := logging.New(cfg.LogLevel)
		ctx := logging.IntoContext(cmd.Context(), l)

		gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(ctx, gdb); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		l.Info("migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
