package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"dndbuilder/internal/config"
	"dndbuilder/internal/database"
	"dndbuilder/internal/logger"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(cfg *config.Config, db *sql.DB) error {
			if migrateStatus {
				current, pending, err := database.Version(cmd.Context(), db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d, %d pending\n", current, pending)
				return nil
			}
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.L().Info("migrations applied")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate and insert the development admin account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(cfg *config.Config, db *sql.DB) error {
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			return database.Seed(db)
		})
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print the schema version instead of migrating")
}

func withDB(ctx context.Context, fn func(*config.Config, *sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(ctx, cfg.DSN(), database.DefaultPool)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}
