package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/config"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	if err := database.Migrate(dbURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info().Msg("Migrations applied")
	return nil
}
