package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/config"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/database"
)

// loadCatalogCmd represents the load-catalog command
var loadCatalogCmd = &cobra.Command{
	Use:   "load-catalog <all-cards.json> <default-cards.json>",
	Short: "Load Scryfall bulk data into the card database",
	Long: `Stream the "all cards" bulk data file into the card database, then mark the
printings present in the "default cards" file as the default language for
their collector number and set. Existing rows are updated in place, so
reloading a newer bulk export refreshes the database without dropping it.`,
	Example: `  collection-tracker load-catalog all-cards.json default-cards.json`,
	Args:    cobra.ExactArgs(2),
	RunE:    runLoadCatalog,
}

func init() {
	rootCmd.AddCommand(loadCatalogCmd)
}

func runLoadCatalog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	allPath, defaultPath := args[0], args[1]

	if err := database.Migrate(config.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := catalog.NewStore(database.Pool())

	logger.Info().Str("file", allPath).Msg("Loading all cards")
	loaded, err := store.LoadBulk(ctx, allPath, false)
	if err != nil {
		return fmt.Errorf("failed to load all cards: %w", err)
	}
	logger.Info().Int("cards", loaded).Msg("All cards loaded")

	logger.Info().Str("file", defaultPath).Msg("Marking default languages")
	marked, err := store.LoadBulk(ctx, defaultPath, true)
	if err != nil {
		return fmt.Errorf("failed to mark default languages: %w", err)
	}
	logger.Info().Int("cards", marked).Msg("Default languages marked")

	return nil
}
