package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/collection"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/database"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/reconcile"
)

var seedUser string

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed <records.csv>",
	Short: "Seed a user's collection from a reconciled import file",
	Long: `Load the pipe-delimited records produced by the import command into a user's
collection. Quantities fold into any lines the user already owns, so this is
meant as a one-shot migration step against an empty collection: seeding the
same file twice doubles every quantity in it.`,
	Example: `  collection-tracker seed collection.csv --user alice`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedUser, "user", "", "Username whose collection receives the records")
	seedCmd.MarkFlagRequired("user")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	records, err := reconcile.ReadRecords(file)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	var userID string
	err = database.Pool().QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, seedUser).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("no such user: %s", seedUser)
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	ledger := collection.NewLedger(database.Pool())
	seeded, err := ledger.Seed(ctx, userID, records)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	logger.Info().
		Str("user", seedUser).
		Int("lines", seeded).
		Msg("Collection seeded")
	return nil
}
