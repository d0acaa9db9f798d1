package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/reconcile"
)

var (
	importOutput      string
	importExpectTotal int
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <export-file> <all-cards.json> <default-cards.json>",
	Short: "Reconcile a TappedOut export against Scryfall bulk data",
	Long: `Parse a TappedOut text export and resolve every line to exactly one Scryfall
printing using the "all cards" and "default cards" bulk data files. The result
is written as a pipe-delimited flat file consumed by the seed command.

Any line that cannot be resolved to exactly one printing fails the whole run,
so a successful import accounts for every card in the export.`,
	Example: `  collection-tracker import cards.txt all-cards.json default-cards.json
  collection-tracker import cards.txt all-cards.json default-cards.json -o collection.csv --expect-total 5441`,
	Args: cobra.ExactArgs(3),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output file (defaults to stdout)")
	importCmd.Flags().IntVar(&importExpectTotal, "expect-total", 0, "Fail unless the reconciled quantity sums to exactly this many cards")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	exportPath, allPath, defaultPath := args[0], args[1], args[2]

	logger.Info().Str("all", allPath).Str("default", defaultPath).Msg("Loading bulk data")
	snapshot, err := catalog.LoadSnapshot(ctx, allPath, defaultPath)
	if err != nil {
		return fmt.Errorf("failed to load bulk data: %w", err)
	}
	logger.Info().Int("sets", snapshot.SetCount()).Msg("Bulk data loaded")

	exportFile, err := os.Open(exportPath)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer exportFile.Close()

	lines, err := reconcile.ParseExport(exportFile)
	if err != nil {
		return fmt.Errorf("failed to parse export: %w", err)
	}
	logger.Info().Int("lines", len(lines)).Msg("Export parsed")

	result, err := reconcile.New(snapshot, nil).Reconcile(lines)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	for _, w := range result.Warnings {
		logger.Warn().
			Str("kind", w.Kind).
			Str("name", w.Name).
			Str("set", w.SetCode).
			Str("collector_number", w.CollectorNumber).
			Msg(w.Message)
	}

	if cmd.Flags().Changed("expect-total") {
		if err := result.CheckExpectedTotal(importExpectTotal); err != nil {
			return err
		}
	}

	out := os.Stdout
	if importOutput != "" {
		out, err = os.Create(importOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}
	if err := reconcile.WriteRecords(out, result.Records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	logger.Info().
		Int("records", len(result.Records)).
		Int("cards", result.TotalQuantity).
		Int("warnings", len(result.Warnings)).
		Msg("Import complete")
	return nil
}
