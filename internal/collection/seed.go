package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/reconcile"
)

// SeedCondition is the condition assigned to every imported line. The export
// source carries no condition data, so imports default to near mint and get
// corrected by hand afterwards.
const SeedCondition = "NM"

// seedNotes encodes the printing markers the ledger key has no column for, so
// a promo-pack copy and a regular copy of the same printing stay distinct
// lines.
func seedNotes(rec reconcile.Record) string {
	var markers []string
	if rec.TheList {
		markers = append(markers, "the-list")
	}
	if rec.PromoPack {
		markers = append(markers, "promo-pack")
	}
	if rec.Prerelease {
		markers = append(markers, "prerelease")
	}
	return strings.Join(markers, ",")
}

func seedFinish(rec reconcile.Record) string {
	if rec.Foil {
		return "foil"
	}
	return "nonfoil"
}

// Seed loads reconciled records as the initial state of a user's ledger.
// Rerunning a seed with the same records adds the quantities again; seeding
// is intended as a one-shot migration step against an empty collection.
func (l *Ledger) Seed(ctx context.Context, userID string, records []reconcile.Record) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO collection_lines
				(user_id, card_id, finish, condition, signed, altered, notes, quantity)
			VALUES ($1, $2, $3, $4, false, false, $5, $6)
			ON CONFLICT (user_id, card_id, finish, condition, signed, altered, notes)
			DO UPDATE SET
				quantity = collection_lines.quantity + EXCLUDED.quantity,
				updated_at = NOW()
		`, userID, rec.ScryfallID, seedFinish(rec), SeedCondition, seedNotes(rec), rec.Quantity)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to seed collection: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return len(records), nil
}
