package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
)

// Ledger persists collection lines in Postgres. Every mutation runs in a
// single transaction with the affected rows locked, so two concurrent
// mutations on the same key serialize instead of losing an update.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger creates a ledger over the given connection pool.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// AddParams are the fields of an add mutation. Quantity may be negative to
// remove copies.
type AddParams struct {
	UserID    string
	CardID    string
	Finish    string
	Condition string
	Signed    bool
	Altered   bool
	Notes     string
	Quantity  int
}

// AddResult reports what an add actually did: the applied delta and the
// quantity now persisted for the key (0 when the line was deleted or never
// existed).
type AddResult struct {
	Delta    int `json:"delta"`
	NewTotal int `json:"new_total"`
}

// Add merges a quantity delta into the line identified by the full key,
// creating it from a base of zero when absent and deleting it when the new
// total drops to zero or below.
func (l *Ledger) Add(ctx context.Context, p AddParams) (*AddResult, error) {
	if !ValidCondition(p.Condition) {
		return nil, &InvalidConditionError{Condition: p.Condition}
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := l.checkFinish(ctx, tx, p.CardID, p.Finish); err != nil {
		return nil, err
	}

	var lineID int64
	var existing int
	err = tx.QueryRow(ctx, `
		SELECT id, quantity FROM collection_lines
		WHERE user_id = $1 AND card_id = $2 AND finish = $3 AND condition = $4
		  AND signed = $5 AND altered = $6 AND notes = $7
		FOR UPDATE
	`, p.UserID, p.CardID, p.Finish, p.Condition, p.Signed, p.Altered, p.Notes).
		Scan(&lineID, &existing)
	found := true
	if errors.Is(err, pgx.ErrNoRows) {
		found = false
		existing = 0
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up line: %w", err)
	}

	newTotal := existing + p.Quantity

	switch {
	case newTotal <= 0:
		if found {
			if _, err := tx.Exec(ctx, `DELETE FROM collection_lines WHERE id = $1`, lineID); err != nil {
				return nil, fmt.Errorf("failed to delete line: %w", err)
			}
		}
		newTotal = 0
	case found:
		if _, err := tx.Exec(ctx, `
			UPDATE collection_lines SET quantity = $1, updated_at = NOW() WHERE id = $2
		`, newTotal, lineID); err != nil {
			return nil, fmt.Errorf("failed to update line: %w", err)
		}
	default:
		if _, err := tx.Exec(ctx, `
			INSERT INTO collection_lines
				(user_id, card_id, finish, condition, signed, altered, notes, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.UserID, p.CardID, p.Finish, p.Condition, p.Signed, p.Altered, p.Notes, newTotal); err != nil {
			return nil, fmt.Errorf("failed to insert line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &AddResult{Delta: newTotal - existing, NewTotal: newTotal}, nil
}

// RepointResult reports the outcome of a repoint.
type RepointResult struct {
	// Merged is set when the patched key collided with an existing line and
	// the two were merged.
	Merged   bool `json:"merged"`
	Quantity int  `json:"quantity"`
}

// Repoint rewrites the key fields of an existing line. Unspecified patch
// fields keep the target's current values, read inside the same transaction.
// When the patched key matches another existing line the quantities merge
// into that line and the target is deleted; the total owned quantity never
// changes on a repoint.
func (l *Ledger) Repoint(ctx context.Context, userID string, target LineKey, patch Patch) (*RepointResult, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var targetID int64
	var quantity int
	err = tx.QueryRow(ctx, `
		SELECT id, quantity FROM collection_lines
		WHERE user_id = $1 AND card_id = $2 AND finish = $3 AND condition = $4
		  AND signed = $5 AND altered = $6 AND notes = $7
		FOR UPDATE
	`, userID, target.CardID, target.Finish, target.Condition,
		target.Signed, target.Altered, target.Notes).Scan(&targetID, &quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up target line: %w", err)
	}

	next := target
	if patch.Finish != nil {
		next.Finish = *patch.Finish
	}
	if patch.Condition != nil {
		next.Condition = *patch.Condition
	}
	if patch.Signed != nil {
		next.Signed = *patch.Signed
	}
	if patch.Altered != nil {
		next.Altered = *patch.Altered
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	if !ValidCondition(next.Condition) {
		return nil, &InvalidConditionError{Condition: next.Condition}
	}
	if next.Finish != target.Finish {
		if err := l.checkFinish(ctx, tx, target.CardID, next.Finish); err != nil {
			return nil, err
		}
	}

	if next == target {
		return &RepointResult{Quantity: quantity}, tx.Commit(ctx)
	}

	var collidingID int64
	var collidingQty int
	err = tx.QueryRow(ctx, `
		SELECT id, quantity FROM collection_lines
		WHERE user_id = $1 AND card_id = $2 AND finish = $3 AND condition = $4
		  AND signed = $5 AND altered = $6 AND notes = $7
		FOR UPDATE
	`, userID, next.CardID, next.Finish, next.Condition,
		next.Signed, next.Altered, next.Notes).Scan(&collidingID, &collidingQty)

	if err == nil {
		// The patched key already has a line: fold the target into it.
		if _, err := tx.Exec(ctx, `
			UPDATE collection_lines SET quantity = $1, updated_at = NOW() WHERE id = $2
		`, collidingQty+quantity, collidingID); err != nil {
			return nil, fmt.Errorf("failed to merge lines: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM collection_lines WHERE id = $1`, targetID); err != nil {
			return nil, fmt.Errorf("failed to delete merged line: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		return &RepointResult{Merged: true, Quantity: collidingQty + quantity}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for colliding line: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE collection_lines
		SET finish = $1, condition = $2, signed = $3, altered = $4, notes = $5,
		    updated_at = NOW()
		WHERE id = $6
	`, next.Finish, next.Condition, next.Signed, next.Altered, next.Notes, targetID); err != nil {
		return nil, fmt.Errorf("failed to repoint line: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &RepointResult{Quantity: quantity}, nil
}

// checkFinish verifies the card exists and is printed in the given finish.
func (l *Ledger) checkFinish(ctx context.Context, tx pgx.Tx, cardID, finish string) error {
	var finishes []string
	err := tx.QueryRow(ctx, `SELECT finishes FROM catalog_cards WHERE id = $1`, cardID).Scan(&finishes)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load card %s: %w", cardID, err)
	}
	for _, f := range finishes {
		if f == finish {
			return nil
		}
	}
	return &UnsupportedFinishError{CardID: cardID, Finish: finish, Available: finishes}
}

// SearchItem is one entry of a collection search page.
type SearchItem struct {
	ScryfallID string `json:"scryfall_id"`
	Quantity   int    `json:"quantity"`
}

// SearchResult is one page of a collection search.
type SearchResult struct {
	Cards []SearchItem `json:"cards"`
	Total int          `json:"length"`
}

// Search returns a page of owned cards whose name contains the search text,
// with quantities summed across variants of the same printing.
func (l *Ledger) Search(ctx context.Context, userID, text string, page int) (*SearchResult, error) {
	pattern := "%" + catalog.Fold(text) + "%"

	var total int
	err := l.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT cl.card_id)
		FROM collection_lines cl
		JOIN catalog_cards c ON c.id = cl.card_id
		WHERE cl.user_id = $1 AND c.name_folded LIKE $2
	`, userID, pattern).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count collection matches: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT cl.card_id, SUM(cl.quantity)
		FROM collection_lines cl
		JOIN catalog_cards c ON c.id = cl.card_id
		WHERE cl.user_id = $1 AND c.name_folded LIKE $2
		GROUP BY cl.card_id, c.name
		ORDER BY c.name, cl.card_id
		LIMIT $3 OFFSET $4
	`, userID, pattern, PageSize, page*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}
	defer rows.Close()

	result := &SearchResult{Cards: []SearchItem{}, Total: total}
	for rows.Next() {
		var item SearchItem
		if err := rows.Scan(&item.ScryfallID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		result.Cards = append(result.Cards, item)
	}
	return result, rows.Err()
}
