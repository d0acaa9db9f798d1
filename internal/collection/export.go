package collection

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"Name", "Set", "Collector Number", "Language",
	"Finish", "Condition", "Signed", "Altered", "Notes", "Quantity",
}

// ExportXLSX writes a user's full collection as a spreadsheet, one row per
// ledger line, joined with the catalog for display fields.
func (l *Ledger) ExportXLSX(ctx context.Context, userID string, w io.Writer) error {
	rows, err := l.pool.Query(ctx, `
		SELECT c.name, c.set_code, c.collector_number, c.lang,
		       cl.finish, cl.condition, cl.signed, cl.altered, cl.notes, cl.quantity
		FROM collection_lines cl
		JOIN catalog_cards c ON c.id = cl.card_id
		WHERE cl.user_id = $1
		ORDER BY c.name, c.set_code, c.collector_number, cl.finish
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to query collection: %w", err)
	}
	defer rows.Close()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Collection"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	rowNum := 2
	for rows.Next() {
		var name, setCode, collectorNumber, lang, finish, condition, notes string
		var signed, altered bool
		var quantity int
		if err := rows.Scan(&name, &setCode, &collectorNumber, &lang,
			&finish, &condition, &signed, &altered, &notes, &quantity); err != nil {
			return fmt.Errorf("failed to scan collection row: %w", err)
		}

		values := []any{name, setCode, collectorNumber, lang, finish, condition, signed, altered, notes, quantity}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
		}
		rowNum++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
