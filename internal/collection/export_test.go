package collection

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	if _, err := ledger.Add(ctx, AddParams{
		UserID: userID, CardID: cards["Shock"],
		Finish: "foil", Condition: "LP", Notes: "binder", Quantity: 3,
	}); err != nil {
		t.Fatalf("Add fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := ledger.ExportXLSX(ctx, userID, &buf); err != nil {
		t.Fatalf("ExportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Collection")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header plus one line", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][9] != "Quantity" {
		t.Errorf("header = %v, want Name..Quantity", rows[0])
	}
	if rows[1][0] != "Shock" || rows[1][4] != "foil" || rows[1][5] != "LP" ||
		rows[1][8] != "binder" || rows[1][9] != "3" {
		t.Errorf("row = %v, want the Shock line", rows[1])
	}
}
