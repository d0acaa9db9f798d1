package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/database"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/reconcile"
)

// setupTestDB starts a disposable Postgres container, runs the migrations and
// returns a connected pool.
func setupTestDB(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { testcontainers.TerminateContainer(container) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	require.NoError(t, database.Migrate(connString), "Failed to run migrations")

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to create connection pool")
	t.Cleanup(pool.Close)

	return pool
}

// testFixtures inserts one user and a small catalog, returning the user id
// and the card ids keyed by name.
func testFixtures(ctx context.Context, t testing.TB, pool *pgxpool.Pool) (string, map[string]string) {
	t.Helper()

	userID := uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash) VALUES ($1, 'tester', 'x')
	`, userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	cards := map[string]string{}
	for _, c := range []struct {
		name     string
		set      string
		cn       string
		finishes []string
	}{
		{"Lightning Bolt", "lea", "161", []string{"nonfoil"}},
		{"Robo-Piñata", "unf", "99", []string{"nonfoil", "foil"}},
		{"Shock", "m21", "159", []string{"nonfoil", "foil"}},
	} {
		id := uuid.NewString()
		cards[c.name] = id
		if _, err := pool.Exec(ctx, `
			INSERT INTO catalog_cards
				(id, name, name_folded, set_code, collector_number, lang, default_lang, finishes)
			VALUES ($1, $2, $3, $4, $5, 'en', true, $6)
		`, id, c.name, catalog.Fold(c.name), c.set, c.cn, c.finishes); err != nil {
			t.Fatalf("insert card %s: %v", c.name, err)
		}
	}
	return userID, cards
}

func TestLedgerAdd(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	base := AddParams{
		UserID:    userID,
		CardID:    cards["Lightning Bolt"],
		Finish:    "nonfoil",
		Condition: "NM",
	}

	add := func(qty int) *AddResult {
		t.Helper()
		p := base
		p.Quantity = qty
		res, err := ledger.Add(ctx, p)
		if err != nil {
			t.Fatalf("Add(%d) returned error: %v", qty, err)
		}
		return res
	}

	if res := add(3); res.Delta != 3 || res.NewTotal != 3 {
		t.Errorf("first add = %+v, want delta 3 total 3", res)
	}
	if res := add(2); res.Delta != 2 || res.NewTotal != 5 {
		t.Errorf("second add = %+v, want delta 2 total 5", res)
	}

	// Removing more than owned clamps at zero and deletes the line.
	if res := add(-7); res.Delta != -5 || res.NewTotal != 0 {
		t.Errorf("remove = %+v, want delta -5 total 0", res)
	}
	var count int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM collection_lines WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if count != 0 {
		t.Errorf("line count after removal = %d, want 0", count)
	}

	// Removing from an absent line is a no-op.
	if res := add(-1); res.Delta != 0 || res.NewTotal != 0 {
		t.Errorf("remove from absent = %+v, want delta 0 total 0", res)
	}
}

func TestLedgerAddRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	_, err := ledger.Add(ctx, AddParams{
		UserID: userID, CardID: cards["Lightning Bolt"],
		Finish: "foil", Condition: "NM", Quantity: 1,
	})
	var finishErr *UnsupportedFinishError
	if !errors.As(err, &finishErr) {
		t.Errorf("foil Lightning Bolt error = %v, want *UnsupportedFinishError", err)
	}

	_, err = ledger.Add(ctx, AddParams{
		UserID: userID, CardID: uuid.NewString(),
		Finish: "nonfoil", Condition: "NM", Quantity: 1,
	})
	if !errors.Is(err, ErrCardNotFound) {
		t.Errorf("unknown card error = %v, want ErrCardNotFound", err)
	}

	_, err = ledger.Add(ctx, AddParams{
		UserID: userID, CardID: cards["Lightning Bolt"],
		Finish: "nonfoil", Condition: "Mint", Quantity: 1,
	})
	var condErr *InvalidConditionError
	if !errors.As(err, &condErr) {
		t.Errorf("bad condition error = %v, want *InvalidConditionError", err)
	}

	// None of the rejected adds may leave a row behind.
	var count int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM collection_lines WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if count != 0 {
		t.Errorf("line count after rejected adds = %d, want 0", count)
	}
}

func TestLedgerRepoint(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	shock := cards["Shock"]
	mustAdd := func(finish, condition string, qty int) {
		t.Helper()
		if _, err := ledger.Add(ctx, AddParams{
			UserID: userID, CardID: shock,
			Finish: finish, Condition: condition, Quantity: qty,
		}); err != nil {
			t.Fatalf("Add fixture: %v", err)
		}
	}

	strPtr := func(s string) *string { return &s }

	t.Run("move to a fresh key", func(t *testing.T) {
		mustAdd("nonfoil", "NM", 4)
		res, err := ledger.Repoint(ctx, userID,
			LineKey{CardID: shock, Finish: "nonfoil", Condition: "NM"},
			Patch{Condition: strPtr("LP")},
		)
		if err != nil {
			t.Fatalf("Repoint returned error: %v", err)
		}
		if res.Merged || res.Quantity != 4 {
			t.Errorf("result = %+v, want unmerged quantity 4", res)
		}
	})

	t.Run("merge into a colliding key", func(t *testing.T) {
		mustAdd("foil", "LP", 2)
		res, err := ledger.Repoint(ctx, userID,
			LineKey{CardID: shock, Finish: "foil", Condition: "LP"},
			Patch{Finish: strPtr("nonfoil")},
		)
		if err != nil {
			t.Fatalf("Repoint returned error: %v", err)
		}
		if !res.Merged || res.Quantity != 6 {
			t.Errorf("result = %+v, want merged quantity 6", res)
		}

		var count int
		if err := pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM collection_lines WHERE user_id = $1 AND card_id = $2
		`, userID, shock).Scan(&count); err != nil {
			t.Fatalf("count lines: %v", err)
		}
		if count != 1 {
			t.Errorf("line count after merge = %d, want 1", count)
		}
	})

	t.Run("no-op patch", func(t *testing.T) {
		res, err := ledger.Repoint(ctx, userID,
			LineKey{CardID: shock, Finish: "nonfoil", Condition: "LP"},
			Patch{},
		)
		if err != nil {
			t.Fatalf("Repoint returned error: %v", err)
		}
		if res.Merged || res.Quantity != 6 {
			t.Errorf("result = %+v, want unmerged quantity 6", res)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := ledger.Repoint(ctx, userID,
			LineKey{CardID: shock, Finish: "nonfoil", Condition: "DMG"},
			Patch{Condition: strPtr("NM")},
		)
		if !errors.Is(err, ErrTargetNotFound) {
			t.Errorf("error = %v, want ErrTargetNotFound", err)
		}
	})

	t.Run("unsupported target finish", func(t *testing.T) {
		_, err := ledger.Repoint(ctx, userID,
			LineKey{CardID: shock, Finish: "nonfoil", Condition: "LP"},
			Patch{Finish: strPtr("etched")},
		)
		var finishErr *UnsupportedFinishError
		if !errors.As(err, &finishErr) {
			t.Errorf("error = %v, want *UnsupportedFinishError", err)
		}
	})
}

func TestLedgerSearch(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	for _, fixture := range []struct {
		card      string
		finish    string
		condition string
		qty       int
	}{
		{"Robo-Piñata", "nonfoil", "NM", 2},
		{"Robo-Piñata", "foil", "NM", 1},
		{"Shock", "nonfoil", "NM", 4},
	} {
		if _, err := ledger.Add(ctx, AddParams{
			UserID: userID, CardID: cards[fixture.card],
			Finish: fixture.finish, Condition: fixture.condition, Quantity: fixture.qty,
		}); err != nil {
			t.Fatalf("Add fixture: %v", err)
		}
	}

	t.Run("accent-insensitive match sums variants", func(t *testing.T) {
		// Typed without the ñ.
		result, err := ledger.Search(ctx, userID, "robo-pinata", 0)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if result.Total != 1 || len(result.Cards) != 1 {
			t.Fatalf("result = %+v, want exactly one card", result)
		}
		if result.Cards[0].ScryfallID != cards["Robo-Piñata"] || result.Cards[0].Quantity != 3 {
			t.Errorf("card = %+v, want Robo-Piñata with quantity 3", result.Cards[0])
		}
	})

	t.Run("empty text matches everything owned", func(t *testing.T) {
		result, err := ledger.Search(ctx, userID, "", 0)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if result.Total != 2 || len(result.Cards) != 2 {
			t.Errorf("result = %+v, want both owned cards", result)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		result, err := ledger.Search(ctx, userID, "storm crow", 0)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if result.Total != 0 || len(result.Cards) != 0 {
			t.Errorf("result = %+v, want empty page", result)
		}
	})

	t.Run("other users are invisible", func(t *testing.T) {
		result, err := ledger.Search(ctx, uuid.NewString(), "", 0)
		if err != nil {
			t.Fatalf("Search returned error: %v", err)
		}
		if result.Total != 0 {
			t.Errorf("result = %+v, want nothing for a different user", result)
		}
	})
}

func TestLedgerSeed(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	userID, cards := testFixtures(ctx, t, pool)
	ledger := NewLedger(pool)

	records := []reconcile.Record{
		{Quantity: 4, Name: "Shock", ScryfallID: cards["Shock"]},
		{Quantity: 1, Name: "Shock", Foil: true, PromoPack: true, ScryfallID: cards["Shock"]},
		{Quantity: 2, Name: "Robo-Piñata", TheList: true, ScryfallID: cards["Robo-Piñata"]},
	}

	seeded, err := ledger.Seed(ctx, userID, records)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if seeded != 3 {
		t.Errorf("seeded = %d, want 3", seeded)
	}

	rows, err := pool.Query(ctx, `
		SELECT card_id, finish, condition, notes, quantity
		FROM collection_lines WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		t.Fatalf("query lines: %v", err)
	}
	defer rows.Close()

	type line struct {
		cardID, finish, condition, notes string
		quantity                         int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.cardID, &l.finish, &l.condition, &l.notes, &l.quantity); err != nil {
			t.Fatalf("scan line: %v", err)
		}
		lines = append(lines, l)
	}

	expected := []line{
		{cards["Shock"], "nonfoil", "NM", "", 4},
		{cards["Shock"], "foil", "NM", "promo-pack", 1},
		{cards["Robo-Piñata"], "nonfoil", "NM", "the-list", 2},
	}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines, want %d", len(lines), len(expected))
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want)
		}
	}

	// A second seed of the same records folds into the existing lines.
	if _, err := ledger.Seed(ctx, userID, records[:1]); err != nil {
		t.Fatalf("second Seed returned error: %v", err)
	}
	var qty int
	if err := pool.QueryRow(ctx, `
		SELECT quantity FROM collection_lines
		WHERE user_id = $1 AND card_id = $2 AND finish = 'nonfoil'
	`, userID, cards["Shock"]).Scan(&qty); err != nil {
		t.Fatalf("query reseeded quantity: %v", err)
	}
	if qty != 8 {
		t.Errorf("reseeded quantity = %d, want 8", qty)
	}
}
