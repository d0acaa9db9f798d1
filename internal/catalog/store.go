package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PageSize is the fixed number of results per search page.
const PageSize = 25

// ErrNotFound is returned when a card id or key resolves to no catalog entry.
var ErrNotFound = errors.New("card not found in catalog")

// Store is the Postgres-backed catalog view used by the HTTP API.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a catalog store over the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	IDs   []string
	Total int
}

// Search returns a page of card ids whose name contains the (diacritic-folded,
// case-insensitive) search text. When defaultOnly is set, only default-language
// printings are returned.
func (s *Store) Search(ctx context.Context, text string, page int, defaultOnly bool) (*SearchResult, error) {
	pattern := "%" + Fold(text) + "%"

	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM catalog_cards
		WHERE name_folded LIKE $1 AND ($2 = false OR default_lang)
	`, pattern, defaultOnly).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog matches: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id
		FROM catalog_cards
		WHERE name_folded LIKE $1 AND ($2 = false OR default_lang)
		ORDER BY name, set_code, collector_number
		LIMIT $3 OFFSET $4
	`, pattern, defaultOnly, PageSize, page*PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	defer rows.Close()

	result := &SearchResult{Total: total}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		result.IDs = append(result.IDs, id)
	}
	return result, rows.Err()
}

// ByID returns the catalog entry for a Scryfall id.
func (s *Store) ByID(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, set_code, collector_number, lang, default_lang,
		       finishes, face_names, COALESCE(image_uri, '')
		FROM catalog_cards
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.SetCode, &e.CollectorNumber, &e.Lang,
		&e.DefaultLang, &e.Finishes, &e.FaceNames, &e.ImageURI)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card %s: %w", id, err)
	}
	return &e, nil
}

// Languages returns every language variant of the collector-number/set pair
// that the given card id belongs to.
func (s *Store) Languages(ctx context.Context, id string) ([]LanguagePrinting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.lang, a.default_lang
		FROM catalog_cards a
		JOIN catalog_cards b
		  ON a.collector_number = b.collector_number AND a.set_code = b.set_code
		WHERE b.id = $1
		ORDER BY a.lang
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load languages for %s: %w", id, err)
	}
	defer rows.Close()

	var printings []LanguagePrinting
	for rows.Next() {
		var p LanguagePrinting
		if err := rows.Scan(&p.ScryfallID, &p.Lang, &p.Default); err != nil {
			return nil, fmt.Errorf("failed to scan language row: %w", err)
		}
		printings = append(printings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(printings) == 0 {
		return nil, ErrNotFound
	}
	return printings, nil
}

// ByKey returns the single entry for (collector number, set, language), or
// ErrNotFound.
func (s *Store) ByKey(ctx context.Context, collectorNumber, setCode, lang string) (*Entry, error) {
	var e Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, set_code, collector_number, lang, default_lang,
		       finishes, face_names, COALESCE(image_uri, '')
		FROM catalog_cards
		WHERE collector_number = $1 AND set_code = $2 AND LOWER(lang) = LOWER($3)
	`, collectorNumber, setCode, lang).Scan(&e.ID, &e.Name, &e.SetCode,
		&e.CollectorNumber, &e.Lang, &e.DefaultLang, &e.Finishes, &e.FaceNames, &e.ImageURI)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card %s/%s/%s: %w", collectorNumber, setCode, lang, err)
	}
	return &e, nil
}

// upsertBatchSize bounds the number of rows per insert batch during bulk load.
const upsertBatchSize = 500

// LoadBulk streams a Scryfall bulk-data file into the catalog_cards table.
// Entries from the default-printings file should be loaded with markDefault
// set so the default_lang flag is recorded.
func (s *Store) LoadBulk(ctx context.Context, path string, markDefault bool) (int, error) {
	batch := &pgx.Batch{}
	loaded := 0

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		br := s.pool.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to flush catalog batch: %w", err)
		}
		batch = &pgx.Batch{}
		return nil
	}

	var streamErr error
	err := streamBulkFile(ctx, path, func(card bulkCard) {
		if streamErr != nil {
			return
		}
		faceNames := make([]string, 0, len(card.CardFaces))
		for _, face := range card.CardFaces {
			faceNames = append(faceNames, face.Name)
		}
		if markDefault {
			batch.Queue(`
				UPDATE catalog_cards SET default_lang = true WHERE id = $1
			`, card.ID)
		} else {
			batch.Queue(`
				INSERT INTO catalog_cards
					(id, name, name_folded, set_code, collector_number, lang,
					 default_lang, finishes, face_names, image_uri)
				VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					name_folded = EXCLUDED.name_folded,
					set_code = EXCLUDED.set_code,
					collector_number = EXCLUDED.collector_number,
					lang = EXCLUDED.lang,
					finishes = EXCLUDED.finishes,
					face_names = EXCLUDED.face_names,
					image_uri = EXCLUDED.image_uri
			`, card.ID, card.Name, Fold(card.Name), card.Set, card.CollectorNumber,
				card.Lang, card.Finishes, faceNames, card.ImageURIs.Normal)
		}
		loaded++
		if batch.Len() >= upsertBatchSize {
			streamErr = flush()
		}
	})
	if err != nil {
		return loaded, err
	}
	if streamErr != nil {
		return loaded, streamErr
	}
	return loaded, flush()
}
