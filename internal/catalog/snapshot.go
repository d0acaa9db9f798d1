package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// bulkCard mirrors the subset of a Scryfall bulk-data card object we keep.
type bulkCard struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	CollectorNumber string `json:"collector_number"`
	Lang            string `json:"lang"`
	Finishes        []string `json:"finishes"`
	CardFaces       []struct {
		Name string `json:"name"`
	} `json:"card_faces"`
	ImageURIs struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
}

// Snapshot is an in-memory catalog built from two bulk-data files: the "all
// printings" file, partitioned by set, and the "default printings" file, which
// supplies the default language for each collector-number/set pair.
type Snapshot struct {
	sets        map[string][]Entry
	defaultLang map[string]string
}

// LoadSnapshot reads both bulk-data files concurrently and builds a Snapshot.
func LoadSnapshot(ctx context.Context, allPath, defaultPath string) (*Snapshot, error) {
	snap := &Snapshot{
		sets:        make(map[string][]Entry),
		defaultLang: make(map[string]string),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return streamBulkFile(ctx, allPath, func(card bulkCard) {
			entry := Entry{
				ID:              card.ID,
				Name:            card.Name,
				SetCode:         card.Set,
				CollectorNumber: card.CollectorNumber,
				Lang:            card.Lang,
				Finishes:        card.Finishes,
				ImageURI:        card.ImageURIs.Normal,
			}
			for _, face := range card.CardFaces {
				entry.FaceNames = append(entry.FaceNames, face.Name)
			}
			snap.sets[card.Set] = append(snap.sets[card.Set], entry)
		})
	})

	g.Go(func() error {
		return streamBulkFile(ctx, defaultPath, func(card bulkCard) {
			snap.defaultLang[defaultLangKey(card.CollectorNumber, card.Set)] = card.Lang
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// streamBulkFile decodes a bulk-data JSON array one card at a time. The bulk
// files run to gigabytes, so the whole array is never held in memory.
func streamBulkFile(ctx context.Context, path string, fn func(bulkCard)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open bulk data file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read bulk data from %s: %w", path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected JSON array in %s, got %v", path, tok)
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var card bulkCard
		if err := dec.Decode(&card); err != nil {
			return fmt.Errorf("failed to decode card in %s: %w", path, err)
		}
		fn(card)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read end of bulk data in %s: %w", path, err)
	}
	return nil
}

func defaultLangKey(collectorNumber, setCode string) string {
	return collectorNumber + ":" + setCode
}

// EntriesBySet returns every printing in the given set, or nil if the set is
// unknown.
func (s *Snapshot) EntriesBySet(setCode string) []Entry {
	return s.sets[setCode]
}

// DefaultLang returns the default language for a collector-number/set pair.
func (s *Snapshot) DefaultLang(collectorNumber, setCode string) (string, bool) {
	lang, ok := s.defaultLang[defaultLangKey(collectorNumber, setCode)]
	return lang, ok
}

// SetCount returns the number of distinct sets in the snapshot.
func (s *Snapshot) SetCount() int {
	return len(s.sets)
}
