// Package catalog provides access to the canonical card database.
//
// Two implementations exist: Snapshot, an in-memory view built from the
// Scryfall bulk-data JSON files and used by the offline import step, and
// Store, a Postgres-backed view used by the HTTP API.
package catalog

import "slices"

// Entry is one canonical printing: a specific card in a specific set with a
// specific collector number and language.
type Entry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	SetCode         string   `json:"set"`
	CollectorNumber string   `json:"collector_number"`
	Lang            string   `json:"lang"`
	DefaultLang     bool     `json:"default_lang"`
	Finishes        []string `json:"finishes"`
	FaceNames       []string `json:"face_names,omitempty"`
	ImageURI        string   `json:"image_uri,omitempty"`
}

// HasFinish reports whether the printing is available in the given finish.
func (e *Entry) HasFinish(finish string) bool {
	return slices.Contains(e.Finishes, finish)
}

// LanguagePrinting describes one language variant of a collector-number/set pair.
type LanguagePrinting struct {
	ScryfallID string `json:"scryfall_id"`
	Lang       string `json:"lang"`
	Default    bool   `json:"default"`
}
