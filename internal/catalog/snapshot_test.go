package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const allCardsJSON = `[
  {
    "id": "bolt-en",
    "name": "Lightning Bolt",
    "set": "lea",
    "collector_number": "161",
    "lang": "en",
    "finishes": ["nonfoil"],
    "image_uris": {"normal": "https://cards.example/bolt.jpg"}
  },
  {
    "id": "bolt-de",
    "name": "Lightning Bolt",
    "set": "lea",
    "collector_number": "161",
    "lang": "de",
    "finishes": ["nonfoil"]
  },
  {
    "id": "fire-ice",
    "name": "Fire // Ice",
    "set": "mh2",
    "collector_number": "290",
    "lang": "en",
    "finishes": ["nonfoil", "foil"],
    "card_faces": [{"name": "Fire"}, {"name": "Ice"}]
  }
]`

const defaultCardsJSON = `[
  {
    "id": "bolt-en",
    "name": "Lightning Bolt",
    "set": "lea",
    "collector_number": "161",
    "lang": "en"
  },
  {
    "id": "fire-ice",
    "name": "Fire // Ice",
    "set": "mh2",
    "collector_number": "290",
    "lang": "en"
  }
]`

func writeTempJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	allPath := writeTempJSON(t, "all.json", allCardsJSON)
	defaultPath := writeTempJSON(t, "default.json", defaultCardsJSON)

	snap, err := LoadSnapshot(context.Background(), allPath, defaultPath)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}

	if snap.SetCount() != 2 {
		t.Errorf("SetCount() = %d, want 2", snap.SetCount())
	}

	lea := snap.EntriesBySet("lea")
	if len(lea) != 2 {
		t.Fatalf("EntriesBySet(lea) returned %d entries, want 2", len(lea))
	}
	if lea[0].ID != "bolt-en" || lea[0].ImageURI != "https://cards.example/bolt.jpg" {
		t.Errorf("first lea entry = %+v, want bolt-en with image URI", lea[0])
	}

	mh2 := snap.EntriesBySet("mh2")
	if len(mh2) != 1 {
		t.Fatalf("EntriesBySet(mh2) returned %d entries, want 1", len(mh2))
	}
	if got := mh2[0].FaceNames; len(got) != 2 || got[0] != "Fire" || got[1] != "Ice" {
		t.Errorf("FaceNames = %v, want [Fire Ice]", got)
	}
	if !mh2[0].HasFinish("foil") || mh2[0].HasFinish("etched") {
		t.Errorf("finishes = %v, want foil but not etched", mh2[0].Finishes)
	}

	if snap.EntriesBySet("zzz") != nil {
		t.Error("EntriesBySet for an unknown set should be nil")
	}

	if lang, ok := snap.DefaultLang("161", "lea"); !ok || lang != "en" {
		t.Errorf("DefaultLang(161, lea) = %q, %v, want en, true", lang, ok)
	}
	if _, ok := snap.DefaultLang("161", "mh2"); ok {
		t.Error("DefaultLang for an unknown pair should report not found")
	}
}

func TestLoadSnapshotRejectsNonArray(t *testing.T) {
	allPath := writeTempJSON(t, "all.json", `{"not": "an array"}`)
	defaultPath := writeTempJSON(t, "default.json", `[]`)

	if _, err := LoadSnapshot(context.Background(), allPath, defaultPath); err == nil {
		t.Error("expected error for non-array bulk file, got nil")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	defaultPath := writeTempJSON(t, "default.json", `[]`)

	if _, err := LoadSnapshot(context.Background(), filepath.Join(t.TempDir(), "missing.json"), defaultPath); err == nil {
		t.Error("expected error for missing bulk file, got nil")
	}
}
