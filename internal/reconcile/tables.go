package reconcile

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Tables holds the correction tables that reconcile export-side data problems
// against the catalog. They are data, not code: versioned with the repository,
// append-only, and loaded once at startup.
type Tables struct {
	// NameCorrections maps known-bad export names (typos, missing
	// diacritics) to the catalog spelling.
	NameCorrections map[string]string `yaml:"name_corrections"`

	// SetAliases maps export set codes to catalog set codes where the two
	// sources number the same physical set differently.
	SetAliases map[string]string `yaml:"set_aliases"`

	// PromoSets dispatches cards filed under the generic promo set code to
	// their real promo set, by exact card name.
	PromoSets map[string]string `yaml:"promo_sets"`

	// MisfiledSets redirects individual cards the export source files under
	// the wrong set: export set code -> card name -> catalog set code.
	MisfiledSets map[string]map[string]string `yaml:"misfiled_sets"`
}

// LoadTables parses correction tables from YAML.
func LoadTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse correction tables: %w", err)
	}
	return &t, nil
}

// DefaultTables returns the correction tables embedded in the binary.
func DefaultTables() *Tables {
	t, err := LoadTables(tablesYAML)
	if err != nil {
		// The embedded tables are validated by tests; a parse failure here
		// means a broken build, not a runtime condition.
		panic(err)
	}
	return t
}
