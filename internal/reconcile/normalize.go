package reconcile

import (
	"regexp"
	"strings"
)

// The export format writes split and multi-face cards as "Turn / Burn"; the
// catalog writes "Turn // Burn". Names that already contain "//" are left
// alone so a genuine slash in a name is not doubled.
var underscoreRe = regexp.MustCompile(`___+`)

// NormalizeName rewrites an export-side card name into the catalog spelling:
// single "/" face separators become "//", runs of three or more underscores
// collapse to the canonical five-underscore placeholder, and known
// export-side typos are corrected from the tables.
func NormalizeName(t *Tables, raw string) string {
	name := raw
	if strings.Contains(name, "/") && !strings.Contains(name, "//") {
		name = strings.ReplaceAll(name, "/", "//")
	}
	name = underscoreRe.ReplaceAllString(name, "_____")
	if corrected, ok := t.NameCorrections[name]; ok {
		name = corrected
	}
	return name
}

// genericPromoCode is the placeholder set code the export format uses for
// assorted promos. Cards under it resolve to a real set by name, or fail.
const genericPromoCode = "000"

// ResolveSetCode maps an export set code to the catalog set code. The name is
// consulted for the generic promo dispatch and for sets the two sources
// classify inconsistently on a per-card basis.
func ResolveSetCode(t *Tables, rawCode, name string) (string, error) {
	code := strings.ToLower(rawCode)

	if code == genericPromoCode {
		real, ok := t.PromoSets[name]
		if !ok {
			return "", &UnhandledPromoSetError{Name: name}
		}
		return real, nil
	}

	if alias, ok := t.SetAliases[code]; ok {
		code = alias
	}
	if byName, ok := t.MisfiledSets[code]; ok {
		if real, ok := byName[name]; ok {
			code = real
		}
	}
	return code, nil
}

// isNumeric reports whether s is one or more ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
