// Package reconcile maps loosely-structured export records onto canonical
// catalog identities. Each export line resolves independently of every other
// line, so an import can be rerun from scratch at any point; only the catalog
// snapshot and the correction tables feed a line's resolution.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/catalog"
)

// promoPackMarker is the variation token the export format uses for promo
// pack printings instead of a collector number.
const promoPackMarker = "PromoPack"

// Catalog is the read-only card database view the reconciler resolves
// against.
type Catalog interface {
	// EntriesBySet returns every printing in a set, nil for unknown sets.
	EntriesBySet(setCode string) []catalog.Entry
	// DefaultLang returns the default language for a collector-number/set
	// pair from the default-printings snapshot.
	DefaultLang(collectorNumber, setCode string) (string, bool)
}

// Reconciler resolves export records against a catalog using the correction
// tables.
type Reconciler struct {
	catalog Catalog
	tables  *Tables
}

// New creates a Reconciler. A nil tables uses the embedded defaults.
func New(cat Catalog, tables *Tables) *Reconciler {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Reconciler{catalog: cat, tables: tables}
}

// Result holds the reconciled records plus every non-fatal warning raised
// along the way.
type Result struct {
	Records       []Record
	Warnings      []Warning
	TotalQuantity int
}

// CheckExpectedTotal compares the reconciled quantity against a total fixed
// for a given export snapshot. A mismatch means cards were silently lost or
// double counted somewhere upstream.
func (r *Result) CheckExpectedTotal(expected int) error {
	if r.TotalQuantity != expected {
		return &QuantityMismatchError{Expected: expected, Actual: r.TotalQuantity}
	}
	return nil
}

// Reconcile resolves every export record, in order, to a normalized record.
// Any unresolvable line fails the whole run with a typed error naming the
// line; ties broken by policy surface as warnings on the Result instead.
func (r *Reconciler) Reconcile(records []ExportRecord) (*Result, error) {
	result := &Result{Records: make([]Record, 0, len(records))}

	inputTotal := 0
	for _, rec := range records {
		inputTotal += rec.Quantity

		normalized, warnings, err := r.reconcileLine(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.LineNumber, err)
		}
		result.Records = append(result.Records, normalized)
		result.Warnings = append(result.Warnings, warnings...)
		result.TotalQuantity += normalized.Quantity
	}

	// Quantity is carried through untouched, so any divergence here is a
	// reconciler bug rather than bad input.
	if result.TotalQuantity != inputTotal {
		return nil, &QuantityMismatchError{Expected: inputTotal, Actual: result.TotalQuantity}
	}
	return result, nil
}

func (r *Reconciler) reconcileLine(rec ExportRecord) (Record, []Warning, error) {
	name := NormalizeName(r.tables, rec.Name)

	setCode, err := ResolveSetCode(r.tables, rec.SetCode, name)
	if err != nil {
		return Record{}, nil, err
	}

	out := Record{
		Quantity: rec.Quantity,
		Name:     name,
		SetCode:  setCode,
	}
	var warnings []Warning

	switch {
	case rec.Variation == "":
		cn, warning, err := r.defaultCollectorNumber(name, setCode)
		if err != nil {
			return Record{}, nil, err
		}
		out.CollectorNumber = cn
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	case isNumeric(rec.Variation):
		out.CollectorNumber = rec.Variation
	case rec.Variation == promoPackMarker:
		cn, warning, err := r.defaultCollectorNumber(name, setCode)
		if err != nil {
			return Record{}, nil, err
		}
		out.CollectorNumber = cn
		out.PromoPack = true
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	default:
		return Record{}, nil, &UnrecognizedVariationError{
			Variation: rec.Variation,
			Name:      name,
			SetCode:   setCode,
		}
	}

	lang, ok := r.catalog.DefaultLang(out.CollectorNumber, setCode)
	if !ok {
		return Record{}, nil, &NoDefaultLanguageError{
			CollectorNumber: out.CollectorNumber,
			SetCode:         setCode,
		}
	}

	switch rec.Modifier {
	case "":
	case "f":
		out.Foil = true
	case "list":
		out.TheList = true
	case "pp":
		out.PromoPack = true
	case "f-pp":
		out.Foil = true
		out.PromoPack = true
	case "f-pre":
		out.Foil = true
		out.Prerelease = true
	default:
		// Anything else in the modifier position is a language override.
		lang = strings.ToLower(rec.Modifier)
	}

	// The export source has no Traditional Chinese option, so a "zh" here
	// can only mean Simplified. Substitute it, but flag the card for a
	// manual check.
	if lang == "zh" {
		warnings = append(warnings, Warning{
			Kind:            WarnTraditionalChinese,
			Name:            name,
			SetCode:         setCode,
			CollectorNumber: out.CollectorNumber,
			Message: fmt.Sprintf(
				"export source cannot express Traditional Chinese; assuming Simplified for %s (%s:%s)",
				name, setCode, out.CollectorNumber),
		})
		lang = "zhs"
	}
	out.Lang = lang

	entry, err := r.resolveIdentity(out.CollectorNumber, setCode, lang)
	if err != nil {
		return Record{}, nil, err
	}
	out.ScryfallID = entry.ID

	return out, warnings, nil
}

// defaultCollectorNumber picks the collector number for a line that supplies
// none. Candidates are every printing of the name in the set (falling back to
// first-face matching for multi-face cards, whose combined name is not always
// the concatenation of the faces). Numeric collector numbers win and sort as
// integers; a tie among purely non-numeric numbers is broken lexicographically
// and reported as a warning.
func (r *Reconciler) defaultCollectorNumber(name, setCode string) (string, *Warning, error) {
	entries := r.catalog.EntriesBySet(setCode)
	if len(entries) == 0 {
		return "", nil, &UnknownSetError{SetCode: setCode}
	}

	lower := strings.ToLower(name)
	var candidates []catalog.Entry
	for _, e := range entries {
		if strings.ToLower(e.Name) == lower {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		for _, e := range entries {
			if len(e.FaceNames) > 0 && strings.ToLower(e.FaceNames[0]) == lower {
				candidates = append(candidates, e)
			}
		}
	}
	if len(candidates) == 0 {
		return "", nil, &CardNotFoundError{Name: name, SetCode: setCode}
	}

	var numeric []catalog.Entry
	for _, e := range candidates {
		if isNumeric(e.CollectorNumber) {
			numeric = append(numeric, e)
		}
	}

	if len(numeric) > 0 {
		best := numeric[0]
		bestN, _ := strconv.Atoi(best.CollectorNumber)
		for _, e := range numeric[1:] {
			n, _ := strconv.Atoi(e.CollectorNumber)
			if n < bestN {
				best, bestN = e, n
			}
		}
		return best.CollectorNumber, nil, nil
	}

	// e.g. Unfinity attractions number their variants non-numerically.
	best := candidates[0].CollectorNumber
	for _, e := range candidates[1:] {
		if e.CollectorNumber < best {
			best = e.CollectorNumber
		}
	}

	if len(candidates) > 1 {
		return best, &Warning{
			Kind:            WarnAmbiguousCollectorNumber,
			Name:            name,
			SetCode:         setCode,
			CollectorNumber: best,
			Message: fmt.Sprintf(
				"export source may not differentiate the versions of %s (%s); defaulting to collector number %s",
				name, setCode, best),
		}, nil
	}
	return best, nil, nil
}

// resolveIdentity looks up the single catalog entry for (collector number,
// set, language). Zero or multiple matches is fatal and carries the candidate
// ids for manual inspection.
func (r *Reconciler) resolveIdentity(collectorNumber, setCode, lang string) (*catalog.Entry, error) {
	var matches []catalog.Entry
	for _, e := range r.catalog.EntriesBySet(setCode) {
		if e.CollectorNumber == collectorNumber && strings.EqualFold(e.Lang, lang) {
			matches = append(matches, e)
		}
	}
	if len(matches) != 1 {
		ids := make([]string, len(matches))
		for i, e := range matches {
			ids[i] = e.ID
		}
		return nil, &AmbiguousMatchError{
			CollectorNumber: collectorNumber,
			SetCode:         setCode,
			Lang:            lang,
			Candidates:      ids,
		}
	}
	return &matches[0], nil
}
