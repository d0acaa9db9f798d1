package reconcile

import (
	"fmt"
	"strings"
)

// ParseError reports an export line that does not match the expected grammar.
// The import is aborted; the offending input is quoted verbatim.
type ParseError struct {
	LineNumber int
	Input      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d is in the wrong format: %q", e.LineNumber, e.Input)
}

// UnhandledPromoSetError reports a card filed under the generic promo set code
// whose name is not in the promo dispatch table. The table must be extended by
// hand; the reconciler never guesses a set.
type UnhandledPromoSetError struct {
	Name string
}

func (e *UnhandledPromoSetError) Error() string {
	return fmt.Sprintf("unhandled promo set code for %q: add the card to the promo_sets table", e.Name)
}

// UnrecognizedVariationError reports a variation token that is neither a
// collector number nor a known marker.
type UnrecognizedVariationError struct {
	Variation string
	Name      string
	SetCode   string
}

func (e *UnrecognizedVariationError) Error() string {
	return fmt.Sprintf("unrecognized variation %q on %s (%s)", e.Variation, e.Name, e.SetCode)
}

// UnknownSetError reports a set code with no entries in the catalog.
type UnknownSetError struct {
	SetCode string
}

func (e *UnknownSetError) Error() string {
	return fmt.Sprintf("set %q not found in catalog", e.SetCode)
}

// CardNotFoundError reports a name that matches no printing in its set.
type CardNotFoundError struct {
	Name    string
	SetCode string
}

func (e *CardNotFoundError) Error() string {
	return fmt.Sprintf("card %q not found in set %q", e.Name, e.SetCode)
}

// NoDefaultLanguageError reports a printing with no default-language entry in
// the default-printings snapshot.
type NoDefaultLanguageError struct {
	CollectorNumber string
	SetCode         string
}

func (e *NoDefaultLanguageError) Error() string {
	return fmt.Sprintf("no default language for collector number %s in set %q", e.CollectorNumber, e.SetCode)
}

// AmbiguousMatchError reports an identity lookup that did not resolve to
// exactly one catalog entry. It carries the attempted key and the candidate
// ids so the caller can inspect the conflict; the reconciler never silently
// picks one.
type AmbiguousMatchError struct {
	CollectorNumber string
	SetCode         string
	Lang            string
	Candidates      []string
}

func (e *AmbiguousMatchError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no card with collector number %s, language %s in set %q",
			e.CollectorNumber, e.Lang, e.SetCode)
	}
	return fmt.Sprintf("expected one card with collector number %s, language %s in set %q, found %d: %s",
		e.CollectorNumber, e.Lang, e.SetCode, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// QuantityMismatchError reports a reconciled total that does not match the
// expected total for the export snapshot. It guards against silently losing
// or double counting cards.
type QuantityMismatchError struct {
	Expected int
	Actual   int
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("reconciled quantity %d does not match expected total %d", e.Actual, e.Expected)
}

// Warning kinds for non-fatal reconciliation findings.
const (
	WarnAmbiguousCollectorNumber = "ambiguous_collector_number"
	WarnTraditionalChinese       = "traditional_chinese"
)

// Warning is a non-fatal reconciliation finding, logged with enough context to
// audit later.
type Warning struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	SetCode         string `json:"set"`
	CollectorNumber string `json:"collector_number"`
	Message         string `json:"message"`
}
