// Package collection maintains per-user quantities of owned card variants.
package collection

import (
	"errors"
	"fmt"
	"strings"
)

// PageSize is the fixed number of results per collection search page.
const PageSize = 25

// Conditions is the accepted card condition vocabulary.
var Conditions = []string{"NM", "LP", "MP", "HP", "DMG"}

// ValidCondition reports whether c is in the condition vocabulary.
func ValidCondition(c string) bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

// Line is one ledger row: a user's owned quantity of a fully-specified card
// variant. The key is every field except Quantity; Quantity is always
// positive, a line that would drop to zero is deleted instead.
type Line struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	CardID    string `json:"card_id"`
	Finish    string `json:"finish"`
	Condition string `json:"condition"`
	Signed    bool   `json:"signed"`
	Altered   bool   `json:"altered"`
	Notes     string `json:"notes"`
	Quantity  int    `json:"quantity"`
}

// LineKey identifies one ledger row within a user's collection.
type LineKey struct {
	CardID    string `json:"scryfall_id"`
	Finish    string `json:"finish"`
	Condition string `json:"condition"`
	Signed    bool   `json:"signed"`
	Altered   bool   `json:"altered"`
	Notes     string `json:"notes"`
}

// Patch is a sparse update of a line's key fields. Nil fields keep the
// target's current value.
type Patch struct {
	Finish    *string `json:"finish,omitempty"`
	Condition *string `json:"condition,omitempty"`
	Signed    *bool   `json:"signed,omitempty"`
	Altered   *bool   `json:"altered,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// ErrCardNotFound is returned when the referenced card id is not in the
// catalog.
var ErrCardNotFound = errors.New("card not found in catalog")

// ErrTargetNotFound is returned when a repoint target key matches no line.
var ErrTargetNotFound = errors.New("target line not found")

// UnsupportedFinishError reports a finish the card is not printed in.
type UnsupportedFinishError struct {
	CardID    string
	Finish    string
	Available []string
}

func (e *UnsupportedFinishError) Error() string {
	return fmt.Sprintf("card %s does not come in finish %q (available: %s)",
		e.CardID, e.Finish, strings.Join(e.Available, ", "))
}

// InvalidConditionError reports a condition outside the vocabulary.
type InvalidConditionError struct {
	Condition string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("invalid condition %q (expected one of %s)",
		e.Condition, strings.Join(Conditions, ", "))
}
