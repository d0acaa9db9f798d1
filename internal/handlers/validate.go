package handlers

import (
	"encoding/json"
	"fmt"
)

// FieldError identifies exactly which request field failed validation and
// why. Validation never partially applies a request: the first bad field
// rejects the whole body before any state change.
type FieldError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got,omitempty"`
	Missing  bool   `json:"missing"`
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("expected key %q not found in request body", e.Field)
	}
	return fmt.Sprintf("expected key %q to be %s, got %s", e.Field, e.Expected, e.Got)
}

// jsonTypeName names the JSON type of a raw value for error messages.
func jsonTypeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func requireString(body map[string]json.RawMessage, field string) (string, *FieldError) {
	raw, ok := body[field]
	if !ok {
		return "", &FieldError{Field: field, Expected: "string", Missing: true}
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", &FieldError{Field: field, Expected: "string", Got: jsonTypeName(raw)}
	}
	return v, nil
}

func requireInt(body map[string]json.RawMessage, field string) (int, *FieldError) {
	raw, ok := body[field]
	if !ok {
		return 0, &FieldError{Field: field, Expected: "int", Missing: true}
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, &FieldError{Field: field, Expected: "int", Got: jsonTypeName(raw)}
	}
	return v, nil
}

func requireBool(body map[string]json.RawMessage, field string) (bool, *FieldError) {
	raw, ok := body[field]
	if !ok {
		return false, &FieldError{Field: field, Expected: "bool", Missing: true}
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, &FieldError{Field: field, Expected: "bool", Got: jsonTypeName(raw)}
	}
	return v, nil
}
