package validation

import (
	"fmt"
	"sort"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Valid returns an empty, passing result.
func Valid() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// Add appends an error and marks the result invalid.
func (vr *ValidationResult) Add(field, message, code string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
	vr.Valid = false
}

// Merge appends all errors of other.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		vr.Add(e.Field, e.Message, e.Code)
	}
}

// Tree groups messages by field path, the shape returned to API clients.
func (vr *ValidationResult) Tree() map[string][]string {
	tree := make(map[string][]string, len(vr.Errors))
	for _, e := range vr.Errors {
		tree[e.Field] = append(tree[e.Field], e.Message)
	}
	return tree
}

// Fields returns the distinct failing paths in sorted order.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]struct{}, len(vr.Errors))
	out := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		if _, ok := seen[e.Field]; ok {
			continue
		}
		seen[e.Field] = struct{}{}
		out = append(out, e.Field)
	}
	sort.Strings(out)
	return out
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
