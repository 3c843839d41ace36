// Package validation provides validation rules for flag keys and request payloads.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// MaxKeyLength is the maximum length for flag keys
	MaxKeyLength = 64
	// MaxDescriptionLength is the maximum length for flag descriptions
	MaxDescriptionLength = 500
	// MaxFlagDataSize is the maximum size of the flag_data payload in bytes
	MaxFlagDataSize = 100 * 1024 // 100KB
)

// keyPattern matches alphanumeric characters, underscores, and hyphens
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ValidateFlagKey checks that a flag key is present, within length
// limits and matches the allowed character set.
func ValidateFlagKey(key string) *ValidationResult {
	result := NewValidationResult()

	if key == "" {
		result.AddError("flag_key", "flag_key is required")
		return result
	}
	if utf8.RuneCountInString(key) > MaxKeyLength {
		result.AddError("flag_key", fmt.Sprintf("flag_key must be at most %d characters", MaxKeyLength))
		return result
	}
	if !keyPattern.MatchString(key) {
		result.AddError("flag_key", "flag_key may only contain letters, digits, underscores and hyphens")
	}

	return result
}

// ValidateDescription checks the description length limit.
func ValidateDescription(description string) *ValidationResult {
	result := NewValidationResult()

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		result.AddError("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}

	return result
}

// ValidateFlagData checks that the payload is well-formed JSON within
// the size limit. A nil payload is valid (it defaults to {}). Any JSON
// value is accepted: the payload is schema-less by contract.
func ValidateFlagData(data json.RawMessage) *ValidationResult {
	result := NewValidationResult()

	if data == nil {
		return result
	}
	if len(data) > MaxFlagDataSize {
		result.AddError("flag_data", fmt.Sprintf("flag_data must be at most %d bytes", MaxFlagDataSize))
		return result
	}
	if !json.Valid(data) {
		result.AddError("flag_data", "flag_data must be valid JSON")
	}

	return result
}
