package validation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateFlagKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"simple", "my-flag", true},
		{"underscores", "my_flag_2", true},
		{"mixed case", "Dark-Mode", true},
		{"empty", "", false},
		{"spaces", "my flag", false},
		{"slash", "a/b", false},
		{"unicode", "flagé", false},
		{"max length", strings.Repeat("a", MaxKeyLength), true},
		{"too long", strings.Repeat("a", MaxKeyLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateFlagKey(tt.key)
			if result.Valid != tt.valid {
				t.Errorf("ValidateFlagKey(%q).Valid = %v, want %v (errors: %v)",
					tt.key, result.Valid, tt.valid, result.Errors)
			}
			if !tt.valid {
				if _, ok := result.Errors["flag_key"]; !ok {
					t.Error("Expected a flag_key field error")
				}
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if r := ValidateDescription(strings.Repeat("x", MaxDescriptionLength)); !r.Valid {
		t.Errorf("Max-length description should pass: %v", r.Errors)
	}
	if r := ValidateDescription(strings.Repeat("x", MaxDescriptionLength+1)); r.Valid {
		t.Error("Over-length description should fail")
	}
}

func TestValidateFlagData(t *testing.T) {
	tests := []struct {
		name  string
		data  json.RawMessage
		valid bool
	}{
		{"nil", nil, true},
		{"object", json.RawMessage(`{"a":1}`), true},
		{"array", json.RawMessage(`[1,2,3]`), true},
		{"scalar", json.RawMessage(`"on"`), true},
		{"number", json.RawMessage(`42`), true},
		{"malformed", json.RawMessage(`{"a":`), false},
		{"oversized", json.RawMessage(`"` + strings.Repeat("x", MaxFlagDataSize) + `"`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateFlagData(tt.data)
			if result.Valid != tt.valid {
				t.Errorf("ValidateFlagData(%s).Valid = %v, want %v",
					tt.name, result.Valid, tt.valid)
			}
		})
	}
}

func TestValidationResult_Merge(t *testing.T) {
	a := NewValidationResult()
	b := NewValidationResult()
	b.AddError("description", "too long")

	a.Merge(b)
	if a.Valid {
		t.Error("Merging an invalid result should invalidate the target")
	}
	if a.Errors["description"] != "too long" {
		t.Errorf("Expected merged error, got %v", a.Errors)
	}

	a.Merge(nil) // must not panic
}
