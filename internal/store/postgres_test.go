package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "dark", "dark"},
		{"percent", "50%", `50\%`},
		{"underscore", "dark_mode", `dark\_mode`},
		{"backslash", `a\b`, `a\\b`},
		{"mixed", `%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeLike(tt.input); got != tt.want {
				t.Errorf("escapeLike(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"unique violation", "23505", ErrConflict},
		{"invalid text representation", "22P02", ErrInvalidPayload},
		{"invalid json text", "22032", ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapPgError(&pgconn.PgError{Code: tt.code})
			if !errors.Is(err, tt.want) {
				t.Errorf("mapPgError(code=%s) = %v, want %v", tt.code, err, tt.want)
			}
		})
	}
}

func TestMapPgError_Passthrough(t *testing.T) {
	sentinel := errors.New("connection refused")
	if got := mapPgError(sentinel); !errors.Is(got, sentinel) {
		t.Errorf("Expected unclassified error to pass through, got %v", got)
	}
}

func TestNormalizeFlagData(t *testing.T) {
	data, err := normalizeFlagData(nil)
	if err != nil {
		t.Fatalf("nil payload should be valid: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected nil to normalize to {}, got %s", data)
	}

	for _, valid := range []string{`{"a":1}`, `[1,2]`, `"scalar"`, `42`, `null`} {
		if _, err := normalizeFlagData([]byte(valid)); err != nil {
			t.Errorf("Expected %s to be accepted: %v", valid, err)
		}
	}

	if _, err := normalizeFlagData([]byte(`{"broken":`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload for malformed JSON, got %v", err)
	}
}
