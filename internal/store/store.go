package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations. Callers classify
// them with errors.Is; everything else is an unclassified store failure.
var (
	// ErrNotFound is returned when an operation targets a flag key
	// that does not exist.
	ErrNotFound = errors.New("flag not found")

	// ErrConflict is returned when creating a flag whose key already
	// exists. The authoritative guard is the store's unique constraint,
	// not any application-side existence check.
	ErrConflict = errors.New("flag key already exists")

	// ErrInvalidPayload is returned when flag_data is not well-formed JSON.
	ErrInvalidPayload = errors.New("flag data is not valid JSON")
)

// emptyJSONObject is the stored payload when none is supplied.
const emptyJSONObject = "{}"

// FeatureFlag represents a feature flag row. FlagKey is the external
// identifier; the numeric ID never appears in API paths.
type FeatureFlag struct {
	ID          int64           `json:"id"`
	FlagKey     string          `json:"flag_key"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	FlagData    json.RawMessage `json:"flag_data"`
	Version     int32           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateParams contains the parameters for creating a flag.
// Description defaults to "", Enabled to false and FlagData to {}.
type CreateParams struct {
	FlagKey     string          `json:"flag_key"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	FlagData    json.RawMessage `json:"flag_data,omitempty"`
}

// Patch describes a partial update. A nil field means "leave as is",
// so the zero value is an explicit no-op that must not touch the row.
type Patch struct {
	Description *string         `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	FlagData    json.RawMessage `json:"flag_data,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Description == nil && p.Enabled == nil && p.FlagData == nil
}

// Store defines the interface for flag persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// List retrieves all flags ordered by flag_key ascending. A non-empty
	// search term filters to flags whose key or description contains the
	// term case-insensitively. Returns an empty slice when nothing matches.
	List(ctx context.Context, search string) ([]FeatureFlag, error)

	// ListEnabled retrieves enabled flags, same ordering as List.
	ListEnabled(ctx context.Context) ([]FeatureFlag, error)

	// GetByKey retrieves a single flag by its key.
	// Returns ErrNotFound if no such flag exists.
	GetByKey(ctx context.Context, key string) (*FeatureFlag, error)

	// Create persists a new flag and returns it with generated id and
	// timestamps. Returns ErrConflict if the key already exists and
	// ErrInvalidPayload if FlagData is malformed JSON.
	Create(ctx context.Context, params CreateParams) (*FeatureFlag, error)

	// Update applies only the fields present in patch and returns the
	// updated row. An empty patch returns the current row without
	// advancing updated_at or version. Returns ErrNotFound if the key
	// does not exist.
	Update(ctx context.Context, key string, patch Patch) (*FeatureFlag, error)

	// Toggle flips enabled in a single atomic statement so that two
	// concurrent toggles cannot be lost. Returns ErrNotFound if the key
	// does not exist.
	Toggle(ctx context.Context, key string) (*FeatureFlag, error)

	// Delete removes the flag permanently. Reports whether a row was
	// deleted; a missing key is not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}
