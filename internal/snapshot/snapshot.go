package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/flagkeep/flagkeep/internal/store"
)

// FlagView is the read-optimized projection of a flag served to SDK
// clients polling the snapshot endpoint.
type FlagView struct {
	FlagKey     string          `json:"flag_key"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	FlagData    json.RawMessage `json:"flag_data"`
	Version     int32           `json:"version"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot is an immutable view of all flags plus a weak ETag derived
// from the flag contents, so unchanged polls answer 304.
type Snapshot struct {
	ETag      string              `json:"etag"`
	Flags     map[string]FlagView `json:"flags"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Holder keeps the current snapshot behind an atomic pointer. It is
// constructed once at startup and handed to the API server; readers
// never block writers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates an empty snapshot holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current snapshot, or an empty one before the first
// rebuild.
func (h *Holder) Load() *Snapshot {
	if s := h.current.Load(); s != nil {
		return s
	}
	return &Snapshot{ETag: "", Flags: map[string]FlagView{}, UpdatedAt: time.Now().UTC()}
}

// Update swaps in a new snapshot.
func (h *Holder) Update(s *Snapshot) {
	h.current.Store(s)
}

// BuildFromFlags assembles a snapshot from store rows and computes its ETag.
func BuildFromFlags(rows []store.FeatureFlag) *Snapshot {
	flags := make(map[string]FlagView, len(rows))
	for _, r := range rows {
		flags[r.FlagKey] = FlagView{
			FlagKey:     r.FlagKey,
			Description: r.Description,
			Enabled:     r.Enabled,
			FlagData:    r.FlagData,
			Version:     r.Version,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	blob, _ := json.Marshal(flags)
	sum := sha256.Sum256(blob)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return &Snapshot{ETag: etag, Flags: flags, UpdatedAt: time.Now().UTC()}
}
