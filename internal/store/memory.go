package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map guarded by an RWMutex and mirrors the Postgres store's
// semantics, including conflict detection, partial updates and the
// no-op empty patch. Suitable for development and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	flags  map[string]FeatureFlag // flag_key -> row
	nextID int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]FeatureFlag), nextID: 1}
}

// List retrieves flags sorted by flag_key, optionally filtered by a
// case-insensitive substring match on flag_key or description.
func (m *MemoryStore) List(ctx context.Context, search string) ([]FeatureFlag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term := strings.ToLower(search)
	result := make([]FeatureFlag, 0, len(m.flags))
	for _, flag := range m.flags {
		if term != "" &&
			!strings.Contains(strings.ToLower(flag.FlagKey), term) &&
			!strings.Contains(strings.ToLower(flag.Description), term) {
			continue
		}
		result = append(result, cloneFlag(flag))
	}
	sortByKey(result)
	return result, nil
}

// ListEnabled retrieves enabled flags sorted by flag_key.
func (m *MemoryStore) ListEnabled(ctx context.Context) ([]FeatureFlag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FeatureFlag, 0, len(m.flags))
	for _, flag := range m.flags {
		if flag.Enabled {
			result = append(result, cloneFlag(flag))
		}
	}
	sortByKey(result)
	return result, nil
}

// GetByKey retrieves a single flag by its key.
func (m *MemoryStore) GetByKey(ctx context.Context, key string) (*FeatureFlag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[key]
	if !exists {
		return nil, ErrNotFound
	}
	out := cloneFlag(flag)
	return &out, nil
}

// Create persists a new flag, applying the documented defaults.
func (m *MemoryStore) Create(ctx context.Context, params CreateParams) (*FeatureFlag, error) {
	data, err := normalizeFlagData(params.FlagData)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[params.FlagKey]; exists {
		return nil, ErrConflict
	}

	now := time.Now().UTC()
	flag := FeatureFlag{
		ID:          m.nextID,
		FlagKey:     params.FlagKey,
		Description: params.Description,
		Enabled:     params.Enabled,
		FlagData:    append(json.RawMessage(nil), data...),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.flags[params.FlagKey] = flag

	out := cloneFlag(flag)
	return &out, nil
}

// Update applies only the fields present in patch. An empty patch
// returns the current row without touching updated_at or version.
func (m *MemoryStore) Update(ctx context.Context, key string, patch Patch) (*FeatureFlag, error) {
	if patch.IsEmpty() {
		return m.GetByKey(ctx, key)
	}

	var data []byte
	if patch.FlagData != nil {
		var err error
		if data, err = normalizeFlagData(patch.FlagData); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[key]
	if !exists {
		return nil, ErrNotFound
	}

	if patch.Description != nil {
		flag.Description = *patch.Description
	}
	if patch.Enabled != nil {
		flag.Enabled = *patch.Enabled
	}
	if data != nil {
		flag.FlagData = append(json.RawMessage(nil), data...)
	}
	flag.Version++
	flag.UpdatedAt = touch(flag.UpdatedAt)
	m.flags[key] = flag

	out := cloneFlag(flag)
	return &out, nil
}

// Toggle flips enabled under the store lock, the in-memory equivalent
// of the single-statement SQL toggle.
func (m *MemoryStore) Toggle(ctx context.Context, key string) (*FeatureFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[key]
	if !exists {
		return nil, ErrNotFound
	}

	flag.Enabled = !flag.Enabled
	flag.Version++
	flag.UpdatedAt = touch(flag.UpdatedAt)
	m.flags[key] = flag

	out := cloneFlag(flag)
	return &out, nil
}

// Delete removes the flag. Reports whether a row was deleted.
func (m *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[key]; !exists {
		return false, nil
	}
	delete(m.flags, key)
	return true, nil
}

// Ping is a no-op for MemoryStore.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error { return nil }

// touch returns the current time, nudged forward if the clock has not
// advanced past prev, keeping updated_at strictly monotonic per row.
func touch(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func sortByKey(flags []FeatureFlag) {
	sort.Slice(flags, func(i, j int) bool { return flags[i].FlagKey < flags[j].FlagKey })
}

func cloneFlag(f FeatureFlag) FeatureFlag {
	f.FlagData = append(json.RawMessage(nil), f.FlagData...)
	return f
}
