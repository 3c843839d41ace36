package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	params := CreateParams{
		FlagKey:     "test-flag",
		Description: "Test flag description",
		Enabled:     true,
		FlagData:    json.RawMessage(`{"value":42}`),
	}

	created, err := st.Create(ctx, params)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("Expected generated id")
	}
	if created.Version != 1 {
		t.Errorf("Expected version 1, got %d", created.Version)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}

	flag, err := st.GetByKey(ctx, "test-flag")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if flag.FlagKey != "test-flag" {
		t.Errorf("Expected key 'test-flag', got '%s'", flag.FlagKey)
	}
	if !flag.Enabled {
		t.Error("Expected Enabled to be true")
	}
	if !bytes.Equal(flag.FlagData, []byte(`{"value":42}`)) {
		t.Errorf("Expected flag_data to round-trip, got %s", flag.FlagData)
	}
}

func TestMemoryStore_CreateDefaults(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	flag, err := st.Create(ctx, CreateParams{FlagKey: "x"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if flag.Description != "" {
		t.Errorf("Expected empty description, got '%s'", flag.Description)
	}
	if flag.Enabled {
		t.Error("Expected Enabled to default to false")
	}
	if string(flag.FlagData) != "{}" {
		t.Errorf("Expected flag_data to default to {}, got %s", flag.FlagData)
	}
}

func TestMemoryStore_CreateDuplicateConflict(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Create(ctx, CreateParams{FlagKey: "dup"}); err != nil {
		t.Fatalf("First Create failed: %v", err)
	}

	_, err := st.Create(ctx, CreateParams{FlagKey: "dup"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestMemoryStore_CreateInvalidPayload(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.Create(ctx, CreateParams{
		FlagKey:  "bad",
		FlagData: json.RawMessage(`{"broken":`),
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.GetByKey(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_PartialUpdatePreservesFields(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.Create(ctx, CreateParams{
		FlagKey:     "partial",
		Description: "d",
		Enabled:     true,
		FlagData:    json.RawMessage(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	enabled := false
	flag, err := st.Update(ctx, "partial", Patch{Enabled: &enabled})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if flag.Description != "d" {
		t.Errorf("Expected description preserved, got '%s'", flag.Description)
	}
	if !bytes.Equal(flag.FlagData, []byte(`{"a":1}`)) {
		t.Errorf("Expected flag_data preserved, got %s", flag.FlagData)
	}
	if flag.Enabled {
		t.Error("Expected Enabled to be false after update")
	}
	if flag.Version != 2 {
		t.Errorf("Expected version 2, got %d", flag.Version)
	}
}

func TestMemoryStore_EmptyPatchIsNoOp(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, CreateParams{FlagKey: "noop"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	flag, err := st.Update(ctx, "noop", Patch{})
	if err != nil {
		t.Fatalf("Empty-patch Update failed: %v", err)
	}

	if !flag.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("Empty patch must not advance updated_at: %v -> %v",
			created.UpdatedAt, flag.UpdatedAt)
	}
	if flag.Version != created.Version {
		t.Errorf("Empty patch must not bump version: %d -> %d",
			created.Version, flag.Version)
	}
}

func TestMemoryStore_NonEmptyPatchAdvancesUpdatedAt(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, CreateParams{FlagKey: "ts"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	desc := "changed"
	flag, err := st.Update(ctx, "ts", Patch{Description: &desc})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !flag.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("Expected updated_at to strictly advance: %v -> %v",
			created.UpdatedAt, flag.UpdatedAt)
	}
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	st := NewMemoryStore()
	desc := "x"

	_, err := st.Update(context.Background(), "ghost", Patch{Description: &desc})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_TogglePair(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, CreateParams{FlagKey: "flip", Enabled: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	once, err := st.Toggle(ctx, "flip")
	if err != nil {
		t.Fatalf("First Toggle failed: %v", err)
	}
	if once.Enabled {
		t.Error("Expected Enabled false after first toggle")
	}

	twice, err := st.Toggle(ctx, "flip")
	if err != nil {
		t.Fatalf("Second Toggle failed: %v", err)
	}
	if twice.Enabled != created.Enabled {
		t.Error("Expected two toggles to restore the original state")
	}
}

func TestMemoryStore_ToggleMissing(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := st.Toggle(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Toggle #%d: expected ErrNotFound, got %v", i+1, err)
		}
	}
}

func TestMemoryStore_DeleteThenGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.Create(ctx, CreateParams{FlagKey: "gone"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := st.Delete(ctx, "gone")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !found {
		t.Error("Expected Delete to report found=true")
	}

	if _, err := st.GetByKey(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	found, err = st.Delete(ctx, "gone")
	if err != nil {
		t.Fatalf("Second Delete errored: %v", err)
	}
	if found {
		t.Error("Expected Delete of missing key to report found=false")
	}
}

func TestMemoryStore_ListSortedByKey(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"charlie", "alpha", "bravo"} {
		if _, err := st.Create(ctx, CreateParams{FlagKey: key}); err != nil {
			t.Fatalf("Create %s failed: %v", key, err)
		}
	}

	flags, err := st.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"alpha", "bravo", "charlie"}
	if len(flags) != len(want) {
		t.Fatalf("Expected %d flags, got %d", len(want), len(flags))
	}
	for i, key := range want {
		if flags[i].FlagKey != key {
			t.Errorf("Position %d: expected %s, got %s", i, key, flags[i].FlagKey)
		}
	}
}

func TestMemoryStore_SearchCaseInsensitive(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	seed := []CreateParams{
		{FlagKey: "Dark-Mode"},
		{FlagKey: "light-theme", Description: "DARK backgrounds too"},
		{FlagKey: "unrelated"},
	}
	for _, p := range seed {
		if _, err := st.Create(ctx, p); err != nil {
			t.Fatalf("Create %s failed: %v", p.FlagKey, err)
		}
	}

	flags, err := st.List(ctx, "dark")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(flags) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(flags))
	}
	if flags[0].FlagKey != "Dark-Mode" || flags[1].FlagKey != "light-theme" {
		t.Errorf("Unexpected matches: %s, %s", flags[0].FlagKey, flags[1].FlagKey)
	}

	flags, err = st.List(ctx, "no-such-term")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("Expected empty result, got %d flags", len(flags))
	}
}

func TestMemoryStore_ListEnabled(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	seed := []CreateParams{
		{FlagKey: "on-1", Enabled: true},
		{FlagKey: "off", Enabled: false},
		{FlagKey: "on-2", Enabled: true},
	}
	for _, p := range seed {
		if _, err := st.Create(ctx, p); err != nil {
			t.Fatalf("Create %s failed: %v", p.FlagKey, err)
		}
	}

	flags, err := st.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled failed: %v", err)
	}

	if len(flags) != 2 {
		t.Fatalf("Expected 2 enabled flags, got %d", len(flags))
	}
	if flags[0].FlagKey != "on-1" || flags[1].FlagKey != "on-2" {
		t.Errorf("Unexpected enabled flags: %s, %s", flags[0].FlagKey, flags[1].FlagKey)
	}
}

func TestPatch_IsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Error("Zero patch should be empty")
	}

	desc := ""
	if (Patch{Description: &desc}).IsEmpty() {
		t.Error("Patch with a present (even zero-valued) field is not empty")
	}
	if (Patch{FlagData: json.RawMessage(`{}`)}).IsEmpty() {
		t.Error("Patch with flag_data is not empty")
	}
}
