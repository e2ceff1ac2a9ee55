package kv

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, store Store) {
	t.Helper()

	if _, ok, err := store.Load("missing"); err != nil || ok {
		t.Fatalf("Load(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := store.Save(KeyResults, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	value, ok, err := store.Load(KeyResults)
	if err != nil || !ok {
		t.Fatalf("Load() = ok %v, err %v", ok, err)
	}
	if string(value) != `[{"id":"1"}]` {
		t.Errorf("Load() = %q", value)
	}

	// Saving again overwrites in place.
	if err := store.Save(KeyResults, []byte(`[]`)); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	value, _, _ = store.Load(KeyResults)
	if string(value) != `[]` {
		t.Errorf("Load() after overwrite = %q", value)
	}

	if err := store.Delete(KeyResults); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := store.Load(KeyResults); ok {
		t.Error("key still present after Delete")
	}

	// Deleting a missing key is a no-op, not an error.
	if err := store.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	testStore(t, store)
}

func TestMemoryCopiesValues(t *testing.T) {
	store := NewMemory()

	original := []byte("abc")
	store.Save("k", original)
	original[0] = 'x'

	value, _, _ := store.Load("k")
	if string(value) != "abc" {
		t.Errorf("stored value aliased the caller's slice: %q", value)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.sqlite")

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	testStore(t, store)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.sqlite")

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := store.Save(KeyToken, []byte("tok-1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Load(KeyToken)
	if err != nil || !ok || string(value) != "tok-1" {
		t.Errorf("Load after reopen = %q, ok %v, err %v", value, ok, err)
	}
}
