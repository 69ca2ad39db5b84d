package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(filepath.Join(t.TempDir(), "run-abc"))
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	if _, ok, err := store.Get(0, StageRaw); err != nil || ok {
		t.Fatalf("Get() before Put = ok=%v err=%v, want absent", ok, err)
	}

	if err := store.Put(0, StageRaw, "raw text"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	text, ok, err := store.Get(0, StageRaw)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || text != "raw text" {
		t.Errorf("Get() = (%q, %v), want (raw text, true)", text, ok)
	}

	// Stage keys must not collide.
	if _, ok, _ := store.Get(0, StageProcessed); ok {
		t.Error("processed artifact reported present after raw Put")
	}
}

func TestFSStoreFileNaming(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	if err := store.Put(7, StageRaw, "a"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(7, StageProcessed, "b"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	for _, name := range []string{"raw_007.txt", "processed_007.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected artifact file %s: %v", name, err)
		}
	}
}

func TestFSStorePreservesErrorTextVerbatim(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	marker := "[error: transcribing segment 3 failed: remote call failed with status 503: overloaded]"
	if err := store.Put(3, StageRaw, marker); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	text, _, err := store.Get(3, StageRaw)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if text != marker {
		t.Errorf("artifact text = %q, want verbatim marker", text)
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	if err := store.Put(1, StageProcessed, "clean"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	text, ok, err := store.Get(1, StageProcessed)
	if err != nil || !ok || text != "clean" {
		t.Errorf("Get() = (%q, %v, %v)", text, ok, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}
