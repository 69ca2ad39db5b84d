package artifacts

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")

	store, err := OpenSQLiteStore(path, "run-1")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

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
}

func TestSQLiteStorePutDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")

	store, err := OpenSQLiteStore(path, "run-1")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Put(2, StageProcessed, "first"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(2, StageProcessed, "second"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	text, _, err := store.Get(2, StageProcessed)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if text != "first" {
		t.Errorf("artifact = %q, want the original completion marker kept", text)
	}
}

func TestSQLiteStoreScopesByRunKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")

	runA, err := OpenSQLiteStore(path, "run-a")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer runA.Close()

	runB, err := OpenSQLiteStore(path, "run-b")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer runB.Close()

	if err := runA.Put(0, StageRaw, "belongs to a"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok, _ := runB.Get(0, StageRaw); ok {
		t.Error("run-b sees run-a's artifact")
	}
	if _, ok, _ := runA.Get(0, StageRaw); !ok {
		t.Error("run-a cannot see its own artifact")
	}
}
