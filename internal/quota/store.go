package quota

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Store defines persistence for the ledger document.
type Store interface {
	Load() (ledgerState, error)
	Save(ledgerState) error
}

// JSONStore persists the ledger in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed ledger store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the ledger from disk. A missing file yields an empty ledger.
func (s *JSONStore) Load() (ledgerState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ledgerState{Accounts: make(map[string]*Account)}, nil
		}
		return ledgerState{}, err
	}

	var state ledgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return ledgerState{}, err
	}
	if state.Accounts == nil {
		state.Accounts = make(map[string]*Account)
	}

	return state, nil
}

// Save writes the full ledger as indented JSON, creating parent directories.
func (s *JSONStore) Save(state ledgerState) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// MemStore is an in-memory ledger store for tests.
type MemStore struct {
	state ledgerState
	saves int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: ledgerState{Accounts: make(map[string]*Account)}}
}

// Load returns a deep copy of the held state.
func (s *MemStore) Load() (ledgerState, error) {
	return copyState(s.state), nil
}

// Save replaces the held state with a deep copy.
func (s *MemStore) Save(state ledgerState) error {
	s.state = copyState(state)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemStore) Saves() int {
	return s.saves
}

func copyState(state ledgerState) ledgerState {
	out := ledgerState{
		Accounts:    make(map[string]*Account, len(state.Accounts)),
		LastUpdated: state.LastUpdated,
	}
	for id, acc := range state.Accounts {
		copied := *acc
		out.Accounts[id] = &copied
	}
	return out
}
