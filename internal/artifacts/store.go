package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Stage identifies one of the two remote processing steps.
type Stage string

const (
	// StageRaw is the first stage: raw transcription from audio.
	StageRaw Stage = "raw"
	// StageProcessed is the second stage: cleanup/formatting of the raw text.
	StageProcessed Stage = "processed"
)

// Store persists checkpoint text keyed by (segment index, stage). Artifacts
// are written once when a stage completes and never mutated afterwards.
type Store interface {
	Get(segment int, stage Stage) (text string, ok bool, err error)
	Put(segment int, stage Stage, text string) error
}

// FSStore keeps one UTF-8 text file per key inside a run directory, e.g.
// raw_003.txt and processed_003.txt for segment 3.
type FSStore struct {
	dir string
}

// NewFSStore creates the run directory if needed and returns the store.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the run directory backing the store.
func (s *FSStore) Dir() string {
	return s.dir
}

// Get reads the artifact for the key; absence is not an error.
func (s *FSStore) Get(segment int, stage Stage) (string, bool, error) {
	data, err := os.ReadFile(s.path(segment, stage))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Put writes the artifact file for the key.
func (s *FSStore) Put(segment int, stage Stage, text string) error {
	return os.WriteFile(s.path(segment, stage), []byte(text), 0o644)
}

func (s *FSStore) path(segment int, stage Stage) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%03d.txt", stage, segment))
}

// MemStore is a map-backed store for tests.
type MemStore struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]string)}
}

// Get returns the held artifact for the key.
func (s *MemStore) Get(segment int, stage Stage) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.items[memKey(segment, stage)]
	return text, ok, nil
}

// Put records the artifact for the key.
func (s *MemStore) Put(segment int, stage Stage, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[memKey(segment, stage)] = text
	return nil
}

// Len reports the number of stored artifacts.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func memKey(segment int, stage Stage) string {
	return fmt.Sprintf("%s/%03d", stage, segment)
}
