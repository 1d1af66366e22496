package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store keeps the evaluation history in a single JSON document. Every append
// rewrites the whole document through a temp file and rename, so a crash at
// any point leaves either the previous or the new complete document on disk.
type Store struct {
	path string

	mu      sync.Mutex
	records []Record
	tested  map[string]struct{}
}

// NewStore returns a store backed by the JSON document at path. Call Load
// before use.
func NewStore(path string) *Store {
	return &Store{path: path, tested: make(map[string]struct{})}
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the history document. A missing file is an empty history, not
// an error. Any prior in-memory state is replaced.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.tested = make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	s.records = records
	for _, rec := range records {
		s.tested[CanonicalPath(rec.Candidate)] = struct{}{}
	}
	return nil
}

// Append adds one record and persists the whole document before returning.
// Empty IDs and zero timestamps are filled in.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.records = append(s.records, rec)
	if err := s.writeLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	s.tested[CanonicalPath(rec.Candidate)] = struct{}{}
	return nil
}

// Tested reports whether a candidate path was already evaluated, comparing
// canonical forms.
func (s *Store) Tested(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tested[CanonicalPath(candidate)]
	return ok
}

// Records returns a copy of all records in append order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the record with the given ID.
func (s *Store) Find(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// Stats summarizes the history for status reporting.
func (s *Store) Stats() (total, promoted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Promoted {
			promoted++
		}
	}
	return len(s.records), promoted
}

func (s *Store) writeLocked() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}
