package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type snapshot struct {
	Commands []Entry `json:"commands"`
}

// JSONStore keeps the whole log in one JSON file that is rewritten on each append
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by the file at path. The file is
// created on first append.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Append adds entry to the file. An unreadable or corrupt file is replaced
// by a fresh log rather than reported.
func (s *JSONStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		entries = nil
	}

	entries = append(entries, entry)
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot{Commands: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return os.Chmod(s.path, 0600)
}

// All returns the stored entries. A missing file is an empty log.
func (s *JSONStore) All(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Close is a no-op
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return snap.Commands, nil
}
