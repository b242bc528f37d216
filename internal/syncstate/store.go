package syncstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notewise/internal/logger"
)

// Record is the persisted sync state of one note. It is written after
// every successful upsert and consulted to decide whether the note
// needs syncing again.
type Record struct {
	ID           string         `json:"id"`
	Path         string         `json:"path"`
	LastSync     time.Time      `json:"lastSync"`
	LastModified time.Time      `json:"lastModified"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Vectors      [][]float32    `json:"vectors,omitempty"`
}

// Store keeps one JSON file per vector identifier under a state
// directory. Writes are atomic so a crash mid-write never leaves a
// truncated record behind.
type Store struct {
	dir string
	log *logger.Logger
}

// NewStore creates a store over the given state directory. The
// directory is created on first use, not here.
func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{
		dir: filepath.Clean(dir),
		log: log.WithComponent("syncstate"),
	}
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Ensure creates the state directory if it does not exist.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", s.dir, err)
	}
	return nil
}

// Read loads the record for a vector identifier. A missing or
// unparsable file yields (nil, nil): either way the caller should
// treat the note as never synced, and a corrupt record is logged and
// overwritten on the next sync rather than blocking it.
func (s *Store) Read(id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sync state %s: %w", id, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.log.Warn("discarding corrupt sync state %s: %v", id, err)
		return nil, nil
	}

	return &record, nil
}

// Write persists a record, creating the state directory if needed.
func (s *Store) Write(record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("sync state record has no id")
	}
	if err := s.Ensure(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state %s: %w", record.ID, err)
	}

	// Write to a temp file in the same directory, then rename into
	// place. Rename is atomic on the same filesystem.
	tmp, err := os.CreateTemp(s.dir, record.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write sync state %s: %w", record.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(record.ID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to store sync state %s: %w", record.ID, err)
	}

	return nil
}

// Delete removes the record for a vector identifier. Deleting a
// record that does not exist is not an error.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete sync state %s: %w", id, err)
	}
	return nil
}

// List returns every record currently on disk. Corrupt entries are
// skipped with a warning.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list state directory %s: %w", s.dir, err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.Read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
