package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/suhasdasari/S4D5/store"
)

const recordExt = ".json"

// FileOptions configures a file store.
type FileOptions struct {
	// Dir holds one JSON document per run. It is created if missing.
	Dir string `mapstructure:"dir"`
}

// FileAuditStore writes each record to <dir>/<run id>.json.
type FileAuditStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileAuditStore creates a store rooted at dir
func NewFileAuditStore(dir string) (*FileAuditStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create directory: %w", err)
	}
	return &FileAuditStore{dir: dir}, nil
}

// NewFileAuditStoreWithOptions creates a store from decoded options
func NewFileAuditStoreWithOptions(opts FileOptions) (*FileAuditStore, error) {
	return NewFileAuditStore(opts.Dir)
}

func (s *FileAuditStore) path(runID string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", fmt.Errorf("file store: invalid run id %q", runID)
	}
	return filepath.Join(s.dir, runID+recordExt), nil
}

// Save stores a record, replacing the file atomically
func (s *FileAuditStore) Save(_ context.Context, record *store.Record) error {
	if record == nil {
		return fmt.Errorf("file store: nil record")
	}
	path, err := s.path(record.RunID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Load retrieves a record by run ID
func (s *FileAuditStore) Load(_ context.Context, runID string) (*store.Record, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readRecord(path, runID)
}

func readRecord(path, runID string) (*store.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("failed to read record %s: %w", runID, err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", runID, err)
	}
	return &rec, nil
}

// List returns the records of a workflow
func (s *FileAuditStore) List(_ context.Context, workflow string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := []*store.Record{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		rec, err := readRecord(filepath.Join(s.dir, name), strings.TrimSuffix(name, recordExt))
		if err != nil {
			return nil, err
		}
		if workflow == "" || rec.Workflow == workflow {
			records = append(records, rec)
		}
	}

	store.SortRecords(records)
	return records, nil
}

// Delete removes a record
func (s *FileAuditStore) Delete(_ context.Context, runID string) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, runID)
		}
		return fmt.Errorf("failed to delete record %s: %w", runID, err)
	}
	return nil
}
