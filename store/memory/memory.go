package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/suhasdasari/S4D5/store"
)

// MemoryAuditStore keeps records in a map. Records are copied on the way in
// and out, so callers never share data with the store.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

// NewMemoryAuditStore creates an empty in-memory store
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{
		records: make(map[string]*store.Record),
	}
}

// Save stores a record
func (s *MemoryAuditStore) Save(_ context.Context, record *store.Record) error {
	if record == nil || record.RunID == "" {
		return fmt.Errorf("record must have a run id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.RunID] = record.Clone()
	return nil
}

// Load retrieves a record by run ID
func (s *MemoryAuditStore) Load(_ context.Context, runID string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	return rec.Clone(), nil
}

// List returns the records of a workflow
func (s *MemoryAuditStore) List(_ context.Context, workflow string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.Record, 0, len(s.records))
	for _, rec := range s.records {
		if workflow == "" || rec.Workflow == workflow {
			out = append(out, rec.Clone())
		}
	}
	store.SortRecords(out)
	return out, nil
}

// Delete removes a record
func (s *MemoryAuditStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[runID]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	delete(s.records, runID)
	return nil
}
