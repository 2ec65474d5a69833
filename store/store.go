package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/suhasdasari/S4D5/graph"
)

// ErrNotFound is returned by Load and Delete for unknown run IDs.
var ErrNotFound = errors.New("audit record not found")

// Record is the persisted outcome of one workflow run: its status, the path
// it took, the full audit trail and the final state.
type Record struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`
	Status   string `json:"status"`
	Terminal string `json:"terminal,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Error    string `json:"error,omitempty"`

	Steps   []string           `json:"steps"`
	Entries []graph.AuditEntry `json:"entries"`

	// State holds the final state without the audit field.
	State map[string]any `json:"state,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AuditStore persists run records.
type AuditStore interface {
	// Save stores a record, replacing any record with the same run ID
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by run ID
	Load(ctx context.Context, runID string) (*Record, error)

	// List returns the records of a workflow ordered by creation time.
	// An empty workflow lists every record.
	List(ctx context.Context, workflow string) ([]*Record, error)

	// Delete removes a record
	Delete(ctx context.Context, runID string) error
}

// FromResult builds the record of a finished run. runErr is the error Invoke
// returned, if any.
func FromResult(workflow string, res *graph.Result, runErr error, createdAt time.Time) *Record {
	rec := &Record{
		RunID:     res.RunID,
		Workflow:  workflow,
		Status:    res.Status.String(),
		Terminal:  res.Terminal,
		Outcome:   res.Outcome,
		Steps:     slices.Clone(res.Steps),
		Entries:   slices.Clone(res.Audit()),
		CreatedAt: createdAt.UTC(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if len(res.State) > 0 {
		rec.State = make(map[string]any, len(res.State))
		maps.Copy(rec.State, res.State)
		delete(rec.State, graph.AuditField)
	}
	if rec.Entries == nil {
		rec.Entries = []graph.AuditEntry{}
	}
	return rec
}

// Clone returns a copy of the record that shares no slices or maps with r.
// State values themselves are not deep-copied.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Steps = slices.Clone(r.Steps)
	cp.Entries = make([]graph.AuditEntry, len(r.Entries))
	for i, e := range r.Entries {
		e.Details = maps.Clone(e.Details)
		cp.Entries[i] = e
	}
	cp.State = maps.Clone(r.State)
	return &cp
}

// SortRecords orders records by creation time, then run ID.
func SortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].RunID < records[j].RunID
	})
}
