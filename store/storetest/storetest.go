// Package storetest holds the behaviour every store.AuditStore backend must
// share, as a reusable test suite.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/store"
)

// Base is the creation time of the first record built by NewRecord callers in
// the suite.
var Base = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

// NewRecord builds a record with a two-entry audit trail.
func NewRecord(runID, workflow string, createdAt time.Time) *store.Record {
	return &store.Record{
		RunID:    runID,
		Workflow: workflow,
		Status:   graph.StatusTerminatedEarly.String(),
		Terminal: graph.END,
		Outcome:  "high_risk",
		Steps:    []string{"planner", "researcher"},
		Entries: []graph.AuditEntry{
			{
				Sequence:  1,
				Step:      "Goal Decomposition",
				Timestamp: createdAt,
				Details:   map[string]any{"goal": "Find alpha in BTC"},
			},
			{
				Sequence:  2,
				Step:      "Market Research",
				Timestamp: createdAt.Add(time.Millisecond),
				Details:   map[string]any{"risk": "High Liquidity Risk"},
			},
		},
		State: map[string]any{
			"goal":            "Find alpha in BTC",
			"risk_assessment": "High Liquidity Risk",
		},
		CreatedAt: createdAt,
	}
}

// Run exercises the AuditStore contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.AuditStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		rec := NewRecord("run-1", "alpha_strategist", Base)
		require.NoError(t, s.Save(ctx, rec))

		loaded, err := s.Load(ctx, "run-1")
		require.NoError(t, err)
		AssertRecordEqual(t, rec, loaded)
	})

	t.Run("load missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		rec := NewRecord("run-1", "alpha_strategist", Base)
		require.NoError(t, s.Save(ctx, rec))

		rec.Status = graph.StatusCompleted.String()
		rec.Steps = append(rec.Steps, "bull")
		require.NoError(t, s.Save(ctx, rec))

		loaded, err := s.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", loaded.Status)
		assert.Equal(t, []string{"planner", "researcher", "bull"}, loaded.Steps)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list by workflow in creation order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, NewRecord("c", "alpha_strategist", Base.Add(2*time.Second))))
		require.NoError(t, s.Save(ctx, NewRecord("a", "alpha_strategist", Base)))
		require.NoError(t, s.Save(ctx, NewRecord("x", "screening", Base.Add(time.Second))))
		require.NoError(t, s.Save(ctx, NewRecord("b", "alpha_strategist", Base.Add(time.Second))))

		alpha, err := s.List(ctx, "alpha_strategist")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, runIDs(alpha))

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "x", "c"}, runIDs(all))

		none, err := s.List(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, NewRecord("run-1", "alpha_strategist", Base)))
		require.NoError(t, s.Delete(ctx, "run-1"))

		_, err := s.Load(ctx, "run-1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		list, err := s.List(ctx, "alpha_strategist")
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.ErrorIs(t, s.Delete(ctx, "run-1"), store.ErrNotFound)
	})
}

// AssertRecordEqual compares records field by field, using time equality
// rather than struct equality for timestamps.
func AssertRecordEqual(t *testing.T, want, got *store.Record) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Workflow, got.Workflow)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Terminal, got.Terminal)
	assert.Equal(t, want.Outcome, got.Outcome)
	assert.Equal(t, want.Error, got.Error)
	assert.Equal(t, want.Steps, got.Steps)
	assert.Equal(t, want.State, got.State)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", want.CreatedAt, got.CreatedAt)

	require.Len(t, got.Entries, len(want.Entries))
	for i := range want.Entries {
		assert.Equal(t, want.Entries[i].Sequence, got.Entries[i].Sequence)
		assert.Equal(t, want.Entries[i].Step, got.Entries[i].Step)
		assert.Equal(t, want.Entries[i].Details, got.Entries[i].Details)
		assert.True(t, want.Entries[i].Timestamp.Equal(got.Entries[i].Timestamp))
	}
}

func runIDs(records []*store.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RunID)
	}
	return ids
}
