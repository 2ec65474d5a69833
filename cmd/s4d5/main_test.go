package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suhasdasari/S4D5/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// fileConfig writes a config that persists runs under a temporary directory.
func fileConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "s4d5.yaml")
	content := "log:\n  level: none\nstore:\n  backend: file\n  options:\n    dir: " + filepath.Join(dir, "runs") + "\nworkflow:\n  seed: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "--config", fileConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "config ok")
	assert.Contains(t, out, "store=file")
	assert.Contains(t, out, "alpha_strategist: 6 steps, entry Planner")
}

func TestValidate_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: tape\n"), 0o644))

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestStoreFlagOverridesConfig(t *testing.T) {
	out, err := execute(t, "validate", "--config", fileConfig(t), "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "store=memory")

	_, err = execute(t, "validate", "--store", "tape")
	assert.Error(t, err)
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", "--config", fileConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "Researcher -.->|high_risk| END")

	out, err = execute(t, "graph", "--config", fileConfig(t), "--format", "ascii")
	require.NoError(t, err)
	assert.Contains(t, out, "Graph Execution Flow (alpha_strategist):")

	out, err = execute(t, "graph", "--config", fileConfig(t), "--format", "mermaid", "--direction", "LR")
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart LR")

	_, err = execute(t, "graph", "--config", fileConfig(t), "--format", "png")
	assert.Error(t, err)
}

func TestRunThenAudit(t *testing.T) {
	cfg := fileConfig(t)

	out, err := execute(t, "run", "--config", cfg, "--goal", "Find alpha in BTC markets", "--json")
	require.NoError(t, err)

	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "alpha_strategist", rec.Workflow)
	assert.Contains(t, []string{"COMPLETED", "TERMINATED_EARLY"}, rec.Status)
	require.NotEmpty(t, rec.Entries)
	assert.Equal(t, "Goal Decomposition", rec.Entries[0].Step)
	assert.Equal(t, "Find alpha in BTC markets", rec.State["goal"])

	out, err = execute(t, "audit", "show", rec.RunID, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, rec.RunID)
	assert.Contains(t, out, "Goal Decomposition")
	assert.Contains(t, out, rec.Status)

	out, err = execute(t, "audit", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, rec.RunID)

	out, err = execute(t, "audit", "list", "--config", cfg, "--workflow", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")

	_, err = execute(t, "audit", "delete", rec.RunID, "--config", cfg)
	require.NoError(t, err)

	_, err = execute(t, "audit", "show", rec.RunID, "--config", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_SeedIsReproducible(t *testing.T) {
	cfg := fileConfig(t)

	run := func() store.Record {
		out, err := execute(t, "run", "--config", cfg, "--seed", "7", "--json")
		require.NoError(t, err)
		var rec store.Record
		require.NoError(t, json.Unmarshal([]byte(out), &rec))
		return rec
	}
	a, b := run(), run()

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.Steps, b.Steps)
	assert.Equal(t, a.State["research_data"], b.State["research_data"])
}

func TestRun_RendersSummary(t *testing.T) {
	out, err := execute(t, "run", "--config", fileConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "Audit trail")
	assert.Contains(t, out, "Planner -> Researcher")
}
