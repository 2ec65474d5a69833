package graph_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suhasdasari/S4D5/graph"
)

type recordingListener struct {
	mu     sync.Mutex
	events []graph.Event
}

func (l *recordingListener) OnEvent(_ context.Context, e graph.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		if e.Step != "" {
			out = append(out, fmt.Sprintf("%s:%s", e.Kind, e.Step))
			continue
		}
		out = append(out, string(e.Kind))
	}
	return out
}

// captureLogger records formatted messages per level.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) add(level, format string, v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, level+" "+fmt.Sprintf(format, v...))
}

func (c *captureLogger) Debug(format string, v ...any) { c.add("DEBUG", format, v...) }
func (c *captureLogger) Info(format string, v ...any)  { c.add("INFO", format, v...) }
func (c *captureLogger) Warn(format string, v ...any)  { c.add("WARN", format, v...) }
func (c *captureLogger) Error(format string, v ...any) { c.add("ERROR", format, v...) }

func TestListeners_EventOrder(t *testing.T) {
	rec := &recordingListener{}
	r := screening(t, "High Liquidity Risk", nil).WithListeners(rec)

	res, err := r.Invoke(context.Background(), map[string]any{"goal": "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run_start",
		"step_start:plan",
		"step_end:plan",
		"step_start:check",
		"step_end:check",
		"route:check",
		"run_end",
	}, rec.kinds())

	route := rec.events[5]
	assert.Equal(t, "high_risk", route.Outcome)
	assert.Equal(t, graph.END, route.Target)

	end := rec.events[len(rec.events)-1]
	assert.Equal(t, graph.StatusTerminatedEarly, end.Status)
	assert.Equal(t, res.RunID, end.RunID)
	assert.Equal(t, "screening", end.Graph)
	assert.Equal(t, testClock, end.Timestamp)
}

func TestListeners_FailureEvents(t *testing.T) {
	rec := &recordingListener{}
	g := graph.NewStateGraph(nil)
	g.AddNode("a", "a", func(context.Context, graph.State) (graph.Delta, error) {
		return nil, errors.New("boom")
	})
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.WithListeners(rec).Invoke(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, []string{"run_start", "step_start:a", "step_error:a", "run_end"}, rec.kinds())
	assert.ErrorIs(t, rec.events[2].Err, graph.ErrStepFailed)
	assert.Equal(t, graph.StatusFailed, rec.events[3].Status)
}

func TestListeners_RouteErrorEvents(t *testing.T) {
	rec := &recordingListener{}
	g := graph.NewStateGraph(nil)
	g.AddNode("a", "a", noop)
	g.AddConditionalEdges("a", always("maybe"), map[string]string{"pass": graph.END})
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.WithListeners(rec).Invoke(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, []string{"run_start", "step_start:a", "step_end:a", "route_error:a", "run_end"}, rec.kinds())
	assert.ErrorIs(t, rec.events[3].Err, graph.ErrUndefinedOutcome)
	assert.Equal(t, "maybe", rec.events[3].Outcome)
}

func TestListeners_CanceledBeforeFirstStep(t *testing.T) {
	rec := &recordingListener{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := screening(t, "Stable", nil).WithListeners(rec).Invoke(ctx, map[string]any{"goal": "x"})
	require.Error(t, err)

	assert.Equal(t, []string{"run_start", "run_end"}, rec.kinds())
	assert.ErrorIs(t, rec.events[1].Err, context.Canceled)
}

func TestListeners_PanicDoesNotAffectRun(t *testing.T) {
	logger := &captureLogger{}
	panicky := graph.ListenerFunc(func(context.Context, graph.Event) { panic("listener bug") })
	rec := &recordingListener{}

	r := screening(t, "Stable", nil).WithLogger(logger).WithListeners(panicky, rec)
	res, err := r.Invoke(context.Background(), map[string]any{"goal": "x"})
	require.NoError(t, err)

	assert.Equal(t, graph.StatusCompleted, res.Status)
	assert.NotEmpty(t, rec.events, "later listeners still run")
	require.NotEmpty(t, logger.lines)
	assert.Contains(t, logger.lines[0], "listener panicked")
}

func TestListeners_WithListenersCopies(t *testing.T) {
	rec := &recordingListener{}
	base := screening(t, "Stable", nil)
	_ = base.WithListeners(rec)

	_, err := base.Invoke(context.Background(), map[string]any{"goal": "x"})
	require.NoError(t, err)
	assert.Empty(t, rec.events, "the original plan must not gain listeners")
}

func TestLoggingListener(t *testing.T) {
	logger := &captureLogger{}
	r := screening(t, "Stable", nil).WithListeners(graph.NewLoggingListener(logger))

	_, err := r.Invoke(context.Background(), map[string]any{"goal": "x"})
	require.NoError(t, err)

	require.NotEmpty(t, logger.lines)
	assert.Contains(t, logger.lines[0], "started")
	assert.Contains(t, logger.lines[len(logger.lines)-1], "finished COMPLETED")

	var routed bool
	for _, line := range logger.lines {
		if strings.Contains(line, `"pass" -> score`) {
			routed = true
		}
	}
	assert.True(t, routed)
}
