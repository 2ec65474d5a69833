package graph

import (
	"context"
	"time"

	"github.com/suhasdasari/S4D5/log"
)

// EventKind represents the different points of a run listeners are told about
type EventKind string

const (
	// EventRunStart is emitted once the initial state has been built
	EventRunStart EventKind = "run_start"

	// EventStepStart is emitted before a step is invoked
	EventStepStart EventKind = "step_start"

	// EventStepEnd is emitted after a step's delta has been merged
	EventStepEnd EventKind = "step_end"

	// EventStepError is emitted when a step or the merge of its delta fails
	EventStepError EventKind = "step_error"

	// EventRouteError is emitted when a conditional edge cannot pick a target.
	// The step itself completed and already had its EventStepEnd.
	EventRouteError EventKind = "route_error"

	// EventRoute is emitted when a conditional edge picks an outcome
	EventRoute EventKind = "route"

	// EventRunEnd is emitted when the run stops, whatever the status
	EventRunEnd EventKind = "run_end"
)

// Event describes something that happened during a run.
type Event struct {
	Kind  EventKind
	Graph string
	RunID string
	Step  string

	// Outcome and Target are set on EventRoute. Outcome is also set on
	// EventRouteError when the router returned a label.
	Outcome string
	Target  string

	// Status is set on EventRunEnd.
	Status Status

	Err error

	// Duration is set on EventStepEnd and EventRunEnd.
	Duration  time.Duration
	Timestamp time.Time
}

// Listener receives run events synchronously, in execution order.
type Listener interface {
	OnEvent(ctx context.Context, event Event)
}

// ListenerFunc is a function adapter for Listener
type ListenerFunc func(ctx context.Context, event Event)

// OnEvent implements the Listener interface
func (f ListenerFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

// emit notifies every listener. A panicking listener is logged and skipped so
// it cannot change the outcome of the run.
func (r *Runnable) emit(ctx context.Context, event Event) {
	event.Graph = r.name
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	for _, l := range r.listeners {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("listener panicked on %s: %v", event.Kind, p)
				}
			}()
			l.OnEvent(ctx, event)
		}()
	}
}

// LoggingListener writes every event to a Logger.
type LoggingListener struct {
	Logger log.Logger
}

// NewLoggingListener creates a listener logging to logger
func NewLoggingListener(logger log.Logger) *LoggingListener {
	return &LoggingListener{Logger: logger}
}

// OnEvent implements the Listener interface
func (l *LoggingListener) OnEvent(_ context.Context, e Event) {
	switch e.Kind {
	case EventRunStart:
		l.Logger.Info("run %s started", e.RunID)
	case EventStepStart:
		l.Logger.Debug("run %s: step %s started", e.RunID, e.Step)
	case EventStepEnd:
		l.Logger.Info("run %s: step %s completed in %s", e.RunID, e.Step, e.Duration)
	case EventStepError:
		l.Logger.Error("run %s: step %s failed: %v", e.RunID, e.Step, e.Err)
	case EventRouteError:
		l.Logger.Error("run %s: routing after %s failed: %v", e.RunID, e.Step, e.Err)
	case EventRoute:
		l.Logger.Info("run %s: %s routed %q -> %s", e.RunID, e.Step, e.Outcome, e.Target)
	case EventRunEnd:
		if e.Err != nil {
			l.Logger.Error("run %s finished %s after %s: %v", e.RunID, e.Status, e.Duration, e.Err)
			return
		}
		l.Logger.Info("run %s finished %s after %s", e.RunID, e.Status, e.Duration)
	}
}
