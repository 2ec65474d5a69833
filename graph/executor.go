package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a run.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	// StatusCompleted means a straight edge reached a terminal marker.
	StatusCompleted
	// StatusTerminatedEarly means a conditional edge resolved to a terminal marker.
	StatusTerminatedEarly
	// StatusFailed means a step, router or merge returned an error.
	StatusFailed
)

var statusNames = map[Status]string{
	StatusPending:         "PENDING",
	StatusRunning:         "RUNNING",
	StatusCompleted:       "COMPLETED",
	StatusTerminatedEarly: "TERMINATED_EARLY",
	StatusFailed:          "FAILED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a status name such as "TERMINATED_EARLY" back to a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown status %q", name)
}

// Result is what a run hands back to its caller.
type Result struct {
	RunID  string
	Status Status
	// State is the final state, or the last merged state for failed runs.
	State State
	// Steps lists the steps whose deltas were merged, in execution order.
	Steps []string
	// Terminal is the marker that ended the run; empty for failed runs.
	Terminal string
	// Outcome is the last routing label chosen, if any.
	Outcome string
}

// Audit returns the audit trail of the run.
func (r *Result) Audit() []AuditEntry {
	return r.State.Audit()
}

// Invoke runs the plan from the entry point with the given initial fields.
//
// The returned *Result is never nil. On failure it carries StatusFailed along
// with the state and audit trail merged before the failing step, and the error
// is one of *StepExecutionError, *RoutingError or *StateTypeError.
func (r *Runnable) Invoke(ctx context.Context, initial map[string]any) (*Result, error) {
	res := &Result{RunID: r.newRunID(), Status: StatusPending}
	started := r.now()

	state, err := r.schema.Init(initial)
	if err != nil {
		res.Status = StatusFailed
		res.State = State(initial).Clone()
		r.emit(ctx, Event{Kind: EventRunEnd, RunID: res.RunID, Status: res.Status, Err: err})
		return res, err
	}

	res.Status = StatusRunning
	r.emit(ctx, Event{Kind: EventRunStart, RunID: res.RunID})

	current := r.entry
	for {
		node := r.nodes[current]

		if err := ctx.Err(); err != nil {
			return r.fail(ctx, res, state, started, current, "", err)
		}

		stepStart := r.now()
		r.emit(ctx, Event{Kind: EventStepStart, RunID: res.RunID, Step: current})

		next, err := r.step(ctx, node, state)
		if err != nil {
			return r.fail(ctx, res, state, started, current, EventStepError, err)
		}
		state = next
		res.Steps = append(res.Steps, current)
		r.emit(ctx, Event{Kind: EventStepEnd, RunID: res.RunID, Step: current, Duration: r.now().Sub(stepStart)})

		if router, ok := r.routes[current]; ok {
			outcome, target, err := router.resolve(ctx, state)
			if err != nil {
				res.Outcome = outcome
				return r.fail(ctx, res, state, started, current, EventRouteError, err)
			}
			res.Outcome = outcome
			r.emit(ctx, Event{Kind: EventRoute, RunID: res.RunID, Step: current, Outcome: outcome, Target: target})

			if r.terminals[target] {
				res.Status = StatusTerminatedEarly
				res.Terminal = target
				break
			}
			current = target
			continue
		}

		target := r.next[current]
		if r.terminals[target] {
			res.Status = StatusCompleted
			res.Terminal = target
			break
		}
		current = target
	}

	res.State = state
	r.emit(ctx, Event{Kind: EventRunEnd, RunID: res.RunID, Status: res.Status, Duration: r.now().Sub(started)})
	return res, nil
}

// step invokes one node and merges its delta into state. Step failures come
// back as *StepExecutionError and merge failures as *StateTypeError.
func (r *Runnable) step(ctx context.Context, node *Node, state State) (State, error) {
	if err := node.checkInputs(state); err != nil {
		return nil, &StepExecutionError{Step: node.Name, Err: err}
	}

	delta, err := node.invoke(ctx, state)
	if err != nil {
		return nil, &StepExecutionError{Step: node.Name, Err: err}
	}
	if err := node.checkOutputs(delta); err != nil {
		return nil, &StepExecutionError{Step: node.Name, Err: err}
	}

	delta, err = stampAudit(delta, node.Name, len(state.Audit()), r.now())
	if err == nil {
		state, err = r.schema.Merge(state, delta)
	}
	if err != nil {
		var typeErr *StateTypeError
		if errors.As(err, &typeErr) {
			typeErr.Step = node.Name
			return nil, typeErr
		}
		return nil, &StepExecutionError{Step: node.Name, Err: err}
	}
	return state, nil
}

// fail attaches the state and audit trail accumulated so far to err and
// finishes the run as failed. kind is the event reported for the failing step;
// it is empty when the run stopped before the step started.
func (r *Runnable) fail(ctx context.Context, res *Result, state State, started time.Time, step string, kind EventKind, err error) (*Result, error) {
	audit := state.Audit()

	var (
		stepErr  *StepExecutionError
		typeErr  *StateTypeError
		routeErr *RoutingError
	)
	switch {
	case errors.As(err, &stepErr):
		stepErr.State = state
		stepErr.Audit = audit
	case errors.As(err, &typeErr):
		typeErr.Step = step
		typeErr.Audit = audit
	case errors.As(err, &routeErr):
		routeErr.State = state
		routeErr.Audit = audit
	default:
		err = &StepExecutionError{Step: step, Err: err, State: state, Audit: audit}
	}

	res.Status = StatusFailed
	res.State = state
	if kind != "" {
		r.emit(ctx, Event{Kind: kind, RunID: res.RunID, Step: step, Outcome: res.Outcome, Err: err})
	}
	r.emit(ctx, Event{Kind: EventRunEnd, RunID: res.RunID, Status: res.Status, Err: err, Duration: r.now().Sub(started)})
	r.logger.Debug("run %s failed at step %s: %v", res.RunID, step, err)
	return res, err
}
