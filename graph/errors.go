package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryPointNotSet is reported when Compile runs without an entry point.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrGraphInvalid matches any *GraphValidationError.
	ErrGraphInvalid = errors.New("invalid graph definition")

	// ErrStepFailed matches any *StepExecutionError.
	ErrStepFailed = errors.New("step execution failed")

	// ErrUndefinedOutcome matches a *RoutingError whose label is missing from the outcome table.
	ErrUndefinedOutcome = errors.New("undefined routing outcome")

	// ErrRouterFailed matches a *RoutingError raised by the router function itself.
	ErrRouterFailed = errors.New("router failed")

	// ErrStateType matches any *StateTypeError.
	ErrStateType = errors.New("state type mismatch")

	// ErrMissingField matches any *MissingFieldError.
	ErrMissingField = errors.New("missing state field")

	// ErrUndeclaredOutput is wrapped in a *StepExecutionError when a step writes
	// a field outside its declared outputs.
	ErrUndeclaredOutput = errors.New("undeclared output field")
)

// ViolationKind classifies a graph validation problem.
type ViolationKind string

const (
	ViolationEntryPoint    ViolationKind = "entry_point"
	ViolationDuplicateNode ViolationKind = "duplicate_node"
	ViolationNilFunction   ViolationKind = "nil_function"
	ViolationUnknownSource ViolationKind = "unknown_source"
	ViolationUnknownTarget ViolationKind = "unknown_target"
	ViolationDeadEnd       ViolationKind = "dead_end"
	ViolationFanOut        ViolationKind = "fan_out"
	ViolationOutcomes      ViolationKind = "outcomes"
	ViolationTerminal      ViolationKind = "terminal"
	ViolationSchema        ViolationKind = "schema"
	ViolationCycle         ViolationKind = "cycle"
)

// Violation is a single problem found while compiling a graph.
type Violation struct {
	Kind ViolationKind
	// Node is the step the problem is attached to, if any.
	Node string
	// Target is the referenced step, terminal or field, if any.
	Target  string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// GraphValidationError lists every violation found by Compile.
type GraphValidationError struct {
	Graph      string
	Violations []Violation
}

func (e *GraphValidationError) Error() string {
	var sb strings.Builder
	name := e.Graph
	if name == "" {
		name = "graph"
	}
	fmt.Fprintf(&sb, "%s: %d violation(s)", name, len(e.Violations))
	for _, v := range e.Violations {
		sb.WriteString("\n- ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Is matches ErrGraphInvalid, and ErrEntryPointNotSet when the entry point is missing.
func (e *GraphValidationError) Is(target error) bool {
	if target == ErrGraphInvalid {
		return true
	}
	if target == ErrEntryPointNotSet {
		for _, v := range e.Violations {
			if v.Kind == ViolationEntryPoint && v.Target == "" {
				return true
			}
		}
	}
	return false
}

// Has reports whether a violation of kind was recorded for node.
// An empty node matches any node.
func (e *GraphValidationError) Has(kind ViolationKind, node string) bool {
	for _, v := range e.Violations {
		if v.Kind == kind && (node == "" || v.Node == node) {
			return true
		}
	}
	return false
}

// StepExecutionError is returned when a step fails. It carries the state and
// audit trail accumulated before the failing step ran.
type StepExecutionError struct {
	Step  string
	Err   error
	State State
	Audit []AuditEntry
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

func (e *StepExecutionError) Is(target error) bool { return target == ErrStepFailed }

// RoutingError is returned when a conditional edge cannot be resolved, either
// because the router failed (Err is set) or because it produced a label that is
// not in the outcome table.
type RoutingError struct {
	Step    string
	Outcome string
	Err     error
	State   State
	Audit   []AuditEntry
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("router after step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("router after step %s returned undefined outcome %q", e.Step, e.Outcome)
}

func (e *RoutingError) Unwrap() error { return e.Err }

func (e *RoutingError) Is(target error) bool {
	if e.Err != nil {
		return target == ErrRouterFailed
	}
	return target == ErrUndefinedOutcome
}

// StateTypeError is returned when a value does not match the declared type of
// its field. Step and Audit are filled in by the executor.
type StateTypeError struct {
	Field    string
	Expected string
	Actual   string
	Step     string
	Audit    []AuditEntry
}

func (e *StateTypeError) Error() string {
	msg := fmt.Sprintf("field %q expects %s, got %s", e.Field, e.Expected, e.Actual)
	if e.Step != "" {
		msg = fmt.Sprintf("step %s: %s", e.Step, msg)
	}
	return "state type error: " + msg
}

func (e *StateTypeError) Is(target error) bool { return target == ErrStateType }

// MissingFieldError is returned when a field is read before anything wrote it.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("state field %q is not set", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }
