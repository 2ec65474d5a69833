package graph

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// NodeFunc is the body of a step. It reads the state it was given and returns
// the fields it wants to change. It must not keep references to state.
type NodeFunc func(ctx context.Context, state State) (Delta, error)

// Node is a named step in the graph.
type Node struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is invoked once per visit.
	Function NodeFunc

	// Inputs lists the fields the step reads. When set, every input must be
	// present before the step runs.
	Inputs []string

	// Outputs lists the fields the step may write. When set, any other field
	// in the delta fails the step.
	Outputs []string
}

// NodeOption configures a node at registration time.
type NodeOption func(*Node)

// WithInputs declares the fields a step reads.
func WithInputs(fields ...string) NodeOption {
	return func(n *Node) { n.Inputs = append(n.Inputs, fields...) }
}

// WithOutputs declares the fields a step writes. The audit field is always allowed.
func WithOutputs(fields ...string) NodeOption {
	return func(n *Node) { n.Outputs = append(n.Outputs, fields...) }
}

// checkInputs fails with a *MissingFieldError for the first absent input.
func (n *Node) checkInputs(state State) error {
	for _, field := range n.Inputs {
		if !state.Has(field) {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

// checkOutputs rejects delta fields outside the declared outputs.
func (n *Node) checkOutputs(delta Delta) error {
	if len(n.Outputs) == 0 {
		return nil
	}
	var extra []string
	for field := range delta {
		if field == AuditField || slices.Contains(n.Outputs, field) {
			continue
		}
		extra = append(extra, field)
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("%w: %v", ErrUndeclaredOutput, extra)
}

// invoke runs the step on a private copy of the state and converts a panic into an error.
func (n *Node) invoke(ctx context.Context, state State) (delta Delta, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in node %s: %v", n.Name, r)
		}
	}()
	return n.Function(ctx, state.Clone())
}
