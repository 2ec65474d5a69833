package graph

import (
	"context"
	"reflect"
	"sort"
)

// RouterFunc picks an outcome label from the state. It must not change anything.
type RouterFunc func(ctx context.Context, state State) (string, error)

// Router is the conditional edge leaving a step: a predicate plus the table
// mapping each outcome label to a step or terminal marker.
type Router struct {
	// From is the step the router follows.
	From     string
	Route    RouterFunc
	Outcomes map[string]string
}

// Labels returns the outcome labels in sorted order.
func (r *Router) Labels() []string {
	labels := make([]string, 0, len(r.Outcomes))
	for label := range r.Outcomes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// resolve evaluates the router and looks the label up in the outcome table.
func (r *Router) resolve(ctx context.Context, state State) (string, string, error) {
	outcome, err := r.Route(ctx, state.Clone())
	if err != nil {
		return "", "", &RoutingError{Step: r.From, Err: err}
	}
	target, ok := r.Outcomes[outcome]
	if !ok {
		return outcome, "", &RoutingError{Step: r.From, Outcome: outcome}
	}
	return outcome, target, nil
}

// FieldEquals builds a RouterFunc returning match when field equals value and
// otherwise in every other case. A missing field is a router failure.
func FieldEquals(field string, value any, match, otherwise string) RouterFunc {
	return func(_ context.Context, state State) (string, error) {
		v, err := state.Get(field)
		if err != nil {
			return "", err
		}
		if reflect.DeepEqual(v, value) {
			return match, nil
		}
		return otherwise, nil
	}
}
