package graph

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// AuditField is the state field holding the audit trail. Every schema declares
// it with the Append policy.
const AuditField = "audit_log"

// AuditEntry records one step execution. Sequence and Timestamp are stamped by
// the executor; Step defaults to the node name when the step leaves it empty.
type AuditEntry struct {
	Sequence  int            `json:"sequence"`
	Step      string         `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Audit builds the audit_log value for a step delta:
//
//	return graph.Delta{
//		"plan":           plan,
//		graph.AuditField: graph.Audit("Goal Decomposition", map[string]any{"goal": goal}),
//	}, nil
func Audit(step string, details map[string]any) []AuditEntry {
	return []AuditEntry{{Step: step, Details: details}}
}

// auditEntries converts the audit value of a delta to []AuditEntry. Slices
// of any are accepted as long as every element holds an AuditEntry.
func auditEntries(value any) ([]AuditEntry, error) {
	if entries, ok := value.([]AuditEntry); ok {
		return entries, nil
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &StateTypeError{Field: AuditField, Expected: "[]graph.AuditEntry", Actual: describe(value)}
	}

	entries := make([]AuditEntry, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		if item.Kind() == reflect.Interface {
			item = item.Elem()
		}
		if !item.IsValid() {
			return nil, &StateTypeError{Field: AuditField, Expected: "graph.AuditEntry", Actual: fmt.Sprintf("nil at index %d", i)}
		}
		var entry AuditEntry
		switch e := item.Interface().(type) {
		case AuditEntry:
			entry = e
		case *AuditEntry:
			if e == nil {
				return nil, &StateTypeError{Field: AuditField, Expected: "graph.AuditEntry", Actual: fmt.Sprintf("nil at index %d", i)}
			}
			entry = *e
		default:
			return nil, &StateTypeError{Field: AuditField, Expected: "graph.AuditEntry", Actual: fmt.Sprintf("%s at index %d", describe(e), i)}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// stampAudit fills sequence numbers, timestamps and step names on the audit
// entries a step returned. The delta is copied, never modified.
func stampAudit(delta Delta, node string, existing int, now time.Time) (Delta, error) {
	value, ok := delta[AuditField]
	if !ok {
		return delta, nil
	}
	entries, err := auditEntries(value)
	if err != nil {
		return nil, err
	}

	stamped := make([]AuditEntry, len(entries))
	for i, e := range entries {
		e.Sequence = existing + i + 1
		if e.Step == "" {
			e.Step = node
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		stamped[i] = e
	}

	out := make(Delta, len(delta))
	maps.Copy(out, delta)
	out[AuditField] = stamped
	return out, nil
}
