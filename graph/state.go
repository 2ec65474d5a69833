package graph

import (
	"fmt"
	"maps"
	"reflect"
)

// State is the record threaded through one workflow run. Steps receive a copy
// and describe their changes with a Delta; only the executor updates the
// authoritative record.
type State map[string]any

// Delta is the partial state returned by a step. It holds only the fields the
// step intends to change.
type Delta map[string]any

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Has reports whether field has been written.
func (s State) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Get returns the value of field, or a *MissingFieldError if it was never written.
func (s State) Get(field string) (any, error) {
	v, ok := s[field]
	if !ok {
		return nil, &MissingFieldError{Field: field}
	}
	return v, nil
}

// GetString returns a string field.
func (s State) GetString(field string) (string, error) {
	v, err := s.Get(field)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", &StateTypeError{Field: field, Expected: TypeString.String(), Actual: describe(v)}
	}
	return str, nil
}

// GetFloat returns a numeric field as float64.
func (s State) GetFloat(field string) (float64, error) {
	v, err := s.Get(field)
	if err != nil {
		return 0, err
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, &StateTypeError{Field: field, Expected: TypeNumber.String(), Actual: describe(v)}
	}
	return f, nil
}

// GetObject returns an object field stored as map[string]any.
func (s State) GetObject(field string) (map[string]any, error) {
	v, err := s.Get(field)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &StateTypeError{Field: field, Expected: "map[string]any", Actual: describe(v)}
	}
	return obj, nil
}

// GetStrings returns a sequence field whose elements are all strings.
func (s State) GetStrings(field string) ([]string, error) {
	v, err := s.Get(field)
	if err != nil {
		return nil, err
	}
	if strs, ok := v.([]string); ok {
		return strs, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, &StateTypeError{Field: field, Expected: "[]string", Actual: describe(v)}
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		str, ok := rv.Index(i).Interface().(string)
		if !ok {
			return nil, &StateTypeError{Field: field, Expected: "[]string", Actual: describe(v)}
		}
		out = append(out, str)
	}
	return out, nil
}

// Audit returns the audit trail recorded so far. A missing or malformed audit
// field yields an empty trail.
func (s State) Audit() []AuditEntry {
	entries, _ := s[AuditField].([]AuditEntry)
	return entries
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
