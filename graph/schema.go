package graph

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// FieldType is the semantic type declared for a state field.
type FieldType int

const (
	// TypeAny accepts every value, including nil.
	TypeAny FieldType = iota
	TypeString
	TypeNumber
	TypeBool
	// TypeObject accepts maps with string keys and structs.
	TypeObject
	// TypeSequence accepts slices and arrays.
	TypeSequence
)

func (t FieldType) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeObject:
		return "object"
	case TypeSequence:
		return "sequence"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Accepts reports whether v is a valid value for the type.
func (t FieldType) Accepts(v any) bool {
	if t == TypeAny {
		return true
	}
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch t {
	case TypeString:
		return rv.Kind() == reflect.String
	case TypeNumber:
		_, ok := ToFloat(v)
		return ok
	case TypeBool:
		return rv.Kind() == reflect.Bool
	case TypeObject:
		return (rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String) || rv.Kind() == reflect.Struct
	case TypeSequence:
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	}
	return false
}

// MergePolicy decides how a delta value combines with the current value.
type MergePolicy int

const (
	// Overwrite replaces the current value wholesale.
	Overwrite MergePolicy = iota
	// Append concatenates the delta sequence after the current sequence.
	Append
)

func (p MergePolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// Field declares one state field.
type Field struct {
	Name   string
	Type   FieldType
	Policy MergePolicy
	// Default seeds the field when a run starts. Append fields without a
	// Default start as an empty sequence of the first appended type.
	Default any
}

// Schema is the per-field merge policy registry. Undeclared fields are
// accepted with the Overwrite policy and no type check.
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema creates a schema with the given fields plus the audit trail field.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: make(map[string]Field)}
	s.Declare(Field{
		Name:    AuditField,
		Type:    TypeSequence,
		Policy:  Append,
		Default: []AuditEntry{},
	})
	for _, f := range fields {
		s.Declare(f)
	}
	return s
}

// Declare adds or replaces a field declaration.
func (s *Schema) Declare(f Field) *Schema {
	if _, ok := s.fields[f.Name]; !ok {
		s.order = append(s.order, f.Name)
	}
	s.fields[f.Name] = f
	return s
}

// Clone returns an independent copy of the schema. Later Declare calls on
// either copy do not affect the other.
func (s *Schema) Clone() *Schema {
	return &Schema{
		fields: maps.Clone(s.fields),
		order:  slices.Clone(s.order),
	}
}

// Field returns the declaration of name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the declarations in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// Policy returns the merge policy of name, Overwrite for undeclared fields.
func (s *Schema) Policy(name string) MergePolicy {
	if f, ok := s.fields[name]; ok {
		return f.Policy
	}
	return Overwrite
}

// validate reports declaration problems, checked by Compile.
func (s *Schema) validate() []Violation {
	var violations []Violation
	for _, f := range s.Fields() {
		if f.Policy == Append && f.Type != TypeSequence && f.Type != TypeAny {
			violations = append(violations, Violation{
				Kind:    ViolationSchema,
				Target:  f.Name,
				Message: fmt.Sprintf("field %q uses the append policy but is declared %s", f.Name, f.Type),
			})
		}
		if f.Default != nil && !f.Type.Accepts(f.Default) {
			violations = append(violations, Violation{
				Kind:    ViolationSchema,
				Target:  f.Name,
				Message: fmt.Sprintf("default of field %q is %s, not %s", f.Name, describe(f.Default), f.Type),
			})
		}
	}
	return violations
}

// Init builds the starting state of a run: declared defaults first, then the
// caller's initial fields merged on top with the usual policies. Defaults are
// deep-copied so runs never share maps or slices.
func (s *Schema) Init(initial map[string]any) (State, error) {
	state := make(State, len(initial)+len(s.fields))
	for _, f := range s.Fields() {
		if f.Default != nil {
			state[f.Name] = copyValue(f.Default)
		}
	}
	return s.Merge(state, Delta(initial))
}

// Merge applies delta to current and returns the new state. Neither input is
// modified; fields missing from delta are carried over unchanged.
func (s *Schema) Merge(current State, delta Delta) (State, error) {
	result := make(State, len(current)+len(delta))
	maps.Copy(result, current)

	for name, value := range delta {
		f, declared := s.fields[name]
		if !declared {
			result[name] = value
			continue
		}

		if !f.Type.Accepts(value) {
			return nil, &StateTypeError{Field: name, Expected: f.Type.String(), Actual: describe(value)}
		}

		switch f.Policy {
		case Append:
			base, ok := current[name]
			if !ok {
				base = f.Default
			}
			merged, err := appendSequence(name, base, value)
			if err != nil {
				return nil, err
			}
			result[name] = merged
		default:
			result[name] = value
		}
	}

	return result, nil
}

// appendSequence returns a fresh slice holding current followed by next.
// Elements of next must be assignable to the element type of current.
func appendSequence(field string, current, next any) (any, error) {
	nv := reflect.ValueOf(next)
	if !nv.IsValid() || (nv.Kind() != reflect.Slice && nv.Kind() != reflect.Array) {
		return nil, &StateTypeError{Field: field, Expected: TypeSequence.String(), Actual: describe(next)}
	}

	if current == nil {
		out := reflect.MakeSlice(reflect.SliceOf(nv.Type().Elem()), nv.Len(), nv.Len())
		reflect.Copy(out, nv)
		return out.Interface(), nil
	}

	cv := reflect.ValueOf(current)
	if cv.Kind() != reflect.Slice && cv.Kind() != reflect.Array {
		return nil, &StateTypeError{Field: field, Expected: TypeSequence.String(), Actual: describe(current)}
	}

	elem := cv.Type().Elem()
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, cv.Len()+nv.Len())
	for i := 0; i < cv.Len(); i++ {
		out = reflect.Append(out, cv.Index(i))
	}
	for i := 0; i < nv.Len(); i++ {
		item := nv.Index(i)
		if item.Kind() == reflect.Interface && elem.Kind() != reflect.Interface {
			item = item.Elem()
		}
		if !item.IsValid() || !item.Type().AssignableTo(elem) {
			return nil, &StateTypeError{
				Field:    field,
				Expected: "[]" + elem.String(),
				Actual:   describe(next),
			}
		}
		out = reflect.Append(out, item)
	}
	return out.Interface(), nil
}

// copyValue returns a deep copy of the maps, slices, arrays and pointers
// reachable from v. Other values are returned as they are.
func copyValue(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	default:
		return v
	}
}
