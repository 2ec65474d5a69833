package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type positionTestObject struct {
	Asset string
}

func testSchema() *Schema {
	return NewSchema(
		Field{Name: "goal", Type: TypeString},
		Field{Name: "score", Type: TypeNumber},
		Field{Name: "notes", Type: TypeSequence, Policy: Append},
		Field{Name: "plan", Type: TypeSequence},
		Field{Name: "ok", Type: TypeBool, Default: false},
	)
}

func TestFieldType_Accepts(t *testing.T) {
	tests := []struct {
		name string
		typ  FieldType
		v    any
		want bool
	}{
		{"any accepts nil", TypeAny, nil, true},
		{"string rejects nil", TypeString, nil, false},
		{"string", TypeString, "x", true},
		{"string rejects number", TypeString, 1, false},
		{"number int", TypeNumber, 3, true},
		{"number float32", TypeNumber, float32(0.5), true},
		{"number rejects string", TypeNumber, "1", false},
		{"bool", TypeBool, true, true},
		{"object map", TypeObject, map[string]any{"a": 1}, true},
		{"object struct", TypeObject, positionTestObject{Asset: "BTC"}, true},
		{"object rejects int keys", TypeObject, map[int]int{1: 1}, false},
		{"sequence slice", TypeSequence, []string{"a"}, true},
		{"sequence array", TypeSequence, [2]int{1, 2}, true},
		{"sequence rejects string", TypeSequence, "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Accepts(tt.v))
		})
	}
}

func TestSchema_DeclaresAuditField(t *testing.T) {
	s := NewSchema()
	f, ok := s.Field(AuditField)
	require.True(t, ok)
	assert.Equal(t, Append, f.Policy)
	assert.Equal(t, TypeSequence, f.Type)
	assert.Equal(t, Overwrite, s.Policy("undeclared"))
}

func TestSchema_MergeOverwrite(t *testing.T) {
	s := testSchema()
	current := State{"score": 1.0, "goal": "a"}

	merged, err := s.Merge(current, Delta{"score": 2.0})
	require.NoError(t, err)

	assert.Equal(t, 2.0, merged["score"])
	assert.Equal(t, "a", merged["goal"])
	assert.Equal(t, 1.0, current["score"], "current must not be modified")
}

func TestSchema_MergeAppend(t *testing.T) {
	s := testSchema()
	current := State{"notes": []string{"a"}}
	delta := Delta{"notes": []string{"b", "c"}}

	merged, err := s.Merge(current, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, merged["notes"])
	assert.Equal(t, []string{"a"}, current["notes"])
	assert.Equal(t, []string{"b", "c"}, delta["notes"])

	// The merged slice must not share a backing array with the inputs.
	merged["notes"].([]string)[0] = "changed"
	assert.Equal(t, "a", current["notes"].([]string)[0])
}

func TestSchema_MergeAppendToAbsent(t *testing.T) {
	s := testSchema()

	merged, err := s.Merge(State{}, Delta{"notes": []string{"first"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, merged["notes"])
}

func TestSchema_MergeAppendInterfaceElements(t *testing.T) {
	s := testSchema()

	merged, err := s.Merge(State{"notes": []string{"a"}}, Delta{"notes": []any{"b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, merged["notes"])

	_, err = s.Merge(State{"notes": []string{"a"}}, Delta{"notes": []int{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStateType))
}

func TestSchema_MergeTypeMismatch(t *testing.T) {
	s := testSchema()

	_, err := s.Merge(State{}, Delta{"score": "high"})
	require.Error(t, err)

	var typeErr *StateTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "score", typeErr.Field)
	assert.Equal(t, "number", typeErr.Expected)
	assert.Equal(t, "string", typeErr.Actual)
	assert.ErrorIs(t, err, ErrStateType)
}

func TestSchema_MergeUndeclaredField(t *testing.T) {
	s := testSchema()

	merged, err := s.Merge(State{"extra": "x"}, Delta{"extra": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, merged["extra"])
}

func TestSchema_MergeIsDeterministic(t *testing.T) {
	s := testSchema()
	current := State{"goal": "g", "notes": []string{"a"}}
	delta := Delta{"score": 0.4, "notes": []string{"b"}, "plan": []string{"x", "y"}}

	first, err := s.Merge(current, delta)
	require.NoError(t, err)
	second, err := s.Merge(current, delta)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSchema_Init(t *testing.T) {
	s := testSchema()

	state, err := s.Init(map[string]any{"goal": "Find alpha"})
	require.NoError(t, err)

	assert.Equal(t, "Find alpha", state["goal"])
	assert.Equal(t, false, state["ok"])
	assert.Equal(t, []AuditEntry{}, state[AuditField])
	assert.False(t, state.Has("score"), "fields without defaults stay absent")

	_, err = s.Init(map[string]any{"score": "nope"})
	assert.ErrorIs(t, err, ErrStateType)
}

func TestSchema_InitCopiesDefaults(t *testing.T) {
	s := NewSchema(
		Field{Name: "orders", Type: TypeObject, Default: map[string]any{"fills": []any{}}},
		Field{Name: "tags", Type: TypeSequence, Default: []string{"new"}},
	)

	first, err := s.Init(nil)
	require.NoError(t, err)
	orders := first["orders"].(map[string]any)
	orders["k"] = 1
	orders["fills"] = append(orders["fills"].([]any), "f1")
	first["tags"].([]string)[0] = "changed"

	second, err := s.Init(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fills": []any{}}, second["orders"])
	assert.Equal(t, []string{"new"}, second["tags"])

	f, _ := s.Field("orders")
	assert.Equal(t, map[string]any{"fills": []any{}}, f.Default, "the declaration is untouched")
}

func TestSchema_Clone(t *testing.T) {
	s := testSchema()
	c := s.Clone()

	s.Declare(Field{Name: "extra", Type: TypeString, Policy: Append})
	c.Declare(Field{Name: "goal", Type: TypeNumber})

	_, ok := c.Field("extra")
	assert.False(t, ok)
	goal, _ := s.Field("goal")
	assert.Equal(t, TypeString, goal.Type)
	assert.Len(t, c.Fields(), len(s.Fields())-1)
}

func TestSchema_Validate(t *testing.T) {
	s := NewSchema(
		Field{Name: "label", Type: TypeString, Policy: Append},
		Field{Name: "count", Type: TypeNumber, Default: "zero"},
		Field{Name: "tags", Type: TypeAny, Policy: Append},
	)

	violations := s.validate()
	require.Len(t, violations, 2)
	assert.Equal(t, "label", violations[0].Target)
	assert.Equal(t, "count", violations[1].Target)
	for _, v := range violations {
		assert.Equal(t, ViolationSchema, v.Kind)
	}
}

func TestStampAudit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	delta := Delta{
		"goal": "x",
		AuditField: []AuditEntry{
			{Step: "Goal Decomposition"},
			{},
		},
	}

	stamped, err := stampAudit(delta, "planner", 2, now)
	require.NoError(t, err)
	entries := stamped[AuditField].([]AuditEntry)

	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Sequence)
	assert.Equal(t, "Goal Decomposition", entries[0].Step)
	assert.Equal(t, 4, entries[1].Sequence)
	assert.Equal(t, "planner", entries[1].Step)
	assert.Equal(t, now, entries[1].Timestamp)

	original := delta[AuditField].([]AuditEntry)
	assert.Zero(t, original[0].Sequence, "delta must not be modified")
	assert.Equal(t, "x", stamped["goal"])
}

func TestStampAudit_NoEntries(t *testing.T) {
	delta := Delta{"goal": "x"}
	stamped, err := stampAudit(delta, "planner", 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, delta, stamped)
}

func TestStampAudit_InterfaceElements(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	delta := Delta{AuditField: []any{AuditEntry{Step: "Research"}, &AuditEntry{}}}

	stamped, err := stampAudit(delta, "researcher", 1, now)
	require.NoError(t, err)

	entries, ok := stamped[AuditField].([]AuditEntry)
	require.True(t, ok, "audit entries are normalised to []AuditEntry")
	require.Len(t, entries, 2)
	assert.Equal(t, AuditEntry{Sequence: 2, Step: "Research", Timestamp: now}, entries[0])
	assert.Equal(t, AuditEntry{Sequence: 3, Step: "researcher", Timestamp: now}, entries[1])
}

func TestStampAudit_RejectsOtherValues(t *testing.T) {
	for name, value := range map[string]any{
		"element":     []any{AuditEntry{}, "done"},
		"nil element": []any{nil},
		"nil pointer": []*AuditEntry{nil},
		"not a slice": "done",
		"nil":         nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := stampAudit(Delta{AuditField: value}, "planner", 0, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStateType)

			var typeErr *StateTypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Equal(t, AuditField, typeErr.Field)
		})
	}
}
