package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/recquery/pkg/value"
)

func TestFromValueShapes(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		paths   []string
		op      Operator
		targets []value.Value
	}{
		{
			name:    "implicit strict equal",
			cond:    FromSlice("name", "John"),
			paths:   []string{"name"},
			op:      OpStrictEqual,
			targets: []value.Value{value.String("John")},
		},
		{
			name:    "explicit operator",
			cond:    FromSlice("age", ">", 26),
			paths:   []string{"age"},
			op:      OpGreater,
			targets: []value.Value{value.Int(26)},
		},
		{
			name:    "several paths",
			cond:    FromSlice([]string{"city", "state"}, "~", "ar"),
			paths:   []string{"city", "state"},
			op:      OpFuzzy,
			targets: []value.Value{value.String("ar")},
		},
		{
			name:    "several targets",
			cond:    FromSlice("tag", "==", []any{"a", "b"}),
			paths:   []string{"tag"},
			op:      OpLooseEqual,
			targets: []value.Value{value.String("a"), value.String("b")},
		},
		{
			name:    "integer path",
			cond:    FromSlice(0, "==", "x"),
			paths:   []string{"0"},
			op:      OpLooseEqual,
			targets: []value.Value{value.String("x")},
		},
		{
			name:    "empty path list",
			cond:    FromSlice([]string{}, "==", 1),
			paths:   []string{},
			op:      OpLooseEqual,
			targets: []value.Value{value.Int(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.cond.Err())
			assert.Equal(t, tt.paths, tt.cond.Paths)
			assert.Equal(t, tt.op, tt.cond.Operator)
			require.Len(t, tt.cond.Targets, len(tt.targets))
			for i := range tt.targets {
				assert.True(t, value.Identical(tt.targets[i], tt.cond.Targets[i]), "target %d", i)
			}
		})
	}
}

func TestFromValueMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  value.Value
	}{
		{"scalar", value.String("age")},
		{"mapping", value.Object(value.F("age", 1))},
		{"one element", value.Sequence(value.String("age"))},
		{"four elements", value.From([]any{"a", "==", 1, 2})},
		{"path not a string", value.From([]any{true, "==", 2})},
		{"path list with mapping", value.From([]any{[]any{"a", map[string]any{}}, "==", 2})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromValue(tt.raw)
			require.Error(t, c.Err())
			assert.True(t, errors.Is(c.Err(), ErrMalformedCondition))
			assert.True(t, value.Identical(tt.raw, c.Raw()))
		})
	}
}

func TestFromValueNonStringOperator(t *testing.T) {
	c := FromValue(value.From([]any{"age", 5, 30}))
	require.NoError(t, c.Err())
	assert.Equal(t, Operator("5"), c.Operator)

	err := NewEvaluator(OperatorSet{}, nil).Check(c.Operator)
	assert.True(t, errors.Is(err, ErrUnknownOperator))
}

func TestConditionEqual(t *testing.T) {
	assert.True(t, Equals("a", 1).Equal(FromSlice("a", 1)))
	assert.False(t, Equals("a", 1).Equal(FromSlice("a", 1.0)))
	assert.False(t, Equals("a", 1).Equal(New("a", OpStrictEqual, 1)))
	assert.Equal(t, `["a", ">", 2]`, New("a", OpGreater, 2).String())
}

func TestSplitTargets(t *testing.T) {
	got := SplitTargets("red|green||blue", "|")
	require.Len(t, got, 3)
	assert.Equal(t, `["red", "green", "blue"]`, value.Render(value.Sequence(got...)))

	single := SplitTargets("red", "|")
	require.Len(t, single, 1)
	assert.True(t, value.Identical(value.String("red"), single[0]))
}

func TestExpandTargets(t *testing.T) {
	c := ExpandTargets(New("color", OpLooseEqual, "red|blue"), "|")
	require.NoError(t, c.Err())
	require.Len(t, c.Targets, 2)
	assert.Equal(t, OpLooseEqual, c.Operator)

	plain := New("color", OpLooseEqual, "red")
	assert.True(t, ExpandTargets(plain, "|").Equal(plain))

	number := New("n", OpLooseEqual, 3)
	assert.True(t, ExpandTargets(number, "|").Equal(number))
}

func TestParseOperator(t *testing.T) {
	for _, s := range []string{"==", "===", "!=", "!==", ">", "<", ">=", "<=", "~"} {
		op, err := ParseOperator(s)
		require.NoError(t, err, s)
		assert.Equal(t, Operator(s), op)
	}

	_, err := ParseOperator("<>")
	assert.True(t, errors.Is(err, ErrUnknownOperator))
}

func TestOperatorSet(t *testing.T) {
	set := NewOperatorSet(OpFuzzy, OpLooseEqual, "<>")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []Operator{OpLooseEqual, OpFuzzy}, set.List())
	assert.False(t, set.Contains(OpGreater))
	assert.Equal(t, 9, DefaultOperators().Len())
	assert.True(t, OpLessEqual.Ordering())
	assert.False(t, OpFuzzy.Ordering())
}

func TestCollectorMergesRepeats(t *testing.T) {
	var c Collector
	c.Report(Diagnostic{Kind: TypeMismatch, Condition: 0, Err: ErrTypeMismatch})
	c.Report(Diagnostic{Kind: TypeMismatch, Condition: 0, Err: ErrTypeMismatch})
	c.Report(Diagnostic{Kind: MalformedCondition, Condition: 1, Err: ErrMalformedCondition})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, 2, diags[0].Count)
	assert.Equal(t, 1, diags[1].Count)
	assert.Equal(t, "type_mismatch", diags[0].Kind.String())
	assert.Contains(t, diags[1].String(), "condition 1")
}
