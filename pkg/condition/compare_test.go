package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/recquery/pkg/value"
)

func vals(items ...any) []value.Value {
	out := make([]value.Value, len(items))
	for i, item := range items {
		out[i] = value.From(item)
	}
	return out
}

func TestCompareFuzzyCountsEachMatch(t *testing.T) {
	n, err := Compare(vals("foo", "foobar"), OpFuzzy, value.String("bar"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompareOperators(t *testing.T) {
	tests := []struct {
		name   string
		values []value.Value
		op     Operator
		target value.Value
		want   int
	}{
		{"loose equal numeric string", vals("30", 30, 30.0, "x"), OpLooseEqual, value.Int(30), 3},
		{"strict equal", vals("30", 30, 30.0), OpStrictEqual, value.Int(30), 1},
		{"loose not equal", vals("30", 31), OpLooseNotEqual, value.Int(30), 1},
		{"strict not equal", vals("30", 30), OpStrictNotEqual, value.Int(30), 1},
		{"greater", vals(25, 30, "40"), OpGreater, value.Int(26), 2},
		{"less", vals(25, 30), OpLess, value.Int(26), 1},
		{"greater equal", vals(26, 25), OpGreaterEqual, value.Int(26), 1},
		{"less equal", vals(26, 27), OpLessEqual, value.Int(26), 1},
		{"strings ordered bytewise", vals("apple", "pear"), OpGreater, value.String("banana"), 1},
		{"fuzzy case insensitive", vals("Arkansas", "Texas"), OpFuzzy, value.String("AR"), 1},
		{"fuzzy nulls", vals(nil), OpFuzzy, value.Null(), 1},
		{"fuzzy collection", vals([]any{"red", "blue"}), OpFuzzy, value.String("BLU"), 1},
		{"fuzzy number against collection", vals(map[string]any{"n": 42}), OpFuzzy, value.Int(42), 1},
		{"fuzzy number against string", vals("abc42"), OpFuzzy, value.Int(42), 0},
		{"empty values", nil, OpLooseEqual, value.Int(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Compare(tt.values, tt.op, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestCompareUnknownOperator(t *testing.T) {
	_, err := Compare(vals(1), Operator("<>"), value.Int(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOperator))
	assert.Contains(t, err.Error(), "<>")
}

func TestEvaluatorRestrictedOperators(t *testing.T) {
	e := NewEvaluator(NewOperatorSet(OpLooseEqual), nil)

	n, err := e.Compare(vals(1), OpLooseEqual, value.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.Compare(vals(1), OpFuzzy, value.Int(1))
	assert.True(t, errors.Is(err, ErrUnknownOperator))

	// An unknown operator fails even with nothing to compare.
	_, err = e.Compare(nil, OpGreater, value.Int(1))
	assert.True(t, errors.Is(err, ErrUnknownOperator))
}

func TestEvaluatorEmptySetAllowsAll(t *testing.T) {
	e := NewEvaluator(OperatorSet{}, nil)
	assert.Equal(t, 9, e.Operators().Len())
}

func TestCompareTypeMismatchIsReported(t *testing.T) {
	var c Collector
	e := NewEvaluator(DefaultOperators(), &c)

	n, err := e.Compare(vals([]any{1, 2}, 5, map[string]any{"a": 1}), OpGreater, value.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, TypeMismatch, d.Kind)
		assert.True(t, errors.Is(d.Err, ErrTypeMismatch))
	}
}

func TestTruthy(t *testing.T) {
	falsy := vals(nil, false, 0, 0.0, "", "0", []any{}, map[string]any{})
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%s", v)
	}
	truthy := vals(true, 1, -0.5, "a", "0.0", " ", []any{0}, map[string]any{"a": nil})
	for _, v := range truthy {
		assert.True(t, Truthy(v), "%s", v)
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, 0, true},
		{nil, "", true},
		{nil, "0", false},
		{nil, []any{}, true},
		{nil, false, true},
		{true, "abc", true},
		{false, "0", true},
		{true, 2, true},
		{1, 1.0, true},
		{"1e3", 1000, true},
		{" 42 ", 42, true},
		{"abc", 0, false},
		{"1.5", 1.5, true},
		{"10", "1e1", true},
		{"abc", "ABC", false},
		{[]any{1, "2"}, []any{"1", 2}, true},
		{[]any{1}, []any{1, 2}, false},
		{map[string]any{"a": 1, "b": 2}, map[string]any{"b": "2", "a": 1}, true},
		{[]any{1}, map[string]any{"0": 1}, false},
		{[]any{1}, 1, false},
	}

	for _, tt := range tests {
		a, b := value.From(tt.a), value.From(tt.b)
		assert.Equal(t, tt.want, LooseEqual(a, b), "%s == %s", a, b)
		assert.Equal(t, tt.want, LooseEqual(b, a), "%s == %s", b, a)
	}
}

func TestLooseCompare(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{1, 2, -1},
		{2.5, 2, 1},
		{"10", 9, 1},
		{9, "10", -1},
		{"10", "9", 1},
		{"abc", "abd", -1},
		{nil, "a", -1},
		{"", nil, 0},
		{true, 0, 1},
		{nil, -1, -1},
		{false, nil, 0},
		{5, "abc", -1},
	}

	for _, tt := range tests {
		a, b := value.From(tt.a), value.From(tt.b)
		got, ok := LooseCompare(a, b)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "cmp(%s, %s)", a, b)
	}

	_, ok := LooseCompare(value.From([]any{1}), value.Int(1))
	assert.False(t, ok)
	_, ok = LooseCompare(value.Int(1), value.From(map[string]any{}))
	assert.False(t, ok)
}

func TestParseNumeric(t *testing.T) {
	for _, s := range []string{"1", "-2", "+3.5", ".5", "5.", "1e3", " 7 ", "1E-2"} {
		_, ok := ParseNumeric(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", "abc", "0x10", "inf", "NaN", "1e", "1.2.3", "-", "."} {
		_, ok := ParseNumeric(s)
		assert.False(t, ok, s)
	}
}

func TestCompareFold(t *testing.T) {
	assert.Equal(t, -1, CompareFold("A", "b"))
	assert.Equal(t, 0, CompareFold("Hello", "hELLO"))
	assert.Equal(t, 1, CompareFold("abc", "AB"))
	assert.True(t, ContainsFold("Arkansas", "kAn"))
	assert.False(t, ContainsFold("Texas", "ar"))
}
