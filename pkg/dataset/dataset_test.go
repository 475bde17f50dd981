package dataset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/recquery/pkg/value"
)

func people() *Dataset {
	return FromRecords(
		value.Object(value.F("name", "John"), value.F("age", 30)),
		value.Object(value.F("name", "jane"), value.F("age", 25)),
		value.Object(value.F("name", "Bob"), value.F("age", 41)),
	)
}

func keyStrings(ds *Dataset) []string {
	out := make([]string, 0, ds.Len())
	for _, k := range ds.Keys() {
		out = append(out, k.String())
	}
	return out
}

func TestNameNormalisesDecimalKeys(t *testing.T) {
	tests := []struct {
		in    string
		named bool
	}{
		{"7", false},
		{"-3", false},
		{"0", false},
		{"07", true},
		{"+3", true},
		{"-0", true},
		{"", true},
		{"-", true},
		{"1.5", true},
		{"99999999999999999999", true},
		{"alice", true},
	}

	for _, tt := range tests {
		k := Name(tt.in)
		assert.Equal(t, tt.named, k.IsName(), "%q", tt.in)
		assert.Equal(t, tt.in, k.String(), "%q", tt.in)
	}
	assert.Equal(t, Index(7), Name("7"))
}

func TestKeyFromValue(t *testing.T) {
	k, ok := KeyFromValue(value.Int(3))
	require.True(t, ok)
	assert.Equal(t, Index(3), k)

	k, ok = KeyFromValue(value.String("x"))
	require.True(t, ok)
	assert.True(t, value.Identical(value.String("x"), k.Value()))

	_, ok = KeyFromValue(value.Float(1.5))
	assert.False(t, ok)
}

func TestSetKeepsPosition(t *testing.T) {
	ds := New(0)
	ds.Set(Name("b"), value.Int(1))
	ds.Set(Name("a"), value.Int(2))
	ds.Set(Name("b"), value.Int(3))

	assert.Equal(t, []string{"b", "a"}, keyStrings(ds))
	rec, ok := ds.Get(Name("b"))
	require.True(t, ok)
	assert.True(t, value.Identical(value.Int(3), rec))
}

func TestAppendContinuesAfterHighestIndex(t *testing.T) {
	ds := New(0)
	ds.Set(Index(5), value.Int(1))
	ds.Set(Name("x"), value.Int(2))
	k := ds.Append(value.Int(3))
	assert.Equal(t, Index(6), k)
}

func TestFilterPreservesKeys(t *testing.T) {
	ds := people()
	out := ds.Filter(func(_ Key, rec value.Value) bool {
		m, _ := rec.AsMapping()
		age, _ := m.Get("age")
		n, _ := age.AsInt()
		return n > 26
	})

	assert.Equal(t, []string{"0", "2"}, keyStrings(out))
	assert.Equal(t, 3, ds.Len(), "source untouched")
	assert.False(t, out.IsList())
}

func TestSlice(t *testing.T) {
	ds := people()

	tests := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{"unbounded", 0, 0, []string{"0", "1", "2"}},
		{"limit", 0, 2, []string{"0", "1"}},
		{"offset", 1, 0, []string{"1", "2"}},
		{"offset and limit", 1, 1, []string{"1"}},
		{"limit past end", 2, 10, []string{"2"}},
		{"offset past end", 3, 0, []string{}},
		{"negative offset", -4, 1, []string{"0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyStrings(ds.Slice(tt.offset, tt.limit)))
		})
	}
}

func TestSortStableAndReverse(t *testing.T) {
	ds := FromRecords(value.Int(2), value.Int(1), value.Int(2), value.Int(1))
	sorted := ds.SortStable(func(a, b Entry) int {
		x, _ := a.Record.AsInt()
		y, _ := b.Record.AsInt()
		return int(x - y)
	})

	assert.Equal(t, []string{"1", "3", "0", "2"}, keyStrings(sorted))
	assert.Equal(t, []string{"2", "0", "3", "1"}, keyStrings(sorted.Reverse()))
	assert.Equal(t, []string{"0", "1", "2", "3"}, keyStrings(ds))
}

func TestReindex(t *testing.T) {
	ds := people().Slice(1, 0).Reindex()
	assert.Equal(t, []string{"0", "1"}, keyStrings(ds))
	assert.True(t, ds.IsList())
}

func TestFirstLast(t *testing.T) {
	first, ok := people().First()
	require.True(t, ok)
	assert.Equal(t, Index(0), first.Key)

	last, ok := people().Last()
	require.True(t, ok)
	assert.Equal(t, Index(2), last.Key)

	_, ok = New(0).First()
	assert.False(t, ok)
}

func TestFromValue(t *testing.T) {
	v, err := value.ParseJSON([]byte(`{"b": {"n": 1}, "3": {"n": 2}}`))
	require.NoError(t, err)

	ds, err := FromValue(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "3"}, keyStrings(ds))
	assert.True(t, ds.Has(Index(3)))

	_, err = FromValue(value.Int(1))
	assert.True(t, errors.Is(err, ErrNotCollection))
}

func TestMarshalJSON(t *testing.T) {
	list, err := json.Marshal(people().Slice(0, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"John","age":30}]`, string(list))

	keyed, err := json.Marshal(people().Slice(1, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"name":"jane","age":25}}`, string(keyed))
}

func TestNilDatasetReads(t *testing.T) {
	var ds *Dataset
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Keys())
	_, ok := ds.Get(Index(0))
	assert.False(t, ok)
}
