package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/recquery/pkg/value"
)

func mustJSON(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func render(vals []value.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = value.Render(v)
	}
	return out
}

func TestExtractNested(t *testing.T) {
	item := mustJSON(t, `{"data": {"children": 3}}`)

	got := Extract(item, "data.children")
	assert.Equal(t, []string{"3"}, render(got))

	missing := Extract(item, "data.missing")
	require.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestExtractAlwaysReturnsSlice(t *testing.T) {
	item := mustJSON(t, `{"name": "John"}`)

	for _, path := range []string{"name", "nope", "", "..", "name.first"} {
		got := Extract(item, path)
		assert.NotNil(t, got, "path %q", path)
	}
}

func TestExtractEmptyPathReturnsItem(t *testing.T) {
	item := mustJSON(t, `{"a": 1}`)
	got := Extract(item, "")
	require.Len(t, got, 1)
	assert.True(t, value.Identical(item, got[0]))

	scalar := Extract(value.Int(5), "")
	assert.Equal(t, []string{"5"}, render(scalar))
}

func TestExtractSkipsEmptySegments(t *testing.T) {
	item := mustJSON(t, `{"a": {"b": "x"}}`)
	assert.Equal(t, []string{`"x"`}, render(Extract(item, ".a..b.")))
}

func TestExtractScalarLeafFallback(t *testing.T) {
	item := mustJSON(t, `{"age": 30}`)
	assert.Equal(t, []string{"30"}, render(Extract(item, "age.years")))
}

func TestExtractBroadcastOverSequence(t *testing.T) {
	item := mustJSON(t, `{
		"data": {
			"children": [
				{"name": "a", "tags": ["x"]},
				{"name": "b"},
				{"name": "c"}
			]
		}
	}`)

	got := Extract(item, "data.children.name")
	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`}, render(got))
}

func TestExtractBroadcastOverMapping(t *testing.T) {
	item := mustJSON(t, `{
		"people": {
			"p1": {"address": {"city": "Arlington"}},
			"p2": {"address": {"city": "Boston"}}
		}
	}`)

	got := Extract(item, "people.address.city")
	assert.Equal(t, []string{`"Arlington"`, `"Boston"`}, render(got))
}

func TestExtractNoBroadcastWhenFirstChildLacksKey(t *testing.T) {
	item := mustJSON(t, `{"list": [{"other": 1}, {"name": "b"}]}`)
	assert.Empty(t, Extract(item, "list.name"))
}

func TestExtractSequenceIndex(t *testing.T) {
	item := mustJSON(t, `{"list": [{"name": "a"}, {"name": "b"}]}`)
	assert.Equal(t, []string{`"b"`}, render(Extract(item, "list.1.name")))
	assert.Empty(t, Extract(item, "list.01.name"))
	assert.Empty(t, Extract(item, "list.5.name"))
}

func TestExtractNestedBroadcast(t *testing.T) {
	item := mustJSON(t, `{
		"groups": [
			{"members": [{"id": 1}, {"id": 2}]},
			{"members": [{"id": 3}]}
		]
	}`)
	assert.Equal(t, []string{"1", "2", "3"}, render(Extract(item, "groups.members.id")))
}

func TestExtractSanitizesKeys(t *testing.T) {
	m := value.NewMapping(2)
	m.Set("naïme", value.String("accented"))
	m.Set("\x00city\x7f", value.String("Arlington"))
	item := value.Map(m)

	assert.Equal(t, []string{`"accented"`}, render(Extract(item, "name")))
	assert.Equal(t, []string{`"Arlington"`}, render(Extract(item, "city")))

	// The source record is left untouched.
	assert.Equal(t, []string{"naïme", "\x00city\x7f"}, m.Keys())
}

func TestCustomSeparator(t *testing.T) {
	e := New("/")
	item := mustJSON(t, `{"a.b": {"c": 1}}`)
	assert.Equal(t, []string{"1"}, render(e.Extract(item, "a.b/c")))
	assert.Equal(t, "/", e.Separator())
	assert.Equal(t, DefaultSeparator, New("").Separator())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "plain key", Sanitize("plain key"))
	assert.Equal(t, "caf", Sanitize("café"))
	assert.Equal(t, "tab", Sanitize("t\tab"))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Split("a..b.", "."))
	assert.Empty(t, Split("", "."))
	assert.Equal(t, "a.b", Join([]string{"a", "b"}, "."))
}
