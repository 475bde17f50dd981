// ABOUTME: Condition model parsed from its sequence shapes
// ABOUTME: Holds key paths, operator and targets plus the raw shape for dedup

package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nainya/recquery/pkg/value"
)

// Condition is one filter clause:
//
//	[path, value]
//	[path, operator, value]
//	[[path, ...], operator, value]
//	[path, operator, [value, ...]]
//	[[path, ...], operator, [value, ...]]
//
// Several paths match if any of them satisfies the comparison; several
// values match if the extracted value satisfies any of them. The two-element
// form compares with ===.
//
// A Condition built from a malformed shape carries the parse error in Err
// and is skipped by filtering. An operator element that is not a string is
// not a shape error: it is an unknown operator and fails the whole call.
type Condition struct {
	Paths    []string
	Operator Operator
	Targets  []value.Value

	raw value.Value
	err error
}

// FromValue parses a condition from its sequence shape.
func FromValue(raw value.Value) Condition {
	c := Condition{raw: raw}

	items, ok := raw.AsSequence()
	if !ok {
		c.err = fmt.Errorf("%w: condition %s must be a sequence, got %s", ErrMalformedCondition, raw, raw.Kind())
		return c
	}

	var target value.Value
	switch len(items) {
	case 2:
		c.Operator = OpStrictEqual
		target = items[1]
	case 3:
		// A non-string operator keeps its rendering so the operator check
		// rejects it as unknown.
		op, ok := items[1].AsString()
		if !ok {
			op = value.Render(items[1])
		}
		c.Operator = Operator(op)
		target = items[2]
	default:
		c.err = fmt.Errorf("%w: condition %s must have 2 or 3 elements, got %d", ErrMalformedCondition, raw, len(items))
		return c
	}

	paths, err := parsePaths(items[0])
	if err != nil {
		c.err = err
		return c
	}
	c.Paths = paths

	switch target.Kind() {
	case value.KindSequence, value.KindMapping:
		c.Targets = target.Children()
	default:
		c.Targets = []value.Value{target}
	}
	return c
}

func parsePaths(sel value.Value) ([]string, error) {
	if p, ok := pathString(sel); ok {
		return []string{p}, nil
	}

	items, ok := sel.AsSequence()
	if !ok {
		return nil, fmt.Errorf("%w: key selector %s must be a key path or a sequence of key paths", ErrMalformedCondition, sel)
	}
	paths := make([]string, 0, len(items))
	for _, item := range items {
		p, ok := pathString(item)
		if !ok {
			return nil, fmt.Errorf("%w: key path %s must be a string", ErrMalformedCondition, item)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// pathString accepts strings and integers, integers naming list positions.
func pathString(v value.Value) (string, bool) {
	if s, ok := v.AsString(); ok {
		return s, true
	}
	if i, ok := v.AsInt(); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

// FromSlice builds a condition from loose parts, e.g.
//
//	FromSlice("age", ">", 26)
//	FromSlice([]string{"city", "state"}, "~", "ar")
func FromSlice(parts ...any) Condition {
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.From(p)
	}
	return FromValue(value.Sequence(items...))
}

// Equals builds the two-element form [path, target].
func Equals(path string, target any) Condition {
	return FromSlice(path, target)
}

// New builds [path, op, target]. A slice target matches any of its values.
func New(path string, op Operator, target any) Condition {
	return FromSlice(path, string(op), target)
}

// AnyOf builds [[paths...], op, target].
func AnyOf(paths []string, op Operator, target any) Condition {
	return FromSlice(paths, string(op), target)
}

// Err returns the parse error of a malformed condition.
func (c Condition) Err() error {
	return c.err
}

// Raw returns the shape the condition was built from.
func (c Condition) Raw() value.Value {
	return c.raw
}

// Equal reports structural equality of the original shapes.
func (c Condition) Equal(o Condition) bool {
	return value.Identical(c.raw, o.raw)
}

func (c Condition) String() string {
	return value.Render(c.raw)
}

// SplitTargets expands a delimited "a|b|c" target string into its parts.
// Empty parts are dropped.
func SplitTargets(s, sep string) []value.Value {
	if sep == "" || !strings.Contains(s, sep) {
		return []value.Value{value.String(s)}
	}
	parts := strings.Split(s, sep)
	out := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, value.String(p))
		}
	}
	return out
}

// ExpandTargets rewrites string targets of c containing sep into one target
// per part. Conditions without such targets are returned unchanged.
func ExpandTargets(c Condition, sep string) Condition {
	if c.err != nil || sep == "" {
		return c
	}
	items, _ := c.raw.AsSequence()
	last := items[len(items)-1]
	s, ok := last.AsString()
	if !ok || !strings.Contains(s, sep) {
		return c
	}

	rebuilt := make([]value.Value, len(items))
	copy(rebuilt, items)
	rebuilt[len(items)-1] = value.Sequence(SplitTargets(s, sep)...)
	return FromValue(value.Sequence(rebuilt...))
}
