// ABOUTME: Dotted key-path extraction across nested records
// ABOUTME: Broadcasts a path over child collections when a key is missing

package keypath

import (
	"strconv"
	"strings"

	"github.com/nainya/recquery/pkg/value"
)

// DefaultSeparator splits key paths into segments.
const DefaultSeparator = "."

// Extractor resolves key paths against values. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	sep string
}

// New creates an extractor splitting paths on sep. An empty sep selects
// DefaultSeparator.
func New(sep string) *Extractor {
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Extractor{sep: sep}
}

var defaultExtractor = New(DefaultSeparator)

// Extract resolves path against item using DefaultSeparator.
func Extract(item value.Value, path string) []value.Value {
	return defaultExtractor.Extract(item, path)
}

// Separator returns the segment separator.
func (e *Extractor) Separator() string {
	return e.sep
}

// Split returns the non-empty segments of path.
func (e *Extractor) Split(path string) []string {
	return Split(path, e.sep)
}

// Extract returns every value path resolves to inside item. The result is
// never nil; a path that matches nothing yields an empty slice.
//
// Resolution, one segment at a time:
//   - no segments left: item itself;
//   - a mapping holding the segment, or a sequence with the segment as an
//     in-range index: descend into that child;
//   - otherwise, when the first child is a collection holding the segment,
//     the whole remaining path is applied to every child;
//   - scalars contribute themselves whatever segments remain.
func (e *Extractor) Extract(item value.Value, path string) []value.Value {
	return extract(item, e.Split(path), make([]value.Value, 0, 1))
}

func extract(item value.Value, segs []string, out []value.Value) []value.Value {
	if len(segs) == 0 {
		return append(out, item)
	}

	switch item.Kind() {
	case value.KindMapping:
		m, _ := item.AsMapping()
		m = normalize(m)
		if child, ok := m.Get(segs[0]); ok {
			return extract(child, segs[1:], out)
		}
		_, first, ok := m.First()
		if ok && holds(first, segs[0]) {
			m.Range(func(_ string, child value.Value) bool {
				out = extract(child, segs, out)
				return true
			})
		}
		return out

	case value.KindSequence:
		items, _ := item.AsSequence()
		if i, ok := index(segs[0], len(items)); ok {
			return extract(items[i], segs[1:], out)
		}
		if len(items) > 0 && holds(items[0], segs[0]) {
			for _, child := range items {
				out = extract(child, segs, out)
			}
		}
		return out

	default:
		return append(out, item)
	}
}

// holds reports whether v is a collection containing seg as a key.
func holds(v value.Value, seg string) bool {
	switch v.Kind() {
	case value.KindMapping:
		m, _ := v.AsMapping()
		return normalize(m).Has(seg)
	case value.KindSequence:
		_, ok := index(seg, v.Len())
		return ok
	default:
		return false
	}
}

// index parses seg as a canonical non-negative decimal index below n.
func index(seg string, n int) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i >= n {
		return 0, false
	}
	return i, true
}

// Split returns the non-empty segments of path split on sep.
func Split(path, sep string) []string {
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(path, sep)
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Join joins segments with sep.
func Join(segs []string, sep string) string {
	return strings.Join(segs, sep)
}
