// ABOUTME: Ordered keyed collection of records queried by the engine
// ABOUTME: Keys are preserved through filtering, sorting and pagination

// Package dataset holds the ordered key → record collections that queries
// run over, plus loaders for flat files.
package dataset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nainya/recquery/pkg/value"
)

// ErrNotCollection is returned when a value other than a sequence or
// mapping is used as a dataset.
var ErrNotCollection = errors.New("dataset: value is not a sequence or mapping")

// Entry is one keyed record.
type Entry struct {
	Key    Key
	Record value.Value
}

// Dataset is an insertion-ordered mapping from Key to record. Operations
// that produce a different membership or order return a new Dataset and
// leave the receiver untouched; records are shared, not copied.
//
// A Dataset is not safe for concurrent mutation. Concurrent reads are safe.
type Dataset struct {
	entries []Entry
	pos     map[Key]int
	next    int64
}

// New returns an empty dataset with room for capacity records.
func New(capacity int) *Dataset {
	return &Dataset{
		entries: make([]Entry, 0, capacity),
		pos:     make(map[Key]int, capacity),
	}
}

// FromRecords builds a dataset keyed 0..n-1.
func FromRecords(records ...value.Value) *Dataset {
	ds := New(len(records))
	for _, r := range records {
		ds.Append(r)
	}
	return ds
}

// FromEntries builds a dataset from entries in order. A repeated key
// replaces the earlier record in place.
func FromEntries(entries ...Entry) *Dataset {
	ds := New(len(entries))
	for _, e := range entries {
		ds.Set(e.Key, e.Record)
	}
	return ds
}

// FromValue builds a dataset from a sequence (index keys) or a mapping
// (name keys, in mapping order).
func FromValue(v value.Value) (*Dataset, error) {
	switch v.Kind() {
	case value.KindSequence:
		return FromRecords(v.Children()...), nil
	case value.KindMapping:
		m, _ := v.AsMapping()
		ds := New(m.Len())
		m.Range(func(k string, rec value.Value) bool {
			ds.Set(Name(k), rec)
			return true
		})
		return ds, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrNotCollection, v.Kind())
	}
}

// Set stores rec under k. An existing key keeps its position.
func (d *Dataset) Set(k Key, rec value.Value) {
	if d.pos == nil {
		d.pos = make(map[Key]int)
	}
	if i, ok := d.pos[k]; ok {
		d.entries[i].Record = rec
		return
	}
	d.pos[k] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: k, Record: rec})
	if i, ok := k.Int(); ok && i >= d.next {
		d.next = i + 1
	}
}

// Append stores rec under the next free index key and returns that key.
func (d *Dataset) Append(rec value.Value) Key {
	k := Index(d.next)
	d.Set(k, rec)
	return k
}

// Get returns the record stored under k.
func (d *Dataset) Get(k Key) (value.Value, bool) {
	if d == nil {
		return value.Null(), false
	}
	i, ok := d.pos[k]
	if !ok {
		return value.Null(), false
	}
	return d.entries[i].Record, true
}

// Has reports whether k is present.
func (d *Dataset) Has(k Key) bool {
	_, ok := d.Get(k)
	return ok
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns the keys in order.
func (d *Dataset) Keys() []Key {
	keys := make([]Key, d.Len())
	for i := range keys {
		keys[i] = d.entries[i].Key
	}
	return keys
}

// Entries returns a copy of the entries in order.
func (d *Dataset) Entries() []Entry {
	if d == nil {
		return []Entry{}
	}
	return slices.Clone(d.entries)
}

// Records returns the records in order.
func (d *Dataset) Records() []value.Value {
	out := make([]value.Value, d.Len())
	for i := range out {
		out[i] = d.entries[i].Record
	}
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (d *Dataset) Range(fn func(k Key, rec value.Value) bool) {
	if d == nil {
		return
	}
	for _, e := range d.entries {
		if !fn(e.Key, e.Record) {
			return
		}
	}
}

// First returns the first entry.
func (d *Dataset) First() (Entry, bool) {
	if d.Len() == 0 {
		return Entry{}, false
	}
	return d.entries[0], true
}

// Last returns the last entry.
func (d *Dataset) Last() (Entry, bool) {
	if d.Len() == 0 {
		return Entry{}, false
	}
	return d.entries[len(d.entries)-1], true
}

// Filter returns the entries for which keep returns true, keys and
// relative order preserved.
func (d *Dataset) Filter(keep func(k Key, rec value.Value) bool) *Dataset {
	out := New(d.Len())
	d.Range(func(k Key, rec value.Value) bool {
		if keep(k, rec) {
			out.Set(k, rec)
		}
		return true
	})
	out.next = max(out.next, d.nextIndex())
	return out
}

// Slice returns up to limit entries starting at offset, keys preserved.
// A limit of 0 means no limit; a negative offset counts as 0 and an offset
// past the end yields an empty dataset.
func (d *Dataset) Slice(offset, limit int) *Dataset {
	n := d.Len()
	offset = max(offset, 0)
	if offset >= n {
		return New(0)
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return FromEntries(d.entries[offset:end]...)
}

// SortStable returns a copy ordered by cmp. Entries comparing equal keep
// their relative order.
func (d *Dataset) SortStable(cmp func(a, b Entry) int) *Dataset {
	entries := d.Entries()
	slices.SortStableFunc(entries, cmp)
	return FromEntries(entries...)
}

// Reverse returns a copy in reverse order.
func (d *Dataset) Reverse() *Dataset {
	entries := d.Entries()
	slices.Reverse(entries)
	return FromEntries(entries...)
}

// Reindex returns a copy keyed 0..n-1 in current order. Queries preserve
// original keys; this is for consumers that need sequential keys.
func (d *Dataset) Reindex() *Dataset {
	return FromRecords(d.Records()...)
}

// Clone returns a shallow copy.
func (d *Dataset) Clone() *Dataset {
	out := FromEntries(d.Entries()...)
	out.next = max(out.next, d.nextIndex())
	return out
}

func (d *Dataset) nextIndex() int64 {
	if d == nil {
		return 0
	}
	return d.next
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (d *Dataset) IsList() bool {
	if d == nil {
		return true
	}
	for i, e := range d.entries {
		if idx, ok := e.Key.Int(); !ok || idx != int64(i) {
			return false
		}
	}
	return true
}

// Value returns the dataset as a sequence when it is a list and as a
// mapping keyed by Key.String otherwise.
func (d *Dataset) Value() value.Value {
	if d.IsList() {
		return value.Sequence(d.Records()...)
	}
	m := value.NewMapping(d.Len())
	d.Range(func(k Key, rec value.Value) bool {
		m.Set(k.String(), rec)
		return true
	})
	return value.Map(m)
}

// MarshalJSON encodes Value.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	return d.Value().MarshalJSON()
}
