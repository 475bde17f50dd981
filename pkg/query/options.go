// ABOUTME: Query options, sort order and the options merger
// ABOUTME: Where conditions merge additively without structural duplicates

package query

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/value"
)

var (
	// ErrInvalidOptions is returned when decoding options of the wrong shape.
	ErrInvalidOptions = errors.New("query: invalid options")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("query: invalid config")
)

// Order is a sort direction.
type Order uint8

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseOrder maps "DESC" in any case to Desc and anything else to Asc.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "DESC") {
		return Desc
	}
	return Asc
}

type field uint8

const (
	fieldLimit field = 1 << iota
	fieldOffset
	fieldSortKey
	fieldSortOrder
)

// Options control a Find call. The zero value matches everything, in
// dataset order, without pagination.
//
// When merged, a field overrides earlier sets if it is non-zero or was set
// through a With method or OptionsFromValue. A zero written in a struct
// literal is indistinguishable from an unset field, so it cannot clear a
// default; use the With method instead:
//
//	defaults := DefaultOptions().WithLimit(10)
//	Merge(defaults, Options{Limit: 0})      // Limit stays 10
//	Merge(defaults, Options{}.WithLimit(0)) // Limit becomes 0, no limit
type Options struct {
	Where     []condition.Condition
	Limit     int
	Offset    int
	SortKey   string
	SortOrder Order

	set field
}

// DefaultOptions returns the library defaults: no conditions, no limit,
// no offset, no sorting, ascending order.
func DefaultOptions() Options {
	return Options{Where: []condition.Condition{}, SortOrder: Asc}
}

// WithWhere returns a copy with conds appended.
func (o Options) WithWhere(conds ...condition.Condition) Options {
	o.Where = append(slices.Clone(o.Where), conds...)
	return o
}

// WithLimit returns a copy with the limit set. 0 means no limit.
func (o Options) WithLimit(n int) Options {
	o.Limit = n
	o.set |= fieldLimit
	return o
}

// WithOffset returns a copy with the offset set.
func (o Options) WithOffset(n int) Options {
	o.Offset = n
	o.set |= fieldOffset
	return o
}

// WithSort returns a copy sorting by key in order. An empty key disables
// sorting.
func (o Options) WithSort(key string, order Order) Options {
	o.SortKey = key
	o.SortOrder = order
	o.set |= fieldSortKey | fieldSortOrder
	return o
}

// WithSortOrder returns a copy with only the sort order set.
func (o Options) WithSortOrder(order Order) Options {
	o.SortOrder = order
	o.set |= fieldSortOrder
	return o
}

func (o Options) isSet(f field) bool {
	if o.set&f != 0 {
		return true
	}
	switch f {
	case fieldLimit:
		return o.Limit != 0
	case fieldOffset:
		return o.Offset != 0
	case fieldSortKey:
		return o.SortKey != ""
	case fieldSortOrder:
		return o.SortOrder != Asc
	}
	return false
}

// Merge combines option sets left to right. Scalar fields set in a later
// set override earlier ones. Where lists are merged additively: the first
// non-empty list is taken as is, and a condition from a later list is
// appended only if no structurally equal condition is already present.
func Merge(sets ...Options) Options {
	out := DefaultOptions()
	for _, s := range sets {
		if len(s.Where) > 0 {
			if len(out.Where) == 0 {
				out.Where = slices.Clone(s.Where)
			} else {
				for _, c := range s.Where {
					if !containsCondition(out.Where, c) {
						out.Where = append(out.Where, c)
					}
				}
			}
		}

		if s.isSet(fieldLimit) {
			out.Limit = s.Limit
			out.set |= fieldLimit
		}
		if s.isSet(fieldOffset) {
			out.Offset = s.Offset
			out.set |= fieldOffset
		}
		if s.isSet(fieldSortKey) {
			out.SortKey = s.SortKey
			out.set |= fieldSortKey
		}
		if s.isSet(fieldSortOrder) {
			out.SortOrder = s.SortOrder
			out.set |= fieldSortOrder
		}
	}
	return out
}

func containsCondition(list []condition.Condition, c condition.Condition) bool {
	return slices.ContainsFunc(list, c.Equal)
}

// OptionsFromValue decodes options from a mapping with the keys where,
// limit, offset, sort_key and sort_order. Other keys are ignored. Present
// keys count as set for Merge.
func OptionsFromValue(v value.Value) (Options, error) {
	o := DefaultOptions()
	if v.IsNull() {
		return o, nil
	}
	m, ok := v.AsMapping()
	if !ok {
		return o, fmt.Errorf("%w: options must be a mapping, got %s", ErrInvalidOptions, v.Kind())
	}

	if w, ok := m.Get("where"); ok && !w.IsNull() {
		items, ok := w.AsSequence()
		if !ok {
			return o, fmt.Errorf("%w: where must be a sequence, got %s", ErrInvalidOptions, w.Kind())
		}
		for _, item := range items {
			o.Where = append(o.Where, condition.FromValue(item))
		}
	}

	if l, ok := m.Get("limit"); ok {
		n, err := nonNegativeInt("limit", l)
		if err != nil {
			return o, err
		}
		o = o.WithLimit(n)
	}
	if off, ok := m.Get("offset"); ok {
		n, err := nonNegativeInt("offset", off)
		if err != nil {
			return o, err
		}
		o = o.WithOffset(n)
	}
	if k, ok := m.Get("sort_key"); ok {
		switch {
		case k.IsNull():
			o.SortKey = ""
		case k.Kind() == value.KindString:
			o.SortKey, _ = k.AsString()
		default:
			return o, fmt.Errorf("%w: sort_key must be a string, got %s", ErrInvalidOptions, k.Kind())
		}
		o.set |= fieldSortKey
	}
	if so, ok := m.Get("sort_order"); ok && !so.IsNull() {
		s, ok := so.AsString()
		if !ok {
			return o, fmt.Errorf("%w: sort_order must be a string, got %s", ErrInvalidOptions, so.Kind())
		}
		o = o.WithSortOrder(ParseOrder(s))
	}
	return o, nil
}

func nonNegativeInt(name string, v value.Value) (int, error) {
	var n int64
	switch v.Kind() {
	case value.KindNull:
		return 0, nil
	case value.KindInt:
		n, _ = v.AsInt()
	case value.KindFloat:
		f, _ := v.AsFloat()
		var err error
		if n, err = integralFloat(name, v, f); err != nil {
			return 0, err
		}
	case value.KindString:
		s, _ := v.AsString()
		f, ok := condition.ParseNumeric(s)
		if !ok {
			return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidOptions, name, v)
		}
		var err error
		if n, err = integralFloat(name, v, f); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidOptions, name, v.Kind())
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidOptions, name, n)
	}
	return int(n), nil
}

// integralFloat converts f to int64, rejecting fractions and magnitudes
// int64 cannot hold. float64(math.MaxInt64) rounds up to 2^63, hence >=.
func integralFloat(name string, v value.Value, f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidOptions, name, v)
	}
	if math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s out of range, got %s", ErrInvalidOptions, name, v)
	}
	return int64(f), nil
}
