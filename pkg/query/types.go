// ABOUTME: Query result types, result selectors and the fluent builder
// ABOUTME: Find resolves all, first, last or a single key from the result

package query

import (
	"time"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
	"github.com/nainya/recquery/pkg/value"
)

type selectorKind uint8

const (
	selectAll selectorKind = iota
	selectFirst
	selectLast
	selectKey
)

// Selector chooses what Find returns from the filtered, sorted and
// paginated dataset.
type Selector struct {
	kind selectorKind
	key  dataset.Key
}

var (
	// SelectAll returns the whole result dataset.
	SelectAll = Selector{kind: selectAll}
	// SelectFirst returns the first record of the result.
	SelectFirst = Selector{kind: selectFirst}
	// SelectLast returns the last record of the result.
	SelectLast = Selector{kind: selectLast}
)

// SelectKey returns the record stored under k in the result.
func SelectKey(k dataset.Key) Selector {
	return Selector{kind: selectKey, key: k}
}

// ParseSelector maps "all", "first" and "last" to their selectors and any
// other string to a key lookup. The empty string selects all.
func ParseSelector(s string) Selector {
	switch s {
	case "", "all":
		return SelectAll
	case "first":
		return SelectFirst
	case "last":
		return SelectLast
	default:
		return SelectKey(dataset.Name(s))
	}
}

func (s Selector) String() string {
	switch s.kind {
	case selectFirst:
		return "first"
	case selectLast:
		return "last"
	case selectKey:
		return s.key.String()
	default:
		return "all"
	}
}

// Result is the outcome of Find.
type Result struct {
	Selector Selector
	// Records holds the result dataset for SelectAll.
	Records *dataset.Dataset
	// Record and Key hold the selected record for the other selectors;
	// Found is false when there was nothing to select.
	Record value.Value
	Key    dataset.Key
	Found  bool
	// Diagnostics lists the recoverable issues raised during the call.
	Diagnostics []condition.Diagnostic
}

// Value returns the result dataset for SelectAll, the selected record, or
// Null when nothing was found.
func (r *Result) Value() value.Value {
	if r.Selector.kind == selectAll {
		return r.Records.Value()
	}
	if !r.Found {
		return value.Null()
	}
	return r.Record
}

// Observer receives per-call measurements from an Engine. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveQuery(op string, elapsed time.Duration, scanned, matched int, err error)
	ObserveDiagnostic(op string, d condition.Diagnostic)
}

// QueryBuilder provides fluent interface for building options
type QueryBuilder struct {
	opts Options
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{opts: DefaultOptions()}
}

// Where adds a [path, target] condition, matching with ===.
func (qb *QueryBuilder) Where(path string, target any) *QueryBuilder {
	return qb.Condition(condition.Equals(path, target))
}

// WhereOp adds a [path, op, target] condition.
func (qb *QueryBuilder) WhereOp(path string, op condition.Operator, target any) *QueryBuilder {
	return qb.Condition(condition.New(path, op, target))
}

// WhereAny adds a condition matching if any of paths satisfies op.
func (qb *QueryBuilder) WhereAny(paths []string, op condition.Operator, target any) *QueryBuilder {
	return qb.Condition(condition.AnyOf(paths, op, target))
}

// Condition adds a prepared condition
func (qb *QueryBuilder) Condition(c condition.Condition) *QueryBuilder {
	qb.opts = qb.opts.WithWhere(c)
	return qb
}

// Limit sets the result limit
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.opts = qb.opts.WithLimit(limit)
	return qb
}

// Offset sets the result offset
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.opts = qb.opts.WithOffset(offset)
	return qb
}

// OrderBy sets the sort key path and direction
func (qb *QueryBuilder) OrderBy(key string, order Order) *QueryBuilder {
	qb.opts = qb.opts.WithSort(key, order)
	return qb
}

// Build returns the constructed options
func (qb *QueryBuilder) Build() Options {
	return qb.opts.WithWhere()
}
