// ABOUTME: Query engine: where filter, sorter and the find pipeline
// ABOUTME: Pure synchronous operations over in-memory datasets

// Package query runs filter, sort and pagination queries over datasets of
// loosely-typed records.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
	"github.com/nainya/recquery/pkg/keypath"
	"github.com/nainya/recquery/pkg/value"
)

// Engine evaluates queries with a fixed configuration. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg       Config
	extractor *keypath.Extractor
	evaluator *condition.Evaluator
	logger    zerolog.Logger
	observer  Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for diagnostics and query traces.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver sets an observer for query measurements.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// NewEngine creates an engine after validating cfg.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Defaults = Merge(cfg.Defaults)

	e := &Engine{
		cfg:       cfg,
		extractor: keypath.New(cfg.KeySeparator),
		evaluator: condition.NewEvaluator(cfg.Operators, nil),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Default returns an engine with DefaultConfig.
func Default() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Extract resolves path against item.
func (e *Engine) Extract(item value.Value, path string) []value.Value {
	return e.extractor.Extract(item, path)
}

// Compare counts the values satisfying op against target. Type mismatches
// are logged and passed to the observer.
func (e *Engine) Compare(values []value.Value, op condition.Operator, target value.Value) (int, error) {
	var col condition.Collector
	n, err := e.evaluator.WithReporter(&col).Compare(values, op, target)
	e.emit("compare", col.Diagnostics())
	return n, err
}

// Where returns the records of ds satisfying every condition.
func (e *Engine) Where(ds *dataset.Dataset, conds ...condition.Condition) (*dataset.Dataset, error) {
	start := time.Now()
	var col condition.Collector

	out, err := e.where(ds, conds, &col)
	e.emit("where", col.Diagnostics())
	e.finish("where", start, ds.Len(), out.Len(), err)
	return out, err
}

// Sort returns ds ordered by the value at keyPath.
func (e *Engine) Sort(ds *dataset.Dataset, keyPath string, order Order) *dataset.Dataset {
	start := time.Now()
	out := e.sort(ds, keyPath, order)
	e.finish("sort", start, ds.Len(), out.Len(), nil)
	return out
}

// Find merges opts over the engine defaults, filters, sorts when a sort
// key is set, paginates and resolves sel. ds is not modified.
func (e *Engine) Find(ds *dataset.Dataset, opts Options, sel Selector) (*Result, error) {
	start := time.Now()
	o := Merge(e.cfg.Defaults, opts)

	var col condition.Collector
	out, err := e.where(ds, o.Where, &col)
	diags := col.Diagnostics()
	e.emit("find", diags)
	if err != nil {
		e.finish("find", start, ds.Len(), 0, err)
		return nil, err
	}
	matched := out.Len()

	if o.SortKey != "" {
		out = e.sort(out, o.SortKey, o.SortOrder)
	}
	out = out.Slice(o.Offset, o.Limit)

	res := &Result{Selector: sel, Diagnostics: diags}
	switch sel.kind {
	case selectAll:
		res.Records = out
		res.Found = true
	case selectFirst:
		if entry, ok := out.First(); ok {
			res.Key, res.Record, res.Found = entry.Key, entry.Record, true
		}
	case selectLast:
		if entry, ok := out.Last(); ok {
			res.Key, res.Record, res.Found = entry.Key, entry.Record, true
		}
	case selectKey:
		res.Key = sel.key
		res.Record, res.Found = out.Get(sel.key)
	}

	e.finish("find", start, ds.Len(), matched, nil)
	return res, nil
}

func (e *Engine) where(ds *dataset.Dataset, conds []condition.Condition, rep condition.Reporter) (*dataset.Dataset, error) {
	for i, c := range conds {
		if c.Err() != nil {
			continue
		}
		if err := e.evaluator.Check(c.Operator); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
	}

	out := ds.Clone()
	for i, c := range conds {
		if err := c.Err(); err != nil {
			rep.Report(condition.Diagnostic{Kind: condition.MalformedCondition, Condition: i, Err: err})
			continue
		}

		eval := e.evaluator.WithReporter(condition.ReporterFunc(func(d condition.Diagnostic) {
			d.Condition = i
			rep.Report(d)
		}))
		out = out.Filter(func(_ dataset.Key, rec value.Value) bool {
			return e.matches(eval, rec, c) > 0
		})
	}
	return out, nil
}

// matches accumulates the match count over every (path, target) pair.
func (e *Engine) matches(eval *condition.Evaluator, rec value.Value, c condition.Condition) int {
	total := 0
	for _, path := range c.Paths {
		values := e.extractor.Extract(rec, path)
		for _, target := range c.Targets {
			// The operator was checked before filtering.
			n, _ := eval.Compare(values, c.Operator, target)
			total += n
		}
	}
	return total
}

func (e *Engine) sort(ds *dataset.Dataset, keyPath string, order Order) *dataset.Dataset {
	keys := make(map[dataset.Key]value.Value, ds.Len())
	ds.Range(func(k dataset.Key, rec value.Value) bool {
		keys[k] = e.sortValue(rec, keyPath)
		return true
	})

	out := ds.SortStable(func(a, b dataset.Entry) int {
		return compareSortValues(keys[a.Key], keys[b.Key])
	})
	if order == Desc {
		out = out.Reverse()
	}
	return out
}

func (e *Engine) sortValue(rec value.Value, keyPath string) value.Value {
	values := e.extractor.Extract(rec, keyPath)
	if len(values) == 0 {
		return value.Null()
	}
	return values[0]
}

// compareSortValues orders strings case-insensitively and everything else
// by loose comparison. Collections sort after scalars.
func compareSortValues(a, b value.Value) int {
	ac, bc := a.IsComposite(), b.IsComposite()
	switch {
	case ac && bc:
		return strings.Compare(value.Render(a), value.Render(b))
	case ac:
		return 1
	case bc:
		return -1
	}

	as, aok := a.AsString()
	bs, bok := b.AsString()
	if aok && bok {
		return condition.CompareFold(as, bs)
	}

	if condition.LooseEqual(a, b) {
		return 0
	}
	if cmp, _ := condition.LooseCompare(a, b); cmp > 0 {
		return 1
	}
	return -1
}

func (e *Engine) emit(op string, diags []condition.Diagnostic) {
	for _, d := range diags {
		e.logger.Warn().
			Str("operation", op).
			Str("kind", d.Kind.String()).
			Int("condition", d.Condition).
			Int("count", d.Count).
			Err(d.Err).
			Msg("Query diagnostic")
		if e.observer != nil {
			e.observer.ObserveDiagnostic(op, d)
		}
	}
}

func (e *Engine) finish(op string, start time.Time, scanned, matched int, err error) {
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Error().
			Str("operation", op).
			Err(err).
			Dur("duration", elapsed).
			Msg("Query failed")
	} else {
		e.logger.Debug().
			Str("operation", op).
			Int("scanned", scanned).
			Int("matched", matched).
			Dur("duration", elapsed).
			Msg("Query completed")
	}
	if e.observer != nil {
		e.observer.ObserveQuery(op, elapsed, scanned, matched, err)
	}
}
