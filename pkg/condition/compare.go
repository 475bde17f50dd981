// ABOUTME: Evaluator counting extracted values that satisfy an operator
// ABOUTME: Reports type mismatches as diagnostics and rejects unknown operators

package condition

import (
	"fmt"

	"github.com/nainya/recquery/pkg/value"
)

// Evaluator counts extracted values matching an operator and target.
// It is immutable and safe for concurrent use when its Reporter is.
type Evaluator struct {
	ops OperatorSet
	rep Reporter
}

// NewEvaluator creates an evaluator allowing ops. A zero-length set allows
// every supported operator. rep may be nil.
func NewEvaluator(ops OperatorSet, rep Reporter) *Evaluator {
	if ops.Len() == 0 {
		ops = DefaultOperators()
	}
	return &Evaluator{ops: ops, rep: rep}
}

// WithReporter returns a copy of e reporting to rep.
func (e *Evaluator) WithReporter(rep Reporter) *Evaluator {
	return &Evaluator{ops: e.ops, rep: rep}
}

// Operators returns the allowed operator set.
func (e *Evaluator) Operators() OperatorSet {
	return e.ops
}

// Check returns ErrUnknownOperator if op is not allowed.
func (e *Evaluator) Check(op Operator) error {
	if !e.ops.Contains(op) {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, string(op))
	}
	return nil
}

// Compare returns how many of values satisfy op against target.
func (e *Evaluator) Compare(values []value.Value, op Operator, target value.Value) (int, error) {
	if err := e.Check(op); err != nil {
		return 0, err
	}

	count := 0
	for _, v := range values {
		ok, err := match(v, op, target)
		if err != nil {
			e.report(Diagnostic{Kind: TypeMismatch, Condition: -1, Err: err})
			continue
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (e *Evaluator) report(d Diagnostic) {
	if e.rep != nil {
		e.rep.Report(d)
	}
}

var defaultEvaluator = NewEvaluator(DefaultOperators(), nil)

// Compare evaluates with every supported operator allowed and without
// diagnostics.
func Compare(values []value.Value, op Operator, target value.Value) (int, error) {
	return defaultEvaluator.Compare(values, op, target)
}

func match(v value.Value, op Operator, target value.Value) (bool, error) {
	switch op {
	case OpLooseEqual:
		return LooseEqual(v, target), nil
	case OpLooseNotEqual:
		return !LooseEqual(v, target), nil
	case OpStrictEqual:
		return value.Identical(v, target), nil
	case OpStrictNotEqual:
		return !value.Identical(v, target), nil
	case OpFuzzy:
		return Fuzzy(v, target), nil
	}

	cmp, ok := LooseCompare(v, target)
	if !ok {
		return false, fmt.Errorf("%w: cannot compare %s with %s using %q", ErrTypeMismatch, v.Kind(), target.Kind(), string(op))
	}
	switch op {
	case OpGreater:
		return cmp > 0, nil
	case OpLess:
		return cmp < 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownOperator, string(op))
}

// Fuzzy reports whether v loosely contains target: loose equality, a
// case-insensitive substring of a string value, two nulls, or a
// case-insensitive substring of the rendered form of a sequence or mapping.
func Fuzzy(v, target value.Value) bool {
	if LooseEqual(v, target) {
		return true
	}

	switch {
	case v.Kind() == value.KindString && target.Kind() == value.KindString:
		s, _ := v.AsString()
		t, _ := target.AsString()
		return ContainsFold(s, t)
	case v.IsNull() && target.IsNull():
		return true
	case v.IsComposite():
		needle := needleOf(target)
		if needle == "" && target.Kind() != value.KindString {
			return false
		}
		return ContainsFold(value.Render(v), needle)
	}
	return false
}

func needleOf(target value.Value) string {
	switch target.Kind() {
	case value.KindString:
		s, _ := target.AsString()
		return s
	case value.KindInt, value.KindFloat:
		return formatNumber(target)
	case value.KindBool:
		if b, _ := target.AsBool(); b {
			return "1"
		}
		return ""
	case value.KindSequence, value.KindMapping:
		return value.Render(target)
	default:
		return ""
	}
}
