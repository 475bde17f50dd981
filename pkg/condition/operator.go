// ABOUTME: Comparison operators and the operator whitelist
// ABOUTME: Nine operators; an OperatorSet restricts what an engine accepts

package condition

import "fmt"

// Operator is a comparison operator.
type Operator string

const (
	OpLooseEqual     Operator = "=="
	OpStrictEqual    Operator = "==="
	OpLooseNotEqual  Operator = "!="
	OpStrictNotEqual Operator = "!=="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpGreaterEqual   Operator = ">="
	OpLessEqual      Operator = "<="
	OpFuzzy          Operator = "~"
)

var knownOperators = []Operator{
	OpLooseEqual, OpStrictEqual, OpLooseNotEqual, OpStrictNotEqual,
	OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpFuzzy,
}

// Known reports whether op is one of the nine supported operators.
func (op Operator) Known() bool {
	for _, k := range knownOperators {
		if op == k {
			return true
		}
	}
	return false
}

// Ordering reports whether op is one of >, <, >=, <=.
func (op Operator) Ordering() bool {
	switch op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

// ParseOperator validates s against the supported operators.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
	return op, nil
}

// OperatorSet is an immutable whitelist of operators.
type OperatorSet struct {
	ops map[Operator]struct{}
}

// NewOperatorSet builds a set from ops. Operators that are not supported
// are ignored.
func NewOperatorSet(ops ...Operator) OperatorSet {
	set := OperatorSet{ops: make(map[Operator]struct{}, len(ops))}
	for _, op := range ops {
		if op.Known() {
			set.ops[op] = struct{}{}
		}
	}
	return set
}

// DefaultOperators returns the set of all supported operators.
func DefaultOperators() OperatorSet {
	return NewOperatorSet(knownOperators...)
}

// Contains reports whether op is allowed.
func (s OperatorSet) Contains(op Operator) bool {
	_, ok := s.ops[op]
	return ok
}

// Len returns the number of allowed operators.
func (s OperatorSet) Len() int {
	return len(s.ops)
}

// List returns the allowed operators in canonical order.
func (s OperatorSet) List() []Operator {
	out := make([]Operator, 0, len(s.ops))
	for _, op := range knownOperators {
		if s.Contains(op) {
			out = append(out, op)
		}
	}
	return out
}
