// Package condition implements filter conditions and their comparison
// semantics over extracted record values.
package condition

import "errors"

var (
	// ErrMalformedCondition indicates a condition that is not a sequence of
	// the expected shape. Filtering skips it and continues.
	ErrMalformedCondition = errors.New("condition: malformed condition")

	// ErrUnknownOperator indicates an operator outside the allowed set.
	// It aborts the enclosing call.
	ErrUnknownOperator = errors.New("condition: unknown operator")

	// ErrTypeMismatch indicates an ordering operator applied to a
	// sequence or mapping. The value is treated as non-matching.
	ErrTypeMismatch = errors.New("condition: type mismatch")
)
