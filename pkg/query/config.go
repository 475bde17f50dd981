// ABOUTME: Immutable engine configuration
// ABOUTME: Key separator, operator whitelist and default options

package query

import (
	"fmt"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/keypath"
)

// Config is copied into an Engine at construction and never changes
// afterwards.
type Config struct {
	// KeySeparator splits key paths into segments.
	KeySeparator string
	// Operators lists the operators conditions may use. Empty means all.
	Operators condition.OperatorSet
	// Defaults are merged under the options of every Find call.
	Defaults Options
}

// DefaultConfig returns the library defaults.
func DefaultConfig() Config {
	return Config{
		KeySeparator: keypath.DefaultSeparator,
		Operators:    condition.DefaultOperators(),
		Defaults:     DefaultOptions(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.KeySeparator == "" {
		return fmt.Errorf("%w: key separator must not be empty", ErrInvalidConfig)
	}
	if c.Defaults.Limit < 0 {
		return fmt.Errorf("%w: default limit must not be negative", ErrInvalidConfig)
	}
	if c.Defaults.Offset < 0 {
		return fmt.Errorf("%w: default offset must not be negative", ErrInvalidConfig)
	}
	for i, cond := range c.Defaults.Where {
		if err := cond.Err(); err != nil {
			return fmt.Errorf("%w: default condition %d: %w", ErrInvalidConfig, i, err)
		}
		if c.Operators.Len() > 0 && !c.Operators.Contains(cond.Operator) {
			return fmt.Errorf("%w: default condition %d: %w: %q", ErrInvalidConfig, i, condition.ErrUnknownOperator, string(cond.Operator))
		}
	}
	return nil
}
