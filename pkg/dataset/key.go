// ABOUTME: Dataset keys: original array index or associative name
// ABOUTME: Canonical decimal names normalise to index keys

package dataset

import (
	"strconv"

	"github.com/nainya/recquery/pkg/value"
)

// Key identifies a record in a Dataset. The zero Key is Index(0).
type Key struct {
	name  string
	index int64
	named bool
}

// Index returns an index key.
func Index(i int64) Key {
	return Key{index: i}
}

// Name returns a name key. Names that are canonical decimal integers
// ("7", "-3" but not "07" or "+3") become index keys.
func Name(s string) Key {
	if i, ok := canonicalInt(s); ok {
		return Index(i)
	}
	return Key{name: s, named: true}
}

// KeyFromValue converts an Int or String value into a Key.
func KeyFromValue(v value.Value) (Key, bool) {
	if i, ok := v.AsInt(); ok {
		return Index(i), true
	}
	if s, ok := v.AsString(); ok {
		return Name(s), true
	}
	return Key{}, false
}

// Int returns the index of an index key.
func (k Key) Int() (int64, bool) {
	return k.index, !k.named
}

// IsName reports whether k is a name key.
func (k Key) IsName() bool {
	return k.named
}

func (k Key) String() string {
	if k.named {
		return k.name
	}
	return strconv.FormatInt(k.index, 10)
}

// Value returns k as an Int or String value.
func (k Key) Value() value.Value {
	if k.named {
		return value.String(k.name)
	}
	return value.Int(k.index)
}

func canonicalInt(s string) (int64, bool) {
	if s == "" || s == "-" {
		return 0, false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits[0] < '0' || digits[0] > '9' {
		return 0, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	if s == "-0" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}
