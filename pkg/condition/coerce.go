// ABOUTME: Loose equality, ordering and truthiness coercion rules
// ABOUTME: Numeric strings compare numerically; collections are not orderable

package condition

import (
	"strconv"
	"strings"

	"github.com/nainya/recquery/pkg/value"
)

// Coercion rules for loose comparisons.
//
// Truthiness: null, false, 0, 0.0, "", "0" and empty collections are falsy.
//
// Loose equality:
//
//	bool vs anything        truthiness of both sides
//	null vs null            true
//	null vs number          number == 0
//	null vs string          string == ""
//	null vs collection      collection is empty
//	number vs number        numeric
//	number vs string        numeric if the string is numeric, else the
//	                        formatted number compared as a string
//	string vs string        numeric if both are numeric, else bytewise
//	collection vs collection same kind, same size, children loosely equal
//	                        (mappings compared by key, order-insensitive)
//	collection vs scalar    false
//
// Loose ordering follows the same table: bool or null (except null vs
// string, which compares "" with the string) compare by truthiness, numbers
// numerically, strings bytewise unless both are numeric. Collections are not
// orderable.

// Truthy reports the truthiness of v.
func Truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		i, _ := v.AsInt()
		return i != 0
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f != 0
	case value.KindString:
		s, _ := v.AsString()
		return s != "" && s != "0"
	case value.KindSequence, value.KindMapping:
		return v.Len() > 0
	default:
		return false
	}
}

// LooseEqual reports equality under the coercion table.
func LooseEqual(a, b value.Value) bool {
	ak, bk := a.Kind(), b.Kind()

	switch {
	case ak == value.KindBool || bk == value.KindBool:
		return Truthy(a) == Truthy(b)
	case ak == value.KindNull && bk == value.KindNull:
		return true
	case ak == value.KindNull:
		return emptyLike(b)
	case bk == value.KindNull:
		return emptyLike(a)
	case a.IsComposite() || b.IsComposite():
		return compositeEqual(a, b)
	case a.IsNumber() && b.IsNumber():
		return compareNumbers(a, b) == 0
	case a.IsNumber():
		return numberStringEqual(a, b)
	case b.IsNumber():
		return numberStringEqual(b, a)
	default:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		if af, ok := ParseNumeric(as); ok {
			if bf, ok := ParseNumeric(bs); ok {
				return af == bf
			}
		}
		return as == bs
	}
}

func emptyLike(v value.Value) bool {
	switch v.Kind() {
	case value.KindInt, value.KindFloat:
		f, _ := v.AsNumber()
		return f == 0
	case value.KindString:
		s, _ := v.AsString()
		return s == ""
	case value.KindSequence, value.KindMapping:
		return v.Len() == 0
	default:
		return false
	}
}

func compositeEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}

	if as, ok := a.AsSequence(); ok {
		bs, _ := b.AsSequence()
		for i := range as {
			if !LooseEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	am, _ := a.AsMapping()
	bm, _ := b.AsMapping()
	equal := true
	am.Range(func(k string, av value.Value) bool {
		bv, ok := bm.Get(k)
		if !ok || !LooseEqual(av, bv) {
			equal = false
		}
		return equal
	})
	return equal
}

func numberStringEqual(n, s value.Value) bool {
	str, _ := s.AsString()
	if _, ok := ParseNumeric(str); ok {
		return compareNumberString(n, str) == 0
	}
	return formatNumber(n) == str
}

// LooseCompare orders a against b under the coercion table. ok is false
// when either side is a collection.
func LooseCompare(a, b value.Value) (cmp int, ok bool) {
	if a.IsComposite() || b.IsComposite() {
		return 0, false
	}
	ak, bk := a.Kind(), b.Kind()

	switch {
	case ak == value.KindNull && bk == value.KindString:
		bs, _ := b.AsString()
		return strings.Compare("", bs), true
	case ak == value.KindString && bk == value.KindNull:
		as, _ := a.AsString()
		return strings.Compare(as, ""), true
	case ak == value.KindBool || bk == value.KindBool || ak == value.KindNull || bk == value.KindNull:
		return compareBools(Truthy(a), Truthy(b)), true
	case a.IsNumber() && b.IsNumber():
		return compareNumbers(a, b), true
	case a.IsNumber():
		bs, _ := b.AsString()
		if _, ok := ParseNumeric(bs); ok {
			return compareNumberString(a, bs), true
		}
		return strings.Compare(formatNumber(a), bs), true
	case b.IsNumber():
		as, _ := a.AsString()
		if _, ok := ParseNumeric(as); ok {
			return -compareNumberString(b, as), true
		}
		return strings.Compare(as, formatNumber(b)), true
	default:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		if af, ok := ParseNumeric(as); ok {
			if bf, ok := ParseNumeric(bs); ok {
				return compareFloats(af, bf), true
			}
		}
		return strings.Compare(as, bs), true
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func compareNumbers(a, b value.Value) int {
	if ai, ok := a.AsInt(); ok {
		if bi, ok := b.AsInt(); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	}
	af, _ := a.AsNumber()
	bf, _ := b.AsNumber()
	return compareFloats(af, bf)
}

// compareNumberString compares number n with numeric string s, exactly when
// both are integers.
func compareNumberString(n value.Value, s string) int {
	if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return compareNumbers(n, value.Int(i))
	}
	f, _ := ParseNumeric(s)
	return compareNumbers(n, value.Float(f))
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func formatNumber(v value.Value) string {
	if i, ok := v.AsInt(); ok {
		return strconv.FormatInt(i, 10)
	}
	f, _ := v.AsFloat()
	return value.FormatNumber(f)
}

// ParseNumeric parses s as a decimal number: optional surrounding
// whitespace, optional sign, digits with an optional fraction and exponent.
// Hex, infinities and NaN are not numeric.
func ParseNumeric(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if !isNumeric(t) {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// CompareFold compares two strings ignoring ASCII case.
func CompareFold(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return compareFloats(float64(len(a)), float64(len(b)))
}

// ContainsFold reports whether needle occurs in haystack ignoring ASCII case.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(toLowerASCII(haystack), toLowerASCII(needle))
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func toLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lowerASCII(b[j])
			}
			return string(b)
		}
	}
	return s
}
