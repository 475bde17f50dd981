// ABOUTME: Canonical human-readable rendering of values
// ABOUTME: Used for fuzzy matching against composite values and for logs

package value

import (
	"math"
	"strconv"
	"strings"
)

// Render returns a deterministic, human-readable rendering of v.
//
//	null, true, 42, 1.5, "text", ["a", 1], {"name": "John", "age": 30}
func Render(v Value) string {
	var sb strings.Builder
	render(&sb, v)
	return sb.String()
}

func render(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(FormatNumber(v.f))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindSequence:
		sb.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(sb, item)
		}
		sb.WriteByte(']')
	case KindMapping:
		sb.WriteByte('{')
		first := true
		v.m.Range(func(k string, item Value) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			render(sb, item)
			return true
		})
		sb.WriteByte('}')
	}
}

// FormatNumber formats a float the way it would be written by hand:
// integral values without a fraction, large magnitudes in exponent form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
