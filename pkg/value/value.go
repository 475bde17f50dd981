// ABOUTME: Tagged-union value model for loosely-typed records
// ABOUTME: Null, Bool, Int, Float, String, Sequence and ordered Mapping

package value

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindNull is the zero Kind, so the zero Value is null.
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Value is a single field value of a record.
//
// Values are immutable once built: operations over records never modify a
// Value in place, they build new ones.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	m    *Mapping
}

// Field is a key/value pair used to build mappings in order.
type Field struct {
	Key   string
	Value Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence returns a sequence Value holding items.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// Map returns a mapping Value. A nil mapping is treated as empty.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping(0)
	}
	return Value{kind: KindMapping, m: m}
}

// Object builds a mapping Value from fields, keeping their order.
func Object(fields ...Field) Value {
	m := NewMapping(len(fields))
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return Map(m)
}

// F builds a Field, converting v with From.
func F(key string, v any) Field {
	return Field{Key: key, Value: From(v)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v is an Int or a Float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsComposite reports whether v is a Sequence or a Mapping.
func (v Value) IsComposite() bool { return v.kind == KindSequence || v.kind == KindMapping }

// IsScalar reports whether v is neither a Sequence nor a Mapping.
func (v Value) IsScalar() bool { return !v.IsComposite() }

// AsBool returns the boolean if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer if Kind is KindInt.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the float if Kind is KindFloat.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsNumber returns Int and Float values as float64.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the string if Kind is KindString.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsSequence returns the items if Kind is KindSequence. The slice must not
// be modified.
func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// AsMapping returns the mapping if Kind is KindMapping.
func (v Value) AsMapping() (*Mapping, bool) {
	return v.m, v.kind == KindMapping
}

// Len returns the number of children of a composite value and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	default:
		return 0
	}
}

// First returns the first child of a composite value.
func (v Value) First() (Value, bool) {
	switch v.kind {
	case KindSequence:
		if len(v.seq) == 0 {
			return Null(), false
		}
		return v.seq[0], true
	case KindMapping:
		_, first, ok := v.m.First()
		return first, ok
	default:
		return Null(), false
	}
}

// Children returns the child values of a composite value in order.
func (v Value) Children() []Value {
	switch v.kind {
	case KindSequence:
		return v.seq
	case KindMapping:
		return v.m.Values()
	default:
		return nil
	}
}

// Identical reports strict equality: same kind and same value. Int 1 and
// Float 1.0 are not identical; mappings must also agree on key order.
func Identical(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Identical(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for i, k := range a.m.keys {
			if b.m.keys[i] != k {
				return false
			}
			if !Identical(a.m.vals[k], b.m.vals[k]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v with Render.
func (v Value) String() string {
	return Render(v)
}
