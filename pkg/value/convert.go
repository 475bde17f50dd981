// ABOUTME: Conversion between native Go values and Value
// ABOUTME: Structs are read structurally by exported field, honouring json tags

package value

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// From converts a native Go value into a Value.
//
// Maps with string keys become mappings with sorted keys (Go maps carry no
// order). Structs become mappings of their exported fields in declaration
// order. time.Time and encoding.TextMarshaler become strings. Unsupported
// kinds (channels, functions) are rendered with fmt.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Mapping:
		return Map(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case json.Number:
		return fromNumber(string(x))
	case []Value:
		return Sequence(x...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = From(item)
		}
		return Sequence(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, From(x[k]))
		}
		return Map(m)
	case time.Time:
		return String(x.Format(time.RFC3339Nano))
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return String(fmt.Sprint(v))
		}
		return String(string(text))
	}

	return fromReflect(reflect.ValueOf(v))
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// fromNumber converts a JSON number literal, preferring Int when exact.
func fromNumber(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return String(s)
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return From(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		fallthrough
	case reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = From(rv.Index(i).Interface())
		}
		return Sequence(items...)
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			byKey[k] = iter.Value()
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, From(byKey[k].Interface()))
		}
		return Map(m)
	case reflect.Struct:
		return fromStruct(rv)
	default:
		return String(fmt.Sprint(rv.Interface()))
	}
}

func fromStruct(rv reflect.Value) Value {
	rt := rv.Type()
	m := NewMapping(rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		omitEmpty := false
		if tag, ok := sf.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		m.Set(name, From(fv.Interface()))
	}
	return Map(m)
}

// Interface converts v back into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Mapping order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		v.m.Range(func(k string, item Value) bool {
			out[k] = item.Interface()
			return true
		})
		return out
	default:
		return nil
	}
}
