package server

import (
	"fmt"
	"math"
	"slices"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/recquery/pkg/value"
)

// maxExactInt is the largest magnitude a float64 holds without loss.
const maxExactInt = 1 << 53

// toProto converts v into a protobuf Value. Mapping order is lost on the
// wire; callers needing order send sequences.
func toProto(v value.Value) (*structpb.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return structpb.NewNullValue(), nil
	case value.KindBool:
		b, _ := v.AsBool()
		return structpb.NewBoolValue(b), nil
	case value.KindInt, value.KindFloat:
		f, _ := v.AsNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot encode non-finite number %s", v)
		}
		return structpb.NewNumberValue(f), nil
	case value.KindString:
		s, _ := v.AsString()
		return structpb.NewStringValue(s), nil
	case value.KindSequence:
		items, _ := v.AsSequence()
		list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(items))}
		for _, item := range items {
			pv, err := toProto(item)
			if err != nil {
				return nil, err
			}
			list.Values = append(list.Values, pv)
		}
		return structpb.NewListValue(list), nil
	case value.KindMapping:
		m, _ := v.AsMapping()
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, m.Len())}
		var err error
		m.Range(func(k string, item value.Value) bool {
			var pv *structpb.Value
			pv, err = toProto(item)
			if err != nil {
				return false
			}
			st.Fields[k] = pv
			return true
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(st), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

// fromProto converts a protobuf Value. Integral numbers become Int; struct
// keys are sorted since protobuf maps carry no order.
func fromProto(pv *structpb.Value) value.Value {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return value.Bool(k.BoolValue)
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
			return value.Int(int64(f))
		}
		return value.Float(f)
	case *structpb.Value_StringValue:
		return value.String(k.StringValue)
	case *structpb.Value_ListValue:
		items := make([]value.Value, 0, len(k.ListValue.GetValues()))
		for _, item := range k.ListValue.GetValues() {
			items = append(items, fromProto(item))
		}
		return value.Sequence(items...)
	case *structpb.Value_StructValue:
		return fromStruct(k.StructValue)
	default:
		return value.Null()
	}
}

func fromStruct(st *structpb.Struct) value.Value {
	fields := st.GetFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m := value.NewMapping(len(keys))
	for _, k := range keys {
		m.Set(k, fromProto(fields[k]))
	}
	return value.Map(m)
}

// toStruct converts a mapping into a protobuf Struct.
func toStruct(v value.Value) (*structpb.Struct, error) {
	pv, err := toProto(v)
	if err != nil {
		return nil, err
	}
	st := pv.GetStructValue()
	if st == nil {
		return nil, fmt.Errorf("expected a mapping, got %s", v.Kind())
	}
	return st, nil
}
