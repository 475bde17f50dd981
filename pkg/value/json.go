// ABOUTME: Order-preserving JSON codec for Value
// ABOUTME: Integral number literals decode to Int, others to Float

package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidJSON is returned when input is not a single JSON document.
var ErrInvalidJSON = errors.New("value: invalid json")

// ParseJSON decodes exactly one JSON document, keeping object key order.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := DecodeJSON(dec)
	if err == io.EOF {
		return Null(), fmt.Errorf("%w: empty input", ErrInvalidJSON)
	}
	if err != nil {
		return Null(), err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return v, nil
}

// DecodeJSON reads the next JSON value from dec. Callers should enable
// dec.UseNumber so integers keep full precision.
func DecodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Null(), err
		}
		return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return fromNumber(string(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return Null(), fmt.Errorf("%w: unexpected token %v", ErrInvalidJSON, tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	m := NewMapping(0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Null(), fmt.Errorf("%w: object key %v is not a string", ErrInvalidJSON, keyTok)
		}
		child, err := DecodeJSON(dec)
		if err != nil {
			return Null(), err
		}
		m.Set(key, child)
	}
	if _, err := dec.Token(); err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return Map(m), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := make([]Value, 0)
	for dec.More() {
		child, err := DecodeJSON(dec)
		if err != nil {
			return Null(), err
		}
		items = append(items, child)
	}
	if _, err := dec.Token(); err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return Sequence(items...), nil
}

// MarshalJSON implements json.Marshaler, keeping mapping key order.
// Integral floats are written with a trailing ".0" so they decode back
// as Float.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("value: unsupported float %v", v.f)
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		writeJSONString(buf, v.s)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		var err error
		first := true
		v.m.Range(func(k string, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, k)
			buf.WriteByte(':')
			err = writeJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// json.Marshal on a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}
