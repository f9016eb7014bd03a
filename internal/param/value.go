package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which type a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a tagged union over the types a parameter can hold: string, int,
// float, or bool. The zero Value is invalid; build one with String, Int,
// Float, or Bool.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// String builds a string-valued parameter value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int builds an int-valued parameter value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float builds a float-valued parameter value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool builds a bool-valued parameter value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns which type this value holds.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string value, or false if the value holds another type.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsInt returns the int value, or false if the value holds another type.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float value, or false if the value holds another type.
// An int value converts; everything else fails.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsBool returns the bool value, or false if the value holds another type.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// GetString is the error-reporting form of AsString.
func (v Value) GetString() (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("%w: expected string, found %s", ErrWrongKind, v.kind)
	}
	return s, nil
}

// GetInt is the error-reporting form of AsInt.
func (v Value) GetInt() (int64, error) {
	i, ok := v.AsInt()
	if !ok {
		return 0, fmt.Errorf("%w: expected int, found %s", ErrWrongKind, v.kind)
	}
	return i, nil
}

// GetFloat is the error-reporting form of AsFloat.
func (v Value) GetFloat() (float64, error) {
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("%w: expected float, found %s", ErrWrongKind, v.kind)
	}
	return f, nil
}

// GetBool is the error-reporting form of AsBool.
func (v Value) GetBool() (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, fmt.Errorf("%w: expected bool, found %s", ErrWrongKind, v.kind)
	}
	return b, nil
}

// String renders the value for logs and CLI output.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

// MarshalJSON renders the value as its natural JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("cannot marshal invalid parameter value")
	}
}

// UnmarshalJSON infers the kind from the JSON type. Numbers without a
// fractional part become ints, everything else a float.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case string:
		*v = String(val)
	case bool:
		*v = Bool(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			*v = Int(i)
			return nil
		}
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("unsupported numeric parameter value %q: %w", val.String(), err)
		}
		*v = Float(f)
	default:
		return fmt.Errorf("unsupported parameter value type %T", raw)
	}
	return nil
}
