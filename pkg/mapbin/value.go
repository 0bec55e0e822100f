package mapbin

import (
	"fmt"
	"strconv"
)

// Kind is the type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an attribute value: a bool, an integer, a float or a string.
// The zero Value is Bool(false).
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps an integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a float.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind returns the type held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// AsBool returns the boolean, or false when v holds another kind.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer, or false when v holds another kind.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the float, or false when v holds another kind. Integers are
// not converted; use Number for that.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsString returns the string, or false when v holds another kind.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Number widens an integer or a float to float64.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}

	return 0, false
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	}

	return fmt.Sprintf("%v(?)", v.kind)
}
