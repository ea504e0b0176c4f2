package container

import (
	"fmt"
	"strconv"
)

// Kind is the wire tag of a Value.
type Kind uint8

const (
	KindInteger Kind = 1
	KindFloat   Kind = 2
	KindText    Kind = 3
	KindBoolean Kind = 4
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable tagged value. The zero Value is invalid and is never
// produced by the constructors or by Decode.
type Value struct {
	kind Kind
	i    int32
	f    float64
	s    string
	b    bool
}

// Int returns an Integer value.
func Int(v int32) Value { return Value{kind: KindInteger, i: v} }

// Float returns a Float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a Text value. The text must not contain a NUL byte, which
// terminates Text on the wire; encoding such a value fails with
// ErrTextContainsNUL.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Bool returns a Boolean value.
func Bool(v bool) Value { return Value{kind: KindBoolean, b: v} }

// Kind returns the value's wire tag.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns the integer and true if v is an Integer.
func (v Value) AsInt() (int32, bool) { return v.i, v.kind == KindInteger }

// AsFloat returns the float and true if v is a Float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsText returns the string and true if v is a Text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsBool returns the boolean and true if v is a Boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Any returns the value as a plain Go value (int32, float64, string or bool).
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBoolean:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBoolean:
		return v.b == o.b
	default:
		return true
	}
}

// EncodedLen is the number of value bytes v occupies on the wire, excluding
// the kind tag.
func (v Value) EncodedLen() int {
	switch v.kind {
	case KindInteger:
		return 4
	case KindFloat:
		return 8
	case KindText:
		return len(v.s) + 1
	case KindBoolean:
		return 1
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}
