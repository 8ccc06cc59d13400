package vm

import (
	"math"
	"strconv"
)

// Value is a tagged runtime value.
//
// Only KindObject values are heap references; everything else is a
// primitive scalar that the collector never sees. Values are passed by
// copy and are comparable, so they can be used directly as map keys for
// primitives.
type Value struct {
	kind Kind
	num  float64
	str  string
	obj  *Object
}

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindObject:    "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pre-defined special values
var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBool, num: 1}
	False     = Value{kind: KindBool}
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// FromBool converts a Go bool to a boolean Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromNumber wraps a float64.
func FromNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// FromInt wraps an integer as a number.
func FromInt(n int) Value {
	return Value{kind: KindNumber, num: float64(n)}
}

// FromString wraps a Go string.
func FromString(s string) Value {
	return Value{kind: KindString, str: s}
}

// ToValue wraps an object reference. A nil object becomes Undefined.
func (obj *Object) ToValue() Value {
	if obj == nil {
		return Undefined
	}
	return Value{kind: KindObject, obj: obj}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsString() bool    { return v.kind == KindString }

// IsNullish reports whether v is undefined or null.
func (v Value) IsNullish() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}

// IsObject reports whether v is a heap object reference.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Object returns the referenced object, or nil for primitives.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// IsCallable reports whether v is an object with a native entry point.
func (v Value) IsCallable() bool {
	return v.kind == KindObject && v.obj.native != nil
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// Bool returns the boolean payload. Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic("Value.Bool: not a boolean")
	}
	return v.num != 0
}

// Number returns the numeric payload. Panics if v is not a number.
func (v Value) Number() float64 {
	if v.kind != KindNumber {
		panic("Value.Number: not a number")
	}
	return v.num
}

// Str returns the string payload. Panics if v is not a string.
func (v Value) Str() string {
	if v.kind != KindString {
		panic("Value.Str: not a string")
	}
	return v.str
}

// IsTruthy applies the usual truthiness rules: undefined, null, false, 0,
// NaN and "" are falsy; every object is truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.num != 0
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindString:
		return v.str != ""
	default:
		return true
	}
}

// SameValue compares two values by identity for objects and by payload for
// primitives.
func SameValue(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindObject:
		return a.obj == b.obj
	case KindNumber:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.num == b.num
	default:
		return true
	}
}

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	case KindObject:
		return v.obj.String()
	}
	return "?"
}
