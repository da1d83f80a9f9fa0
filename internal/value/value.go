// Package value defines the runtime value domain shared by the lexer, the AST and the interpreter.
package value

import (
	"math"
	"strconv"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// Callable is implemented by every value that can appear in call position.
// The interpreter owns the calling convention; this package only fixes arity.
type Callable interface {
	Value
	Arity() int
}

// ---- Primitive values ----

// Bool represents true or false.
type Bool bool

func (v Bool) TypeName() string { return "boolean" }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }

// Number represents a double-precision number.
type Number float64

func (v Number) TypeName() string { return "number" }

// String formats numbers the way programs print them: integral values
// carry no fractional part.
func (v Number) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String represents a string value.
type String string

func (v String) TypeName() string { return "string" }
func (v String) String() string   { return string(v) }

// Nil represents the absence of a value.
type Nil struct{}

func (v Nil) TypeName() string { return "nil" }
func (v Nil) String() string   { return "nil" }

// ---- Semantics ----

// Truthy reports whether v counts as true in a condition.
// Only nil and false are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(val)
	default:
		return true
	}
}

// Equal compares two values. Values of different variants are never equal.
// Callables are equal only to themselves.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && float64(x) == float64(y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Callable:
		y, ok := b.(Callable)
		return ok && x == y
	default:
		return false
	}
}
