// Package table provides the value type system, schemas, and in-memory tables.
package table

import (
	"errors"
	"strconv"
)

var (
	// ErrTypeMismatch is returned when an operation receives operands of
	// incompatible kinds (e.g. arithmetic on a string).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDivisionByZero is returned when the divisor of / evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrSchemaMismatch is returned when a row does not match the table's
	// inferred schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Kind represents a value kind.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
)

// String returns a human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindText:
		return "TEXT"
	case KindBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// Value represents a typed column value.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Bool  bool
}

// NewInt creates an INT value.
func NewInt(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// NewFloat creates a FLOAT value.
func NewFloat(v float64) Value {
	return Value{Kind: KindFloat, Float: v}
}

// NewText creates a TEXT value.
func NewText(v string) Value {
	return Value{Kind: KindText, Text: v}
}

// NewBool creates a BOOL value.
func NewBool(v bool) Value {
	return Value{Kind: KindBool, Bool: v}
}

// Null creates a NULL value.
func Null() Value {
	return Value{Kind: KindNull}
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsNumeric reports whether the value is INT or FLOAT.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// AsFloat returns the numeric value widened to float64.
// Only meaningful for numeric kinds.
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// String returns a human-readable representation.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// Equal reports whether two values are equal. Values of different kinds are
// never equal, except that INT and FLOAT compare numerically.
func (v Value) Equal(other Value) bool {
	if v.IsNumeric() && other.IsNumeric() {
		return v.AsFloat() == other.AsFloat()
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindText:
		return v.Text == other.Text
	case KindBool:
		return v.Bool == other.Bool
	default:
		return false
	}
}

// Less reports whether v orders before other, and whether the two values are
// ordered at all. Mismatched kinds (and NULLs) are unordered: every ordering
// comparison on them is false rather than an error, which keeps loose
// categorization predicates total.
func (v Value) Less(other Value) (less, ordered bool) {
	if v.IsNull() || other.IsNull() {
		return false, false
	}
	if v.IsNumeric() && other.IsNumeric() {
		return v.AsFloat() < other.AsFloat(), true
	}
	if v.Kind != other.Kind {
		return false, false
	}
	switch v.Kind {
	case KindText:
		return v.Text < other.Text, true
	case KindBool:
		return !v.Bool && other.Bool, true
	default:
		return false, false
	}
}
