package table

import "fmt"

// ArithOp identifies a binary arithmetic operator.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

// String returns the operator symbol.
func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Arith applies a binary arithmetic operator to two values.
// INT op INT yields INT (integer division for /); any FLOAT operand promotes
// the result to FLOAT. Non-numeric operands fail with ErrTypeMismatch;
// arithmetic never concatenates strings.
func Arith(left, right Value, op ArithOp) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, left.Kind, op, right.Kind)
	}

	if left.Kind == KindInt && right.Kind == KindInt {
		switch op {
		case OpAdd:
			return NewInt(left.Int + right.Int), nil
		case OpSub:
			return NewInt(left.Int - right.Int), nil
		case OpMul:
			return NewInt(left.Int * right.Int), nil
		case OpDiv:
			if right.Int == 0 {
				return Value{}, ErrDivisionByZero
			}
			return NewInt(left.Int / right.Int), nil
		}
	}

	l, r := left.AsFloat(), right.AsFloat()
	switch op {
	case OpAdd:
		return NewFloat(l + r), nil
	case OpSub:
		return NewFloat(l - r), nil
	case OpMul:
		return NewFloat(l * r), nil
	case OpDiv:
		if r == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewFloat(l / r), nil
	}
	return Value{}, fmt.Errorf("unsupported arithmetic operator: %v", op)
}
