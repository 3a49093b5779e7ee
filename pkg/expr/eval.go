package expr

import (
	"fmt"

	"github.com/toileto/visage/pkg/table"
)

// Eval evaluates an expression against one row. It is a pure function of
// (expr, row): no state is read or written outside its arguments.
func Eval(e Expr, schema *table.Schema, row []table.Value) (table.Value, error) {
	switch ex := e.(type) {
	case *Literal:
		return ex.Value, nil

	case *Column:
		idx := schema.ColumnIndex(ex.Name)
		if idx < 0 {
			return table.Value{}, fmt.Errorf("%w: %s", ErrUnknownColumn, ex.Name)
		}
		return row[idx], nil

	case *Arith:
		left, err := Eval(ex.Left, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		right, err := Eval(ex.Right, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		return table.Arith(left, right, ex.Op)

	case *Compare:
		left, err := Eval(ex.Left, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		right, err := Eval(ex.Right, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		return table.NewBool(compare(left, right, ex.Op)), nil

	case *And:
		left, err := EvalBool(ex.Left, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		if !left {
			return table.NewBool(false), nil
		}
		right, err := EvalBool(ex.Right, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		return table.NewBool(right), nil

	case *Or:
		left, err := EvalBool(ex.Left, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		if left {
			return table.NewBool(true), nil
		}
		right, err := EvalBool(ex.Right, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		return table.NewBool(right), nil

	case *Not:
		val, err := EvalBool(ex.Expr, schema, row)
		if err != nil {
			return table.Value{}, err
		}
		return table.NewBool(!val), nil

	case *Case:
		if ex.Else == nil {
			return table.Value{}, fmt.Errorf("%w: CASE without default branch", ErrInvalidExpr)
		}
		for _, br := range ex.Branches {
			match, err := EvalBool(br.When, schema, row)
			if err != nil {
				return table.Value{}, err
			}
			if match {
				return Eval(br.Then, schema, row)
			}
		}
		return Eval(ex.Else, schema, row)

	default:
		return table.Value{}, fmt.Errorf("%w: unsupported expression type %T", ErrInvalidExpr, e)
	}
}

// EvalBool evaluates an expression expected to produce a BOOL.
func EvalBool(e Expr, schema *table.Schema, row []table.Value) (bool, error) {
	val, err := Eval(e, schema, row)
	if err != nil {
		return false, err
	}
	if val.Kind != table.KindBool {
		return false, fmt.Errorf("%w: predicate evaluated to %s, expected BOOL", table.ErrTypeMismatch, val.Kind)
	}
	return val.Bool, nil
}

// compare applies a comparison operator. Mismatched kinds use the defined
// fallback: unequal under =, so != is true and every ordering test is false.
func compare(left, right table.Value, op CmpOp) bool {
	switch op {
	case OpEq:
		return left.Equal(right)
	case OpNe:
		return !left.Equal(right)
	case OpLt:
		less, ordered := left.Less(right)
		return ordered && less
	case OpGt:
		less, ordered := right.Less(left)
		return ordered && less
	case OpLe:
		less, ordered := right.Less(left)
		return ordered && !less
	case OpGe:
		less, ordered := left.Less(right)
		return ordered && !less
	default:
		return false
	}
}
