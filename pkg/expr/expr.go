// Package expr provides row-level scalar expressions and their evaluator.
package expr

import (
	"errors"

	"github.com/toileto/visage/pkg/table"
)

var (
	// ErrUnknownColumn is returned when an expression references a column not
	// present in the row's schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidExpr is returned for structurally invalid expressions, such as
	// a CASE without a default branch.
	ErrInvalidExpr = errors.New("invalid expression")
)

// Expr is the interface for all expressions.
type Expr interface {
	exprNode()
}

// Column references a column of the current row by name.
type Column struct {
	Name string
}

func (*Column) exprNode() {}

// Literal is a constant value.
type Literal struct {
	Value table.Value
}

func (*Literal) exprNode() {}

// CmpOp identifies a comparison operator.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the operator symbol.
func (op CmpOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Compare is a binary comparison producing a BOOL.
type Compare struct {
	Op    CmpOp
	Left  Expr
	Right Expr
}

func (*Compare) exprNode() {}

// Arith is a binary arithmetic expression.
type Arith struct {
	Op    table.ArithOp
	Left  Expr
	Right Expr
}

func (*Arith) exprNode() {}

// And is a boolean conjunction. Evaluation short-circuits left to right.
type And struct {
	Left  Expr
	Right Expr
}

func (*And) exprNode() {}

// Or is a boolean disjunction. Evaluation short-circuits left to right.
type Or struct {
	Left  Expr
	Right Expr
}

func (*Or) exprNode() {}

// Not negates a boolean expression.
type Not struct {
	Expr Expr
}

func (*Not) exprNode() {}

// Branch is one (predicate, result) arm of a Case.
type Branch struct {
	When Expr
	Then Expr
}

// Case is a multi-branch conditional. Branches are tried in declared order
// and the first predicate that evaluates true determines the result
// (first-match-wins). Else is mandatory.
type Case struct {
	Branches []Branch
	Else     Expr
}

func (*Case) exprNode() {}
