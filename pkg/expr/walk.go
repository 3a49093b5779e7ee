package expr

import "fmt"

// Columns returns the names of every column the expression reads, in first
// reference order without duplicates. Used for source analysis and lineage.
func Columns(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	walk(e, func(c *Column) {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	})
	return names
}

func walk(e Expr, fn func(*Column)) {
	switch ex := e.(type) {
	case *Column:
		fn(ex)
	case *Literal:
	case *Compare:
		walk(ex.Left, fn)
		walk(ex.Right, fn)
	case *Arith:
		walk(ex.Left, fn)
		walk(ex.Right, fn)
	case *And:
		walk(ex.Left, fn)
		walk(ex.Right, fn)
	case *Or:
		walk(ex.Left, fn)
		walk(ex.Right, fn)
	case *Not:
		walk(ex.Expr, fn)
	case *Case:
		for _, br := range ex.Branches {
			walk(br.When, fn)
			walk(br.Then, fn)
		}
		if ex.Else != nil {
			walk(ex.Else, fn)
		}
	}
}

// Validate checks an expression for structural problems before evaluation:
// nil operands and CASE constructs without a default branch.
func Validate(e Expr) error {
	switch ex := e.(type) {
	case nil:
		return fmt.Errorf("%w: nil expression", ErrInvalidExpr)
	case *Column:
		if ex.Name == "" {
			return fmt.Errorf("%w: empty column reference", ErrInvalidExpr)
		}
		return nil
	case *Literal:
		return nil
	case *Compare:
		return validatePair(ex.Left, ex.Right)
	case *Arith:
		return validatePair(ex.Left, ex.Right)
	case *And:
		return validatePair(ex.Left, ex.Right)
	case *Or:
		return validatePair(ex.Left, ex.Right)
	case *Not:
		return Validate(ex.Expr)
	case *Case:
		if len(ex.Branches) == 0 {
			return fmt.Errorf("%w: CASE with no branches", ErrInvalidExpr)
		}
		if ex.Else == nil {
			return fmt.Errorf("%w: CASE without default branch", ErrInvalidExpr)
		}
		for _, br := range ex.Branches {
			if err := validatePair(br.When, br.Then); err != nil {
				return err
			}
		}
		return Validate(ex.Else)
	default:
		return fmt.Errorf("%w: unsupported expression type %T", ErrInvalidExpr, e)
	}
}

func validatePair(left, right Expr) error {
	if err := Validate(left); err != nil {
		return err
	}
	return Validate(right)
}
