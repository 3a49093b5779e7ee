package manifest

import (
	"fmt"

	"github.com/toileto/visage/pkg/expr"
	"github.com/toileto/visage/pkg/plan"
	"github.com/toileto/visage/pkg/relop"
	"github.com/toileto/visage/pkg/table"
)

func decodeDefinition(doc *definitionDoc) (*plan.Definition, error) {
	def := &plan.Definition{
		Name: doc.Name,
		From: doc.From,
	}

	if doc.Filter != nil {
		filter, err := decodeExpr(doc.Filter)
		if err != nil {
			return nil, fmt.Errorf("definition %q: filter: %w", doc.Name, err)
		}
		def.Filter = filter
	}

	if doc.Join != nil {
		def.Join = &plan.JoinSpec{
			Table:       doc.Join.Table,
			LeftColumn:  doc.Join.Left,
			RightColumn: doc.Join.Right,
		}
	}

	if doc.GroupBy != nil {
		spec := &plan.GroupBySpec{Columns: doc.GroupBy.Columns}
		for _, agg := range doc.GroupBy.Aggregates {
			fn, err := relop.ParseAggFunc(agg.Fn)
			if err != nil {
				return nil, fmt.Errorf("definition %q: %w", doc.Name, err)
			}
			spec.Aggregates = append(spec.Aggregates, relop.AggSpec{
				Func:   fn,
				Column: agg.Column,
				As:     agg.As,
			})
		}
		def.GroupBy = spec
	}

	for i, proj := range doc.Project {
		as, ok := proj["as"].(string)
		if !ok || as == "" {
			return nil, fmt.Errorf("definition %q: projection %d has no output name", doc.Name, i)
		}
		node := make(map[string]any, len(proj)-1)
		for k, v := range proj {
			if k != "as" {
				node[k] = v
			}
		}
		e, err := decodeExpr(node)
		if err != nil {
			return nil, fmt.Errorf("definition %q: projection %q: %w", doc.Name, as, err)
		}
		def.Project = append(def.Project, relop.Projection{Expr: e, As: as})
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

var compareOps = map[string]expr.CmpOp{
	"eq": expr.OpEq,
	"ne": expr.OpNe,
	"lt": expr.OpLt,
	"le": expr.OpLe,
	"gt": expr.OpGt,
	"ge": expr.OpGe,
}

var arithOps = map[string]table.ArithOp{
	"add": table.OpAdd,
	"sub": table.OpSub,
	"mul": table.OpMul,
	"div": table.OpDiv,
}

// decodeExpr converts a one-key YAML node into an expression tree. The key
// names the construct: column, value, a comparison or arithmetic operator
// over a two-element list, and/or over a list, not, or case.
func decodeExpr(raw any) (expr.Expr, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an expression node, got %T", raw)
	}
	if len(node) != 1 {
		return nil, fmt.Errorf("expression node must have exactly one key, got %d", len(node))
	}

	var key string
	var body any
	for k, v := range node {
		key, body = k, v
	}

	if op, ok := compareOps[key]; ok {
		left, right, err := decodePair(key, body)
		if err != nil {
			return nil, err
		}
		return &expr.Compare{Op: op, Left: left, Right: right}, nil
	}
	if op, ok := arithOps[key]; ok {
		left, right, err := decodePair(key, body)
		if err != nil {
			return nil, err
		}
		return &expr.Arith{Op: op, Left: left, Right: right}, nil
	}

	switch {
	case key == "column":
		name, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("column reference must be a string, got %T", body)
		}
		return &expr.Column{Name: name}, nil

	case key == "value":
		val, err := decodeValue(body)
		if err != nil {
			return nil, err
		}
		return &expr.Literal{Value: val}, nil

	case key == "and", key == "or":
		return decodeBoolChain(key, body)

	case key == "not":
		inner, err := decodeExpr(body)
		if err != nil {
			return nil, err
		}
		return &expr.Not{Expr: inner}, nil

	case key == "case":
		return decodeCase(body)

	default:
		return nil, fmt.Errorf("unknown expression construct %q", key)
	}
}

// decodePair decodes a two-element operand list.
func decodePair(op string, body any) (expr.Expr, expr.Expr, error) {
	operands, ok := body.([]any)
	if !ok || len(operands) != 2 {
		return nil, nil, fmt.Errorf("%s expects a two-element operand list", op)
	}
	left, err := decodeExpr(operands[0])
	if err != nil {
		return nil, nil, err
	}
	right, err := decodeExpr(operands[1])
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// decodeBoolChain folds an and/or operand list left to right, preserving the
// declared short-circuit order.
func decodeBoolChain(op string, body any) (expr.Expr, error) {
	operands, ok := body.([]any)
	if !ok || len(operands) < 2 {
		return nil, fmt.Errorf("%s expects a list of at least two operands", op)
	}
	result, err := decodeExpr(operands[0])
	if err != nil {
		return nil, err
	}
	for _, operand := range operands[1:] {
		next, err := decodeExpr(operand)
		if err != nil {
			return nil, err
		}
		if op == "and" {
			result = &expr.And{Left: result, Right: next}
		} else {
			result = &expr.Or{Left: result, Right: next}
		}
	}
	return result, nil
}

// decodeCase decodes {when: [{if:, then:}...], else:}. Branch order is
// preserved: evaluation is first-match-wins.
func decodeCase(body any) (expr.Expr, error) {
	node, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("case expects a mapping with when and else")
	}
	whens, ok := node["when"].([]any)
	if !ok || len(whens) == 0 {
		return nil, fmt.Errorf("case requires a non-empty when list")
	}
	if _, present := node["else"]; !present {
		return nil, fmt.Errorf("case requires a default else branch")
	}

	c := &expr.Case{}
	for i, rawBranch := range whens {
		branch, ok := rawBranch.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("case branch %d: expected a mapping with if and then", i)
		}
		cond, err := decodeExpr(branch["if"])
		if err != nil {
			return nil, fmt.Errorf("case branch %d: if: %w", i, err)
		}
		then, err := decodeExpr(branch["then"])
		if err != nil {
			return nil, fmt.Errorf("case branch %d: then: %w", i, err)
		}
		c.Branches = append(c.Branches, expr.Branch{When: cond, Then: then})
	}

	elseExpr, err := decodeExpr(node["else"])
	if err != nil {
		return nil, fmt.Errorf("case else: %w", err)
	}
	c.Else = elseExpr
	return c, nil
}
