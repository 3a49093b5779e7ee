// Package relop implements the relational operators: filter, inner join,
// group-by aggregation, and projection.
package relop

import (
	"errors"
	"fmt"

	"github.com/toileto/visage/pkg/expr"
	"github.com/toileto/visage/pkg/table"
)

// ErrAmbiguousColumn is returned when a join would produce two columns with
// the same name.
var ErrAmbiguousColumn = errors.New("ambiguous column")

// Filter returns a new table containing the rows of t for which the predicate
// evaluates true, preserving input order.
func Filter(t *table.Table, predicate expr.Expr) (*table.Table, error) {
	out := table.New(t.Schema())
	for i, row := range t.Rows() {
		match, err := expr.EvalBool(predicate, t.Schema(), row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !match {
			continue
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Join performs an inner equality join of left and right on
// left.leftCol = right.rightCol. The output schema is left's columns followed
// by right's columns minus the join column; any other column name present on
// both sides fails with ErrAmbiguousColumn. Rows without a match on either
// side are dropped.
func Join(left, right *table.Table, leftCol, rightCol string) (*table.Table, error) {
	leftIdx := left.Schema().ColumnIndex(leftCol)
	if leftIdx < 0 {
		return nil, fmt.Errorf("%w: join column %s", expr.ErrUnknownColumn, leftCol)
	}
	rightIdx := right.Schema().ColumnIndex(rightCol)
	if rightIdx < 0 {
		return nil, fmt.Errorf("%w: join column %s", expr.ErrUnknownColumn, rightCol)
	}

	columns := left.Schema().Columns()
	for _, name := range right.Schema().Columns() {
		if name == rightCol {
			continue
		}
		if left.Schema().Has(name) {
			return nil, fmt.Errorf("%w: %q appears on both sides of the join", ErrAmbiguousColumn, name)
		}
		columns = append(columns, name)
	}
	schema, err := table.NewSchema(columns)
	if err != nil {
		return nil, err
	}

	// Hash the right side on its join key. Unordered or NULL keys never match.
	buckets := make(map[table.Value][]int)
	for i, row := range right.Rows() {
		key := row[rightIdx]
		if key.IsNull() {
			continue
		}
		buckets[hashKey(key)] = append(buckets[hashKey(key)], i)
	}

	out := table.New(schema)
	for _, lrow := range left.Rows() {
		key := lrow[leftIdx]
		if key.IsNull() {
			continue
		}
		for _, ri := range buckets[hashKey(key)] {
			rrow := right.Rows()[ri]
			combined := make([]table.Value, 0, schema.Len())
			combined = append(combined, lrow...)
			for j, v := range rrow {
				if j == rightIdx {
					continue
				}
				combined = append(combined, v)
			}
			if err := out.Append(combined); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// hashKey normalizes a value so INT and FLOAT keys that compare equal land in
// the same bucket.
func hashKey(v table.Value) table.Value {
	if v.Kind == table.KindInt {
		return table.NewFloat(float64(v.Int))
	}
	return v
}

// Projection is one output column: an expression and the name it produces.
type Projection struct {
	Expr expr.Expr
	As   string
}

// Project evaluates each projection per row and returns a table with exactly
// the projected columns, in the stated order.
func Project(t *table.Table, projections []Projection) (*table.Table, error) {
	columns := make([]string, len(projections))
	for i, p := range projections {
		columns[i] = p.As
	}
	schema, err := table.NewSchema(columns)
	if err != nil {
		return nil, err
	}

	out := table.New(schema)
	for i, row := range t.Rows() {
		projected := make([]table.Value, len(projections))
		for j, p := range projections {
			val, err := expr.Eval(p.Expr, t.Schema(), row)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, p.As, err)
			}
			projected[j] = val
		}
		if err := out.Append(projected); err != nil {
			return nil, err
		}
	}
	return out, nil
}
