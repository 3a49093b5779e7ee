// Package plan provides derived-table definitions and the dependency-ordered
// planner that evaluates them against a registry.
package plan

import (
	"errors"
	"fmt"

	"github.com/toileto/visage/pkg/expr"
	"github.com/toileto/visage/pkg/relop"
)

var (
	// ErrCyclicDependency is returned when derived-table definitions reference
	// each other in a cycle. The error names the cycle path.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrInvalidDefinition is returned for structurally broken definitions
	// (missing name, missing source table, bad pipeline stage).
	ErrInvalidDefinition = errors.New("invalid definition")
)

// JoinSpec describes an inner equality join of the pipeline's current table
// with another named table on LeftColumn = RightColumn.
type JoinSpec struct {
	Table       string
	LeftColumn  string
	RightColumn string
}

// GroupBySpec describes a group-by aggregation stage.
type GroupBySpec struct {
	Columns    []string
	Aggregates []relop.AggSpec
}

// Definition describes one derived table: the name it is registered under and
// an operator pipeline over named source tables. Stages apply in the fixed
// order filter, join, group-by, projection; unset stages are skipped.
type Definition struct {
	Name    string
	From    string
	Filter  expr.Expr
	Join    *JoinSpec
	GroupBy *GroupBySpec
	Project []relop.Projection
}

// Sources returns every table name the definition reads: the From table and
// the join table, if any.
func (d *Definition) Sources() []string {
	sources := []string{d.From}
	if d.Join != nil && d.Join.Table != d.From {
		sources = append(sources, d.Join.Table)
	}
	return sources
}

// Validate checks a definition for structural problems that do not need the
// registry: empty names, self-references, invalid expressions.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: definition has no name", ErrInvalidDefinition)
	}
	if d.From == "" {
		return fmt.Errorf("%w: definition %q has no source table", ErrInvalidDefinition, d.Name)
	}
	if d.Filter != nil {
		if err := expr.Validate(d.Filter); err != nil {
			return fmt.Errorf("definition %q: filter: %w", d.Name, err)
		}
	}
	if d.Join != nil {
		if d.Join.Table == "" || d.Join.LeftColumn == "" || d.Join.RightColumn == "" {
			return fmt.Errorf("%w: definition %q has an incomplete join spec", ErrInvalidDefinition, d.Name)
		}
	}
	if d.GroupBy != nil {
		if len(d.GroupBy.Aggregates) == 0 {
			return fmt.Errorf("%w: definition %q groups without aggregates", ErrInvalidDefinition, d.Name)
		}
		for _, spec := range d.GroupBy.Aggregates {
			if spec.As == "" {
				return fmt.Errorf("%w: definition %q has an aggregate with no output name", ErrInvalidDefinition, d.Name)
			}
		}
	}
	for _, p := range d.Project {
		if p.As == "" {
			return fmt.Errorf("%w: definition %q has a projection with no output name", ErrInvalidDefinition, d.Name)
		}
		if err := expr.Validate(p.Expr); err != nil {
			return fmt.Errorf("definition %q: projection %q: %w", d.Name, p.As, err)
		}
	}
	return nil
}
