// Package lineage derives the table dependency graph of a set of
// derived-table definitions: which tables feed which, on which columns, and
// which column pairs join them.
package lineage

import (
	"sort"

	"github.com/toileto/visage/pkg/expr"
	"github.com/toileto/visage/pkg/plan"
)

// NodeKind distinguishes base from derived table nodes.
type NodeKind string

const (
	NodeBase    NodeKind = "base"
	NodeDerived NodeKind = "derived"
)

// Node is one table in the graph. Columns lists the columns the corpus
// touches on that table: outputs for derived tables, referenced columns for
// base tables.
type Node struct {
	Name    string   `json:"name"`
	Kind    NodeKind `json:"kind"`
	Columns []string `json:"columns,omitempty"`
}

// FlowEdge records that a derived table reads from a source table, with the
// columns credited to that source.
type FlowEdge struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Columns []string `json:"columns,omitempty"`
}

// JoinEdge records an equality join between two table columns.
type JoinEdge struct {
	LeftTable   string `json:"left_table"`
	LeftColumn  string `json:"left_column"`
	RightTable  string `json:"right_table"`
	RightColumn string `json:"right_column"`
}

// Graph is the lineage of a definition set.
type Graph struct {
	Nodes     []Node     `json:"nodes"`
	FlowEdges []FlowEdge `json:"flow_edges"`
	JoinEdges []JoinEdge `json:"join_edges"`
}

// Build computes the lineage graph of the given definitions. Tables that are
// read but never defined are base-table nodes. Unqualified column references
// are credited to the definition's From table; join columns are credited to
// their own side.
func Build(defs []plan.Definition) *Graph {
	derived := make(map[string]bool, len(defs))
	for i := range defs {
		derived[defs[i].Name] = true
	}

	touched := make(map[string]map[string]bool) // table -> columns
	touch := func(tbl string, cols ...string) {
		if touched[tbl] == nil {
			touched[tbl] = make(map[string]bool)
		}
		for _, c := range cols {
			touched[tbl][c] = true
		}
	}

	g := &Graph{}
	for i := range defs {
		def := &defs[i]

		outputs := outputColumns(def)
		touch(def.Name, outputs...)

		reads := readColumns(def)
		for _, src := range def.Sources() {
			cols := reads[src]
			sort.Strings(cols)
			g.FlowEdges = append(g.FlowEdges, FlowEdge{From: src, To: def.Name, Columns: cols})
			touch(src, cols...)
		}

		if def.Join != nil {
			g.JoinEdges = append(g.JoinEdges, JoinEdge{
				LeftTable:   def.From,
				LeftColumn:  def.Join.LeftColumn,
				RightTable:  def.Join.Table,
				RightColumn: def.Join.RightColumn,
			})
		}
	}

	names := make([]string, 0, len(touched))
	for name := range touched {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		kind := NodeBase
		if derived[name] {
			kind = NodeDerived
		}
		cols := make([]string, 0, len(touched[name]))
		for c := range touched[name] {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		g.Nodes = append(g.Nodes, Node{Name: name, Kind: kind, Columns: cols})
	}
	return g
}

// outputColumns lists the columns a definition produces. Without a projection
// or group-by stage the output schema is inherited from the sources and not
// known statically, so it is left empty.
func outputColumns(def *plan.Definition) []string {
	if len(def.Project) > 0 {
		cols := make([]string, len(def.Project))
		for i, p := range def.Project {
			cols[i] = p.As
		}
		return cols
	}
	if def.GroupBy != nil {
		cols := append([]string(nil), def.GroupBy.Columns...)
		for _, spec := range def.GroupBy.Aggregates {
			cols = append(cols, spec.As)
		}
		return cols
	}
	return nil
}

// readColumns maps each source table to the columns the definition reads from
// it. Join columns attach to their own side; every other reference is
// credited to the From table.
func readColumns(def *plan.Definition) map[string][]string {
	cols := make(map[string]bool)
	if def.Filter != nil {
		for _, c := range expr.Columns(def.Filter) {
			cols[c] = true
		}
	}
	if def.GroupBy != nil {
		for _, c := range def.GroupBy.Columns {
			cols[c] = true
		}
		for _, spec := range def.GroupBy.Aggregates {
			if spec.Column != "*" {
				cols[spec.Column] = true
			}
		}
	}
	for _, p := range def.Project {
		for _, c := range expr.Columns(p.Expr) {
			cols[c] = true
		}
	}

	reads := make(map[string][]string)
	if def.Join != nil {
		cols[def.Join.LeftColumn] = true
		reads[def.Join.Table] = append(reads[def.Join.Table], def.Join.RightColumn)
	}
	for c := range cols {
		reads[def.From] = append(reads[def.From], c)
	}
	return reads
}
