package lineage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteJSON writes the graph as indented JSON.
func (g *Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteDOT writes the graph in Graphviz DOT format. Base tables render as
// boxes, derived tables as ellipses; join edges are dashed and undirected in
// meaning (rendered with dir=none).
func (g *Graph) WriteDOT(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph lineage {\n")
	sb.WriteString("  rankdir=LR;\n")

	for _, n := range g.Nodes {
		shape := "ellipse"
		if n.Kind == NodeBase {
			shape = "box"
		}
		label := n.Name
		if len(n.Columns) > 0 {
			label = fmt.Sprintf("%s\\n(%s)", n.Name, strings.Join(n.Columns, ", "))
		}
		fmt.Fprintf(&sb, "  %s [shape=%s, label=\"%s\"];\n", dotID(n.Name), shape, label)
	}

	for _, e := range g.FlowEdges {
		attr := ""
		if len(e.Columns) > 0 {
			attr = fmt.Sprintf(" [label=\"%s\"]", strings.Join(e.Columns, ", "))
		}
		fmt.Fprintf(&sb, "  %s -> %s%s;\n", dotID(e.From), dotID(e.To), attr)
	}

	for _, e := range g.JoinEdges {
		fmt.Fprintf(&sb, "  %s -> %s [style=dashed, dir=none, label=\"%s = %s\"];\n",
			dotID(e.LeftTable), dotID(e.RightTable), e.LeftColumn, e.RightColumn)
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// dotID sanitizes a table name into a DOT identifier.
func dotID(name string) string {
	return strings.NewReplacer(".", "_", " ", "_", "-", "_").Replace(name)
}
