// Package manifest loads base tables and derived-table definitions from a
// YAML document. The manifest is structured data, not a query language: every
// expression is a one-key node tree, so no textual parsing happens here.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/toileto/visage/pkg/plan"
	"github.com/toileto/visage/pkg/table"
)

// Source describes an external base-table source to load before evaluation.
type Source struct {
	Kind   string   `yaml:"kind"`
	Path   string   `yaml:"path"`
	Tables []string `yaml:"tables"`
}

// Manifest is the decoded document: inline base tables, external sources, and
// derived-table definitions in declaration order.
type Manifest struct {
	Tables      map[string]*table.Table
	Sources     []Source
	Definitions []plan.Definition
}

type document struct {
	Tables  map[string]yaml.Node `yaml:"tables"`
	Sources []Source             `yaml:"sources"`
	Derived []definitionDoc      `yaml:"derived"`
}

type definitionDoc struct {
	Name    string           `yaml:"name"`
	From    string           `yaml:"from"`
	Filter  map[string]any   `yaml:"filter"`
	Join    *joinDoc         `yaml:"join"`
	GroupBy *groupByDoc      `yaml:"group_by"`
	Project []map[string]any `yaml:"project"`
}

type joinDoc struct {
	Table string `yaml:"table"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type groupByDoc struct {
	Columns    []string `yaml:"columns"`
	Aggregates []aggDoc `yaml:"aggregates"`
}

type aggDoc struct {
	Fn     string `yaml:"fn"`
	Column string `yaml:"column"`
	As     string `yaml:"as"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	m := &Manifest{
		Tables:  make(map[string]*table.Table, len(doc.Tables)),
		Sources: doc.Sources,
	}

	for name, node := range doc.Tables {
		t, err := decodeTable(&node)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		m.Tables[name] = t
	}

	for i := range doc.Derived {
		def, err := decodeDefinition(&doc.Derived[i])
		if err != nil {
			return nil, err
		}
		m.Definitions = append(m.Definitions, *def)
	}

	for _, src := range m.Sources {
		if src.Kind == "" || src.Path == "" || len(src.Tables) == 0 {
			return nil, fmt.Errorf("source %q: kind, path, and tables are required", src.Path)
		}
	}
	return m, nil
}

// decodeTable builds a base table from a YAML sequence of mapping rows,
// preserving the key order of the first row for schema inference.
func decodeTable(node *yaml.Node) (*table.Table, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list of rows")
	}
	builder := table.NewBuilder()
	for i, rowNode := range node.Content {
		if rowNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("row %d: expected a mapping", i)
		}
		pairs := make([]table.Pair, 0, len(rowNode.Content)/2)
		for j := 0; j+1 < len(rowNode.Content); j += 2 {
			var raw any
			if err := rowNode.Content[j+1].Decode(&raw); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			val, err := decodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, rowNode.Content[j].Value, err)
			}
			pairs = append(pairs, table.Pair{Column: rowNode.Content[j].Value, Value: val})
		}
		if err := builder.AppendRow(pairs); err != nil {
			return nil, err
		}
	}
	return builder.Table(), nil
}

// decodeValue converts a decoded YAML scalar into a table value.
func decodeValue(raw any) (table.Value, error) {
	switch v := raw.(type) {
	case nil:
		return table.Null(), nil
	case bool:
		return table.NewBool(v), nil
	case int:
		return table.NewInt(int64(v)), nil
	case int64:
		return table.NewInt(v), nil
	case float64:
		return table.NewFloat(v), nil
	case string:
		return table.NewText(v), nil
	default:
		return table.Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
