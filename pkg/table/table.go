package table

import "fmt"

// Schema is an ordered set of unique column names shared by every row of a
// table.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema creates a schema from an ordered list of column names.
func NewSchema(columns []string) (*Schema, error) {
	s := &Schema{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, name)
		}
		s.index[name] = i
	}
	return s, nil
}

// Columns returns the column names in order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (s *Schema) ColumnIndex(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the schema contains the column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Table is an ordered sequence of rows sharing one schema. Row values are
// positionally aligned with the schema's columns. Tables are treated as
// immutable once handed to the registry.
type Table struct {
	schema *Schema
	rows   [][]Value
}

// New creates a table over the given schema with no rows.
func New(schema *Schema) *Table {
	return &Table{schema: schema}
}

// Schema returns the table's schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Rows returns the underlying rows. Callers must not mutate them.
func (t *Table) Rows() [][]Value {
	return t.rows
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Append validates a row against the schema and adds it to the table.
func (t *Table) Append(row []Value) error {
	if len(row) != t.schema.Len() {
		return fmt.Errorf("%w: row %d has %d values, schema has %d columns",
			ErrSchemaMismatch, len(t.rows), len(row), t.schema.Len())
	}
	t.rows = append(t.rows, row)
	return nil
}

// Builder assembles a table from rows expressed as column→value pairs,
// inferring the schema from the first row and validating every later row
// against it.
type Builder struct {
	table *Table
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Pair is one column binding of a row under construction.
type Pair struct {
	Column string
	Value  Value
}

// AppendRow adds a row given as ordered column bindings. The first row fixes
// the schema; subsequent rows must bind exactly the same columns in the same
// order.
func (b *Builder) AppendRow(pairs []Pair) error {
	if b.table == nil {
		columns := make([]string, len(pairs))
		for i, p := range pairs {
			columns[i] = p.Column
		}
		schema, err := NewSchema(columns)
		if err != nil {
			return err
		}
		b.table = New(schema)
	}

	schema := b.table.schema
	if len(pairs) != schema.Len() {
		return fmt.Errorf("%w: row %d has %d columns, expected %d",
			ErrSchemaMismatch, b.table.NumRows(), len(pairs), schema.Len())
	}
	row := make([]Value, len(pairs))
	for i, p := range pairs {
		if schema.columns[i] != p.Column {
			return fmt.Errorf("%w: row %d column %d is %q, expected %q",
				ErrSchemaMismatch, b.table.NumRows(), i, p.Column, schema.columns[i])
		}
		row[i] = p.Value
	}
	return b.table.Append(row)
}

// Table returns the built table. An empty builder yields a table with an
// empty schema and no rows.
func (b *Builder) Table() *Table {
	if b.table == nil {
		schema, _ := NewSchema(nil)
		return New(schema)
	}
	return b.table
}
