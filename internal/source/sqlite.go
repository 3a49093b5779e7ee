// Package source loads base tables from external tabular sources.
package source

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/toileto/visage/pkg/table"
)

// SQLite reads base tables from a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database file read-only.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadTable reads every row of the named table into an in-memory table,
// mapping SQLite storage classes onto value kinds.
func (s *SQLite) LoadTable(name string) (*table.Table, error) {
	rows, err := s.db.Query("SELECT * FROM " + quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	schema, err := table.NewSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}

	out := table.New(schema)
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("table %s, row %d: %w", name, out.NumRows(), err)
		}
		row := make([]table.Value, len(columns))
		for i, v := range raw {
			val, err := convertValue(v)
			if err != nil {
				return nil, fmt.Errorf("table %s, row %d, column %s: %w",
					name, out.NumRows(), columns[i], err)
			}
			row[i] = val
		}
		if err := out.Append(row); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	return out, nil
}

// convertValue maps a driver value to a table value. INTEGER, REAL, TEXT, and
// NULL map directly; BLOBs are not representable.
func convertValue(v any) (table.Value, error) {
	switch val := v.(type) {
	case nil:
		return table.Null(), nil
	case int64:
		return table.NewInt(val), nil
	case float64:
		return table.NewFloat(val), nil
	case string:
		return table.NewText(val), nil
	case []byte:
		return table.NewText(string(val)), nil
	case bool:
		return table.NewBool(val), nil
	default:
		return table.Value{}, fmt.Errorf("%w: unsupported sqlite value type %T", table.ErrTypeMismatch, v)
	}
}

// quoteIdent quotes a table name for interpolation into the query text.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}
