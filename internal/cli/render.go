package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/toileto/visage/pkg/table"
)

// WriteTable prints a table with aligned columns. limit > 0 caps the number
// of printed rows.
func WriteTable(w io.Writer, t *table.Table, limit int) error {
	columns := t.Schema().Columns()
	rows := t.Rows()
	truncated := false
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		truncated = true
	}

	widths := make([]int, len(columns))
	for i, name := range columns {
		widths[i] = len(name)
	}
	cells := make([][]string, len(rows))
	for ri, row := range rows {
		cells[ri] = make([]string, len(row))
		for ci, v := range row {
			s := v.String()
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	writeRow := func(values []string) error {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))
		return err
	}

	if err := writeRow(columns); err != nil {
		return err
	}
	seps := make([]string, len(columns))
	for i := range seps {
		seps[i] = strings.Repeat("-", widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(seps, "-+-")); err != nil {
		return err
	}
	for _, row := range cells {
		if err := writeRow(row); err != nil {
			return err
		}
	}

	if truncated {
		if _, err := fmt.Fprintf(w, "(%d of %d rows)\n", limit, t.NumRows()); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "(%d rows)\n", t.NumRows()); err != nil {
			return err
		}
	}
	return nil
}
