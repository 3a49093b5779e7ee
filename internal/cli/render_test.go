package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/toileto/visage/pkg/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	schema, err := table.NewSchema([]string{"id", "name"})
	if err != nil {
		t.Fatalf("NewSchema error: %v", err)
	}
	tbl := table.New(schema)
	rows := [][]table.Value{
		{table.NewInt(1), table.NewText("alice")},
		{table.NewInt(2), table.NewText("bo")},
		{table.NewInt(3), table.NewText("carol")},
	}
	for _, row := range rows {
		if err := tbl.Append(row); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	return tbl
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleTable(t), 0); err != nil {
		t.Fatalf("WriteTable error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Header, separator, three rows, footer.
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "id") || !strings.Contains(lines[0], "name") {
		t.Errorf("header missing columns: %q", lines[0])
	}
	if !strings.Contains(lines[2], "alice") {
		t.Errorf("first row missing: %q", lines[2])
	}
	if lines[5] != "(3 rows)" {
		t.Errorf("footer = %q, want (3 rows)", lines[5])
	}
}

func TestWriteTableLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleTable(t), 2); err != nil {
		t.Fatalf("WriteTable error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "carol") {
		t.Errorf("limit ignored:\n%s", out)
	}
	if !strings.Contains(out, "(2 of 3 rows)") {
		t.Errorf("truncation footer missing:\n%s", out)
	}
}
