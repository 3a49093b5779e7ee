package source

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toileto/visage/pkg/table"
)

func createFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE orders (user_id INTEGER, amount REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES (1, 2000.5, 'first'), (2, 300, NULL)`)
	require.NoError(t, err)
	return path
}

func TestLoadTable(t *testing.T) {
	src, err := OpenSQLite(createFixture(t))
	require.NoError(t, err)
	defer src.Close()

	tbl, err := src.LoadTable("orders")
	require.NoError(t, err)

	assert.Equal(t, []string{"user_id", "amount", "note"}, tbl.Schema().Columns())
	require.Equal(t, 2, tbl.NumRows())

	first := tbl.Rows()[0]
	assert.Equal(t, table.KindInt, first[0].Kind)
	assert.Equal(t, int64(1), first[0].Int)
	assert.Equal(t, table.KindFloat, first[1].Kind)
	assert.Equal(t, 2000.5, first[1].Float)
	assert.Equal(t, "first", first[2].Text)

	second := tbl.Rows()[1]
	assert.True(t, second[2].IsNull())
}

func TestLoadTableMissing(t *testing.T) {
	src, err := OpenSQLite(createFixture(t))
	require.NoError(t, err)
	defer src.Close()

	_, err = src.LoadTable("absent")
	require.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"orders"`, quoteIdent("orders"))
	assert.Equal(t, `"odd""name"`, quoteIdent(`odd"name`))
}
