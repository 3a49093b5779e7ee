package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toileto/visage/pkg/plan"
	"github.com/toileto/visage/pkg/registry"
	"github.com/toileto/visage/pkg/table"
)

const sampleManifest = `
tables:
  table_a:
    - {id: 50, name: x}
    - {id: 150, name: y}
  table_d:
    - {user_id: 1, amount: 2000}
    - {user_id: 1, amount: 4000}
    - {user_id: 1, amount: 300}

derived:
  - name: active_rows
    from: table_a
    filter:
      gt: [{column: id}, {value: 100}]
    project:
      - {column: id, as: id}
      - {column: name, as: name}
      - {value: active, as: status}

  - name: user_totals
    from: table_d
    group_by:
      columns: [user_id]
      aggregates:
        - {fn: sum, column: amount, as: total_spent}
        - {fn: count, column: "*", as: order_count}

  - name: segments
    from: user_totals
    project:
      - {column: user_id, as: user_id}
      - as: segment
        case:
          when:
            - if:
                and:
                  - gt: [{column: total_spent}, {value: 5000}]
                  - gt: [{column: order_count}, {value: 10}]
              then: {value: VIP}
            - if:
                gt: [{column: total_spent}, {value: 1000}]
              then: {value: Regular}
          else: {value: New}
`

func TestParseSampleManifest(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	require.Len(t, m.Tables, 2)
	tableA := m.Tables["table_a"]
	require.NotNil(t, tableA)
	assert.Equal(t, []string{"id", "name"}, tableA.Schema().Columns())
	require.Equal(t, 2, tableA.NumRows())
	assert.Equal(t, int64(50), tableA.Rows()[0][0].Int)
	assert.Equal(t, "x", tableA.Rows()[0][1].Text)

	require.Len(t, m.Definitions, 3)
	assert.Equal(t, "active_rows", m.Definitions[0].Name)
	assert.Equal(t, "table_a", m.Definitions[0].From)
	assert.NotNil(t, m.Definitions[0].Filter)
	require.Len(t, m.Definitions[0].Project, 3)
	assert.Equal(t, "status", m.Definitions[0].Project[2].As)

	groupBy := m.Definitions[1].GroupBy
	require.NotNil(t, groupBy)
	assert.Equal(t, []string{"user_id"}, groupBy.Columns)
	require.Len(t, groupBy.Aggregates, 2)
	assert.Equal(t, "total_spent", groupBy.Aggregates[0].As)
}

// TestManifestEndToEnd runs the parsed manifest through the planner and
// checks the two-stage aggregation + segmentation result.
func TestManifestEndToEnd(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	reg := registry.New()
	for name, tbl := range m.Tables {
		require.NoError(t, reg.RegisterBase(name, tbl))
	}

	p, err := plan.New(reg, m.Definitions)
	require.NoError(t, err)
	require.NoError(t, p.Run())

	active, err := reg.Get("active_rows")
	require.NoError(t, err)
	require.Equal(t, 1, active.NumRows())
	assert.Equal(t, int64(150), active.Rows()[0][0].Int)
	assert.Equal(t, "active", active.Rows()[0][2].Text)

	segments, err := reg.Get("segments")
	require.NoError(t, err)
	require.Equal(t, 1, segments.NumRows())
	// 6300 spent over 3 orders: fails the VIP order-count check, lands in
	// Regular.
	assert.Equal(t, "Regular", segments.Rows()[0][1].Text)
}

func TestParseJoinDefinition(t *testing.T) {
	doc := `
tables:
  a:
    - {id: 1}
derived:
  - name: joined
    from: a
    join: {table: b, left: id, right: a_id}
`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, m.Definitions, 1)
	join := m.Definitions[0].Join
	require.NotNil(t, join)
	assert.Equal(t, "b", join.Table)
	assert.Equal(t, "id", join.LeftColumn)
	assert.Equal(t, "a_id", join.RightColumn)
}

func TestParseValueKinds(t *testing.T) {
	doc := `
tables:
  t:
    - {i: 3, f: 1.5, s: hello, b: true, n: null}
`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)

	row := m.Tables["t"].Rows()[0]
	assert.Equal(t, table.KindInt, row[0].Kind)
	assert.Equal(t, table.KindFloat, row[1].Kind)
	assert.Equal(t, table.KindText, row[2].Kind)
	assert.Equal(t, table.KindBool, row[3].Kind)
	assert.True(t, row[4].IsNull())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"ragged rows",
			"tables:\n  t:\n    - {id: 1}\n    - {id: 2, extra: 3}\n",
			"schema mismatch",
		},
		{
			"projection without name",
			"derived:\n  - name: d\n    from: t\n    project:\n      - {column: id}\n",
			"no output name",
		},
		{
			"unknown expression construct",
			"derived:\n  - name: d\n    from: t\n    filter:\n      regex: [{column: id}, {value: x}]\n",
			"unknown expression construct",
		},
		{
			"case without else",
			"derived:\n  - name: d\n    from: t\n    project:\n      - as: x\n        case:\n          when:\n            - if: {value: true}\n              then: {value: 1}\n",
			"default else",
		},
		{
			"unknown aggregate",
			"derived:\n  - name: d\n    from: t\n    group_by:\n      columns: [k]\n      aggregates:\n        - {fn: median, column: v, as: m}\n",
			"unknown aggregate",
		},
		{
			"incomplete source",
			"sources:\n  - kind: sqlite\n    path: ''\n    tables: [a]\n",
			"required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
