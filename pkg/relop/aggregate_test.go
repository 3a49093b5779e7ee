package relop

import (
	"errors"
	"testing"

	"github.com/toileto/visage/pkg/table"
)

func ordersTable(t *testing.T) *table.Table {
	t.Helper()
	return mustTable(t, []string{"user_id", "amount"},
		[]table.Value{table.NewInt(1), table.NewInt(2000)},
		[]table.Value{table.NewInt(2), table.NewInt(7000)},
		[]table.Value{table.NewInt(1), table.NewInt(4000)},
		[]table.Value{table.NewInt(1), table.NewInt(300)},
	)
}

func TestAggregateSumAndCount(t *testing.T) {
	out, err := Aggregate(ordersTable(t), []string{"user_id"}, []AggSpec{
		{Func: AggSum, Column: "amount", As: "total_spent"},
		{Func: AggCount, Column: "*", As: "order_count"},
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	cols := out.Schema().Columns()
	if len(cols) != 3 || cols[0] != "user_id" || cols[1] != "total_spent" || cols[2] != "order_count" {
		t.Fatalf("unexpected schema: %v", cols)
	}
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 groups, got %d", out.NumRows())
	}

	// Groups come out in first-seen order: user 1 before user 2.
	first := out.Rows()[0]
	if first[0].Int != 1 || first[1].Int != 6300 || first[2].Int != 3 {
		t.Errorf("user 1: got %v, want [1 6300 3]", first)
	}
	second := out.Rows()[1]
	if second[0].Int != 2 || second[1].Int != 7000 || second[2].Int != 1 {
		t.Errorf("user 2: got %v, want [2 7000 1]", second)
	}
}

func TestAggregateAvgMinMax(t *testing.T) {
	out, err := Aggregate(ordersTable(t), []string{"user_id"}, []AggSpec{
		{Func: AggAvg, Column: "amount", As: "avg_amount"},
		{Func: AggMin, Column: "amount", As: "min_amount"},
		{Func: AggMax, Column: "amount", As: "max_amount"},
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	first := out.Rows()[0]
	if first[1].Kind != table.KindFloat || first[1].Float != 2100 {
		t.Errorf("avg: got %v, want 2100 (FLOAT)", first[1])
	}
	if first[2].Int != 300 {
		t.Errorf("min: got %v, want 300", first[2])
	}
	if first[3].Int != 4000 {
		t.Errorf("max: got %v, want 4000", first[3])
	}
}

func TestAggregateCountSkipsNulls(t *testing.T) {
	in := mustTable(t, []string{"k", "v"},
		[]table.Value{table.NewInt(1), table.NewInt(10)},
		[]table.Value{table.NewInt(1), table.Null()},
		[]table.Value{table.NewInt(1), table.NewInt(20)},
	)
	out, err := Aggregate(in, []string{"k"}, []AggSpec{
		{Func: AggCount, Column: "v", As: "non_null"},
		{Func: AggCount, Column: "*", As: "all_rows"},
		{Func: AggSum, Column: "v", As: "total"},
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	row := out.Rows()[0]
	if row[1].Int != 2 {
		t.Errorf("COUNT(v): got %v, want 2", row[1])
	}
	if row[2].Int != 3 {
		t.Errorf("COUNT(*): got %v, want 3", row[2])
	}
	if row[3].Int != 30 {
		t.Errorf("SUM skips NULL: got %v, want 30", row[3])
	}
}

func TestAggregateNonNumericSum(t *testing.T) {
	in := mustTable(t, []string{"k", "v"},
		[]table.Value{table.NewInt(1), table.NewText("oops")},
	)
	_, err := Aggregate(in, []string{"k"}, []AggSpec{
		{Func: AggSum, Column: "v", As: "total"},
	})
	if !errors.Is(err, table.ErrTypeMismatch) {
		t.Errorf("got %v, want ErrTypeMismatch", err)
	}
}

func TestAggregateNoGroupColumns(t *testing.T) {
	out, err := Aggregate(ordersTable(t), nil, []AggSpec{
		{Func: AggSum, Column: "amount", As: "total"},
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("expected a single group, got %d rows", out.NumRows())
	}
	if out.Rows()[0][0].Int != 13300 {
		t.Errorf("got %v, want 13300", out.Rows()[0][0])
	}
}

func TestAggregateMixedNumericSum(t *testing.T) {
	in := mustTable(t, []string{"k", "v"},
		[]table.Value{table.NewInt(1), table.NewInt(1)},
		[]table.Value{table.NewInt(1), table.NewFloat(0.5)},
	)
	out, err := Aggregate(in, []string{"k"}, []AggSpec{
		{Func: AggSum, Column: "v", As: "total"},
	})
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	got := out.Rows()[0][1]
	if got.Kind != table.KindFloat || got.Float != 1.5 {
		t.Errorf("got %v (%s), want 1.5 (FLOAT)", got, got.Kind)
	}
}

func TestAggregateUnknownColumn(t *testing.T) {
	_, err := Aggregate(ordersTable(t), []string{"missing"}, []AggSpec{
		{Func: AggCount, Column: "*", As: "c"},
	})
	if err == nil {
		t.Fatal("expected error for unknown group column")
	}
}

func TestParseAggFunc(t *testing.T) {
	for name, want := range map[string]AggFunc{
		"sum": AggSum, "COUNT": AggCount, " avg ": AggAvg, "Min": AggMin, "MAX": AggMax,
	} {
		got, err := ParseAggFunc(name)
		if err != nil {
			t.Errorf("ParseAggFunc(%q) error: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAggFunc(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseAggFunc("median"); err == nil {
		t.Error("expected error for unknown function")
	}
}
