package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/toileto/visage/pkg/table"
)

func newTable(t *testing.T, ids ...int64) *table.Table {
	t.Helper()
	schema, err := table.NewSchema([]string{"id"})
	if err != nil {
		t.Fatalf("NewSchema error: %v", err)
	}
	tbl := table.New(schema)
	for _, id := range ids {
		if err := tbl.Append([]table.Value{table.NewInt(id)}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	return tbl
}

func TestRegisterAndGetRoundTrip(t *testing.T) {
	reg := New()
	original := newTable(t, 1, 2, 3)

	if err := reg.RegisterDerived("result", original); err != nil {
		t.Fatalf("RegisterDerived error: %v", err)
	}

	got, err := reg.Get("result")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != original {
		t.Error("Get returned a different table than was registered")
	}
	if got.NumRows() != 3 {
		t.Errorf("expected 3 rows, got %d", got.NumRows())
	}

	kind, err := reg.Kind("result")
	if err != nil {
		t.Fatalf("Kind error: %v", err)
	}
	if kind != KindDerived {
		t.Errorf("expected derived, got %v", kind)
	}
}

func TestWriteOnce(t *testing.T) {
	reg := New()
	if err := reg.RegisterBase("t", newTable(t, 1)); err != nil {
		t.Fatalf("RegisterBase error: %v", err)
	}

	if err := reg.RegisterBase("t", newTable(t, 2)); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("re-register base: got %v, want ErrDuplicateName", err)
	}
	if err := reg.RegisterDerived("t", newTable(t, 2)); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("derived over base: got %v, want ErrDuplicateName", err)
	}

	// The original binding is untouched.
	got, err := reg.Get("t")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Rows()[0][0].Int != 1 {
		t.Errorf("original table was replaced")
	}
}

func TestGetUnknown(t *testing.T) {
	reg := New()
	if _, err := reg.Get("nope"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("got %v, want ErrUnknownTable", err)
	}
	if _, err := reg.Kind("nope"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Kind: got %v, want ErrUnknownTable", err)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := New()
	for _, name := range []string{"c", "a", "b"} {
		if err := reg.RegisterBase(name, newTable(t)); err != nil {
			t.Fatalf("RegisterBase error: %v", err)
		}
	}
	names := reg.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Names = %v, want [a b c]", names)
	}
}

func TestConcurrentRegisterSingleWinner(t *testing.T) {
	reg := New()
	const writers = 16

	tables := make([]*table.Table, writers)
	for i := range tables {
		tables[i] = newTable(t, int64(i))
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = reg.RegisterDerived("t", tables[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrDuplicateName) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one successful write, got %d", winners)
	}
}

func TestManyNames(t *testing.T) {
	reg := New()
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("table_%03d", i)
		if err := reg.RegisterBase(name, newTable(t)); err != nil {
			t.Fatalf("RegisterBase(%s) error: %v", name, err)
		}
		if !reg.Has(name) {
			t.Fatalf("Has(%s) = false after register", name)
		}
	}
	if len(reg.Names()) != 100 {
		t.Errorf("expected 100 names, got %d", len(reg.Names()))
	}
}
