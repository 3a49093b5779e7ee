// Package registry provides the named table registry shared by base tables
// and computed derived tables.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/toileto/visage/pkg/table"
)

var (
	// ErrDuplicateName is returned when registering under a name that is
	// already bound. Registrations are write-once.
	ErrDuplicateName = errors.New("duplicate table name")

	// ErrUnknownTable is returned when looking up a name that was never
	// registered.
	ErrUnknownTable = errors.New("unknown table")
)

// TableKind distinguishes externally supplied base tables from computed
// derived tables.
type TableKind int

const (
	KindBase TableKind = iota
	KindDerived
)

// String returns a human-readable name of the kind.
func (k TableKind) String() string {
	if k == KindBase {
		return "base"
	}
	return "derived"
}

type entry struct {
	table *table.Table
	kind  TableKind
}

// Registry binds table names to immutable tables. Every name is write-once:
// there is no mutation or deletion, so all readers of a table observe the
// same snapshot. Writes are serialized so concurrent evaluation of
// independent definitions keeps the write-once invariant.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tables: make(map[string]entry)}
}

// RegisterBase binds an externally supplied base table.
func (r *Registry) RegisterBase(name string, t *table.Table) error {
	return r.register(name, t, KindBase)
}

// RegisterDerived binds a computed derived table.
func (r *Registry) RegisterDerived(name string, t *table.Table) error {
	return r.register(name, t, KindDerived)
}

func (r *Registry) register(name string, t *table.Table, kind TableKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.tables[name] = entry{table: t, kind: kind}
	return nil
}

// Get resolves a name to its table.
func (r *Registry) Get(name string) (*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return e.table, nil
}

// Kind reports whether a registered name is a base or derived table.
func (r *Registry) Kind(name string) (TableKind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return e.kind, nil
}

// Has reports whether a name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[name]
	return ok
}

// Names returns all registered names, sorted for stable output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
