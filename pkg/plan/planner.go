package plan

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toileto/visage/pkg/registry"
	"github.com/toileto/visage/pkg/relop"
)

// Planner evaluates derived-table definitions against a registry in
// dependency order. The graph is validated up front: duplicate names,
// unresolvable sources, and cycles all fail construction before any
// evaluation happens.
type Planner struct {
	reg   *registry.Registry
	defs  map[string]*Definition
	order []string
	edges map[string][]string // definition -> derived definitions it reads
	log   *zap.SugaredLogger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger attaches a structured logger to the planner. The default is a
// no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Planner) {
		p.log = log.Sugar()
	}
}

// New validates the definitions against the registry's base tables, builds
// the dependency graph, and computes a topological evaluation order.
func New(reg *registry.Registry, defs []Definition, opts ...Option) (*Planner, error) {
	p := &Planner{
		reg:   reg,
		defs:  make(map[string]*Definition, len(defs)),
		edges: make(map[string][]string, len(defs)),
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}

	names := make([]string, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.defs[def.Name]; dup {
			return nil, fmt.Errorf("%w: definition %s", registry.ErrDuplicateName, def.Name)
		}
		if reg.Has(def.Name) {
			return nil, fmt.Errorf("%w: definition %s shadows a base table", registry.ErrDuplicateName, def.Name)
		}
		p.defs[def.Name] = def
		names = append(names, def.Name)
	}

	// Edges point only at derived definitions; base tables resolve through
	// the registry. A reference to neither is a definition error.
	for _, name := range names {
		def := p.defs[name]
		for _, src := range def.Sources() {
			if _, isDef := p.defs[src]; isDef {
				p.edges[name] = append(p.edges[name], src)
				continue
			}
			if !reg.Has(src) {
				return nil, fmt.Errorf("definition %q: %w: %s", name, registry.ErrUnknownTable, src)
			}
		}
	}

	order, err := topoSort(names, p.edges)
	if err != nil {
		return nil, err
	}
	p.order = order
	return p, nil
}

// Order returns the computed evaluation order.
func (p *Planner) Order() []string {
	return append([]string(nil), p.order...)
}

// Definitions returns the planner's definitions in evaluation order.
func (p *Planner) Definitions() []*Definition {
	out := make([]*Definition, len(p.order))
	for i, name := range p.order {
		out[i] = p.defs[name]
	}
	return out
}

// Run evaluates every definition in topological order, registering each
// result as a derived table. The first failure aborts the run; tables
// registered before the failure remain queryable for diagnosis.
func (p *Planner) Run() error {
	runID := uuid.NewString()
	p.log.Infow("planner run started", "run_id", runID, "definitions", len(p.order))

	for _, name := range p.order {
		if err := p.evaluate(p.defs[name]); err != nil {
			p.log.Errorw("planner run failed", "run_id", runID, "definition", name, "error", err)
			return err
		}
		p.log.Debugw("derived table evaluated", "run_id", runID, "definition", name)
	}

	p.log.Infow("planner run finished", "run_id", runID)
	return nil
}

// evaluate applies one definition's pipeline and registers the result.
// Stages apply in the fixed order filter, join, group-by, projection.
func (p *Planner) evaluate(def *Definition) error {
	t, err := p.reg.Get(def.From)
	if err != nil {
		return fmt.Errorf("definition %q: %w", def.Name, err)
	}

	if def.Filter != nil {
		t, err = relop.Filter(t, def.Filter)
		if err != nil {
			return fmt.Errorf("definition %q: filter: %w", def.Name, err)
		}
	}

	if def.Join != nil {
		right, err := p.reg.Get(def.Join.Table)
		if err != nil {
			return fmt.Errorf("definition %q: %w", def.Name, err)
		}
		t, err = relop.Join(t, right, def.Join.LeftColumn, def.Join.RightColumn)
		if err != nil {
			return fmt.Errorf("definition %q: join: %w", def.Name, err)
		}
	}

	if def.GroupBy != nil {
		t, err = relop.Aggregate(t, def.GroupBy.Columns, def.GroupBy.Aggregates)
		if err != nil {
			return fmt.Errorf("definition %q: group by: %w", def.Name, err)
		}
	}

	if len(def.Project) > 0 {
		t, err = relop.Project(t, def.Project)
		if err != nil {
			return fmt.Errorf("definition %q: projection: %w", def.Name, err)
		}
	}

	if err := p.reg.RegisterDerived(def.Name, t); err != nil {
		return fmt.Errorf("definition %q: %w", def.Name, err)
	}
	return nil
}

// visit markers for cycle detection.
const (
	unvisited = iota
	visiting
	visited
)

// topoSort orders names so every definition follows the definitions it reads.
// A cycle fails with ErrCyclicDependency naming the cycle path.
func topoSort(names []string, edges map[string][]string) ([]string, error) {
	state := make(map[string]int, len(names))
	order := make([]string, 0, len(names))
	var stack []string

	var dfs func(name string) error
	dfs = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCyclicDependency, cyclePath(stack, name))
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range edges[name] {
			if err := dfs(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := dfs(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath renders the cycle portion of the DFS stack, closed back on the
// repeated name.
func cyclePath(stack []string, repeat string) string {
	start := 0
	for i, name := range stack {
		if name == repeat {
			start = i
			break
		}
	}
	return strings.Join(append(stack[start:], repeat), " -> ")
}
