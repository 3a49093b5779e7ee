package plan

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// RunParallel evaluates definitions with no dependency edge between them
// concurrently on a bounded goroutine pool. A definition is submitted only
// once every derived table it reads has been registered, so each worker sees
// a registry snapshot that already contains its inputs; registry writes stay
// serialized, preserving the write-once invariant. The first failure stops
// further submission and is reported after in-flight work drains.
func (p *Planner) RunParallel(workers int) error {
	if workers <= 1 {
		return p.Run()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	runID := uuid.NewString()
	p.log.Infow("parallel planner run started",
		"run_id", runID, "definitions", len(p.order), "workers", workers)

	// Remaining unevaluated dependencies per definition, and the reverse
	// edges used to release dependents on completion.
	waiting := make(map[string]int, len(p.order))
	dependents := make(map[string][]string, len(p.order))
	for _, name := range p.order {
		waiting[name] = len(p.edges[name])
		for _, dep := range p.edges[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	type outcome struct {
		name string
		err  error
	}
	results := make(chan outcome, len(p.order))

	var mu sync.Mutex
	inFlight := 0
	var firstErr error

	submit := func(name string) {
		def := p.defs[name]
		inFlight++
		if err := pool.Submit(func() {
			results <- outcome{name: name, err: p.evaluate(def)}
		}); err != nil {
			// Buffered for every definition, so this never blocks.
			results <- outcome{name: name, err: fmt.Errorf("submit %q: %w", name, err)}
		}
	}

	mu.Lock()
	for _, name := range p.order {
		if waiting[name] == 0 {
			submit(name)
		}
	}
	mu.Unlock()

	for {
		mu.Lock()
		if inFlight == 0 {
			mu.Unlock()
			break
		}
		mu.Unlock()

		res := <-results

		mu.Lock()
		inFlight--
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			p.log.Errorw("definition failed", "run_id", runID, "definition", res.name, "error", res.err)
			mu.Unlock()
			continue
		}
		p.log.Debugw("derived table evaluated", "run_id", runID, "definition", res.name)
		if firstErr == nil {
			for _, dep := range dependents[res.name] {
				waiting[dep]--
				if waiting[dep] == 0 {
					submit(dep)
				}
			}
		}
		mu.Unlock()
	}

	if firstErr != nil {
		p.log.Errorw("parallel planner run failed", "run_id", runID, "error", firstErr)
		return firstErr
	}
	p.log.Infow("parallel planner run finished", "run_id", runID)
	return nil
}
