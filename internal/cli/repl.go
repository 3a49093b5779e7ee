// Package cli provides the interactive inspection shell for a completed
// planner run.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/toileto/visage/pkg/lineage"
	"github.com/toileto/visage/pkg/plan"
	"github.com/toileto/visage/pkg/registry"
)

// REPL lets the user browse the registry, the evaluation order, and the
// lineage graph after a run.
type REPL struct {
	reg   *registry.Registry
	order []string
	defs  []plan.Definition
}

// NewREPL creates a REPL over a populated registry.
func NewREPL(reg *registry.Registry, order []string, defs []plan.Definition) *REPL {
	return &REPL{reg: reg, order: order, defs: defs}
}

// Run starts the interactive loop.
func (r *REPL) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "visage> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    r.completer(),
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("visage shell: %d tables registered. Type 'help' for commands.\n", len(r.reg.Names()))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !r.dispatch(line) {
			return nil
		}
	}
}

// dispatch runs one command; false means exit.
func (r *REPL) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "exit", "quit":
		return false

	case "help":
		r.printHelp()

	case "tables":
		r.printTables()

	case "show":
		if len(args) == 0 {
			fmt.Println("usage: show <table> [limit]")
			break
		}
		limit := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fmt.Println("limit must be a positive integer")
				break
			}
			limit = n
		}
		r.printTable(args[0], limit)

	case "order":
		if len(r.order) == 0 {
			fmt.Println("no derived tables defined")
			break
		}
		for i, name := range r.order {
			fmt.Printf("%3d. %s\n", i+1, name)
		}

	case "lineage":
		g := lineage.Build(r.defs)
		if err := g.WriteDOT(os.Stdout); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	default:
		fmt.Printf("unknown command: %s (try 'help')\n", cmd)
	}
	return true
}

func (r *REPL) printHelp() {
	fmt.Print(`Commands:
  tables              list registered tables
  show <table> [n]    print a table (optionally first n rows)
  order               print the derived-table evaluation order
  lineage             print the lineage graph in DOT format
  help                show this help
  exit                leave the shell
`)
}

func (r *REPL) printTables() {
	for _, name := range r.reg.Names() {
		kind, err := r.reg.Kind(name)
		if err != nil {
			continue
		}
		t, err := r.reg.Get(name)
		if err != nil {
			continue
		}
		fmt.Printf("%-24s %-8s %d rows\n", name, kind, t.NumRows())
	}
}

func (r *REPL) printTable(name string, limit int) {
	t, err := r.reg.Get(name)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if err := WriteTable(os.Stdout, t, limit); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (r *REPL) completer() readline.AutoCompleter {
	var tableItems []readline.PrefixCompleterInterface
	for _, name := range r.reg.Names() {
		tableItems = append(tableItems, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("tables"),
		readline.PcItem("show", tableItems...),
		readline.PcItem("order"),
		readline.PcItem("lineage"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".visage_history")
}
