// visage evaluates dependency-ordered derived-table definitions over named
// base tables and exports their lineage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toileto/visage/internal/cli"
	"github.com/toileto/visage/internal/config"
	"github.com/toileto/visage/internal/logger"
	"github.com/toileto/visage/internal/manifest"
	"github.com/toileto/visage/internal/source"
	"github.com/toileto/visage/pkg/lineage"
	"github.com/toileto/visage/pkg/plan"
	"github.com/toileto/visage/pkg/registry"
)

var (
	version = "0.1.0"

	cfgFile      string
	manifestPath string
	workers      int
	interactive  bool
	outPath      string
	format       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "visage",
		Short: "visage - a derived-table evaluation engine",
		Long: `visage evaluates a set of derived-table definitions against named base
tables in dependency order: filters, inner joins, group-by aggregations, and
conditional projections, each result registered as a new named table.

Evaluate a manifest:
  visage run --manifest tables.yaml

Export the dependency graph without evaluating:
  visage lineage --manifest tables.yaml --format dot`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "manifest file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the manifest's derived tables",
		RunE:  runEval,
	}
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent evaluation workers (0 = sequential)")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open an inspection shell after the run")
	rootCmd.AddCommand(runCmd)

	lineageCmd := &cobra.Command{
		Use:   "lineage",
		Short: "Export the table dependency graph",
		RunE:  runLineage,
	}
	lineageCmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or json")
	lineageCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(lineageCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("visage %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadManifest resolves the manifest path from the flag or config and parses
// it.
func loadManifest(cfg *config.Config) (*manifest.Manifest, error) {
	path := manifestPath
	if path == "" {
		path = cfg.Manifest
	}
	return manifest.Load(path)
}

// populate registers the manifest's inline tables and external sources as
// base tables.
func populate(reg *registry.Registry, m *manifest.Manifest) error {
	for name, t := range m.Tables {
		if err := reg.RegisterBase(name, t); err != nil {
			return err
		}
	}
	for _, src := range m.Sources {
		if src.Kind != "sqlite" {
			return fmt.Errorf("unsupported source kind: %s", src.Kind)
		}
		db, err := source.OpenSQLite(src.Path)
		if err != nil {
			return err
		}
		for _, name := range src.Tables {
			t, err := db.LoadTable(name)
			if err != nil {
				db.Close()
				return err
			}
			if err := reg.RegisterBase(name, t); err != nil {
				db.Close()
				return err
			}
		}
		if err := db.Close(); err != nil {
			return err
		}
	}
	return nil
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := loadManifest(cfg)
	if err != nil {
		return err
	}

	reg := registry.New()
	if err := populate(reg, m); err != nil {
		return err
	}

	p, err := plan.New(reg, m.Definitions, plan.WithLogger(log))
	if err != nil {
		return err
	}

	n := workers
	if n == 0 {
		n = cfg.Eval.Workers
	}
	if n > 1 {
		err = p.RunParallel(n)
	} else {
		err = p.Run()
	}
	if err != nil {
		return err
	}

	if interactive {
		repl := cli.NewREPL(reg, p.Order(), m.Definitions)
		return repl.Run()
	}

	for _, name := range p.Order() {
		t, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("-- %s\n", name)
		if err := cli.WriteTable(os.Stdout, t, 0); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func runLineage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	m, err := loadManifest(cfg)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	g := lineage.Build(m.Definitions)
	switch format {
	case "dot":
		return g.WriteDOT(out)
	case "json":
		return g.WriteJSON(out)
	default:
		return fmt.Errorf("unknown format: %s (expected dot or json)", format)
	}
}
