// Vrp computes the ranges of the integer values of programs given as YAML
// descriptions of functions in SSA form.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/exp/slices"

	"honnef.co/go/vrp/config"
	"honnef.co/go/vrp/go/ir"
	"honnef.co/go/vrp/go/vrp"
	"honnef.co/go/vrp/version"
)

var (
	configFlag    = flag.String("config", "", "Directory to load vrp.conf from (default: directory of the first file)")
	narrowingFlag = flag.String("narrowing", "", "Narrowing operator, cousot or crop")
	widthFlag     = flag.Int("width", 0, "Bit width of the unbounded sentinels")
	intraFlag     = flag.Bool("intraprocedural", false, "Analyse every function on its own")
	workersFlag   = flag.Int("workers", 0, "Number of functions to solve in parallel")
	formatFlag    = flag.String("f", "", "Output format, text, dot or json")
	colorFlag     = flag.String("color", "", "Colorize ranges: auto, always or never")
	traceFlag     = flag.Bool("trace", false, "Log the steps of the solver")
	smtFlag       = flag.String("smt", "", "Print an SMT-LIB script that is unsat if the computed range of `func:value` holds")
	versionFlag   = flag.Bool("version", false, "Print version and exit")
	debugVersion  = flag.Bool("debug.version", false, "Print detailed version information and exit")
)

// applyFlags overrides the settings of cfg with the flags given on the
// command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "narrowing":
			cfg.Analysis.Narrowing = *narrowingFlag
		case "width":
			cfg.Analysis.BitWidth = *widthFlag
		case "intraprocedural":
			cfg.Analysis.Interprocedural = !*intraFlag
		case "workers":
			cfg.Analysis.Workers = *workersFlag
		case "f":
			cfg.Output.Format = *formatFlag
		case "color":
			cfg.Output.Color = *colorFlag
		case "trace":
			cfg.Output.Trace = *traceFlag
		}
	})
}

// analysis maps every function of a module with a body to the graph that
// holds its ranges.
type analysis struct {
	fns    []*ir.Function
	graphs []*vrp.Graph
}

func (a *analysis) graphOf(fn *ir.Function) *vrp.Graph {
	if i := slices.Index(a.fns, fn); i >= 0 {
		return a.graphs[i]
	}
	return nil
}

func analyze(ctx context.Context, m *ir.Module, cfg config.Config) (*analysis, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if cfg.Output.Trace {
		opts.Logger = log.New(os.Stderr, "", 0)
	}
	a := &analysis{}
	for _, fn := range m.Functions {
		if len(fn.Blocks) == 0 {
			continue
		}
		if err := ir.Verify(fn); err != nil {
			return nil, err
		}
		a.fns = append(a.fns, fn)
	}
	if cfg.Analysis.Interprocedural {
		g := vrp.AnalyzeModule(m, opts)
		for range a.fns {
			a.graphs = append(a.graphs, g)
		}
		return a, nil
	}
	a.graphs, err = vrp.AnalyzeAll(ctx, a.fns, opts, cfg.Analysis.Workers)
	return a, err
}

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.yaml...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag {
		version.Print(os.Stdout)
		os.Exit(0)
	}
	if *debugVersion {
		version.Verbose(os.Stdout)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dir := *configFlag
	if dir == "" {
		dir = filepath.Dir(flag.Arg(0))
	}
	cfg, err := config.Load(dir)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	pal := newPalette(cfg.Output.Color)

	for _, path := range flag.Args() {
		m, err := ir.DecodeFile(path)
		if err != nil {
			log.Fatal(err)
		}
		a, err := analyze(context.Background(), m, cfg)
		if err != nil {
			log.Fatalf("%s: %s", path, err)
		}
		if *smtFlag != "" {
			err = writeSMT(os.Stdout, m, a, *smtFlag)
		} else {
			err = write(os.Stdout, a, cfg.Output.Format, pal)
		}
		if err != nil {
			log.Fatalf("%s: %s", path, err)
		}
	}
}
