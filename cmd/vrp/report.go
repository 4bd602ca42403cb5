package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gookit/color"

	"honnef.co/go/vrp/go/ir"
	"honnef.co/go/vrp/go/vrp"
)

type palette struct {
	bounded   func(a ...interface{}) string
	partial   func(a ...interface{}) string
	unbounded func(a ...interface{}) string
	empty     func(a ...interface{}) string
}

func newPalette(mode string) palette {
	switch mode {
	case "never":
		return palette{fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint}
	case "auto":
		if !color.SupportColor() {
			return palette{fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint}
		}
	case "always":
		color.ForceOpenColor()
	}
	return palette{
		bounded:   color.Success.Render,
		partial:   color.Notice.Render,
		unbounded: color.Danger.Render,
		empty:     color.Gray.Render,
	}
}

func (pal palette) render(r vrp.Range) string {
	switch {
	case r.IsEmpty():
		return pal.empty(r)
	case r.IsMaxRange():
		return pal.unbounded(r)
	case r.IsBounded():
		return pal.bounded(r)
	default:
		return pal.partial(r)
	}
}

func write(w io.Writer, a *analysis, format string, pal palette) error {
	switch format {
	case "dot":
		return writeDot(w, a)
	case "json":
		return writeJSON(w, a)
	default:
		return writeText(w, a, pal)
	}
}

func writeText(w io.Writer, a *analysis, pal palette) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, fn := range a.fns {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "func %s:\n", fn.Name)
		g := a.graphs[i]
		for _, v := range fn.Values() {
			if v.IsConst() {
				continue
			}
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", v.Name, v.Type, pal.render(g.Range(v)))
		}
	}
	return tw.Flush()
}

// distinct returns the graphs of a, each once, with the names of the
// functions they contain.
func (a *analysis) distinct() ([]*vrp.Graph, [][]string) {
	var graphs []*vrp.Graph
	var names [][]string
	idx := map[*vrp.Graph]int{}
	for i, g := range a.graphs {
		j, ok := idx[g]
		if !ok {
			j = len(graphs)
			idx[g] = j
			graphs = append(graphs, g)
			names = append(names, nil)
		}
		names[j] = append(names[j], a.fns[i].Name)
	}
	return graphs, names
}

func writeDot(w io.Writer, a *analysis) error {
	graphs, names := a.distinct()
	for i, g := range graphs {
		if _, err := fmt.Fprintf(w, "// %s\n%s", strings.Join(names[i], ", "), g.Graphviz()); err != nil {
			return err
		}
	}
	return nil
}

type jsonGraph struct {
	Functions []string   `json:"functions"`
	Graph     vrp.Export `json:"graph"`
}

func writeJSON(w io.Writer, a *analysis) error {
	graphs, names := a.distinct()
	out := make([]jsonGraph, len(graphs))
	for i, g := range graphs {
		out[i] = jsonGraph{Functions: names[i], Graph: g.Export()}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(out)
}

// writeSMT writes a script asserting that the value named by spec lies
// outside its computed range. For loop-free code, a solver answering unsat
// confirms the range.
func writeSMT(w io.Writer, m *ir.Module, a *analysis, spec string) error {
	fname, vname, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("invalid value %q, want func:value", spec)
	}
	fn := m.Function(fname)
	if fn == nil {
		return fmt.Errorf("unknown function %q", fname)
	}
	v := fn.Lookup(vname)
	g := a.graphOf(fn)
	if v == nil || g == nil {
		return fmt.Errorf("unknown value %q in function %s", vname, fname)
	}
	r := g.Range(v)
	if r.IsEmpty() {
		return fmt.Errorf("%s is never computed", spec)
	}
	var outside ir.Or
	if !r.LowerUnbounded() {
		outside = append(outside, ir.Expr{Op: "<", X: ir.Name{Value: v}, Y: ir.Lit{N: r.Lower()}})
	}
	if !r.UpperUnbounded() {
		outside = append(outside, ir.Expr{Op: ">", X: ir.Name{Value: v}, Y: ir.Lit{N: r.Upper()}})
	}
	if len(outside) == 0 {
		return fmt.Errorf("%s is unbounded", spec)
	}
	fmt.Fprintf(w, "; %s in %s\n", spec, r)
	return ir.WriteSMT(w, v, outside)
}
