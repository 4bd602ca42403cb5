package vrp

import (
	"context"

	"golang.org/x/sync/errgroup"

	"honnef.co/go/vrp/go/ir"
)

// BuildModule builds a single constraint graph for all functions of m.
// Parameters of functions that are not external are bound to the union of
// the arguments of their call sites, and the results of calls to functions
// in m are bound to the union of the callee's returned values.
func BuildModule(m *ir.Module, opts Options) *Graph {
	g := NewGraph(configFor(opts, m.Functions...), opts)
	for _, fn := range m.Functions {
		g.AddFunction(fn)
	}
	for _, fn := range m.Functions {
		calls := m.Calls(fn)
		if !fn.External && len(calls) > 0 {
			for i, p := range fn.Params {
				if !p.Type.IsInteger() {
					continue
				}
				var actuals []*ir.Value
				for _, call := range calls {
					if i < len(call.Args) && call.Args[i].Type.IsInteger() {
						actuals = append(actuals, call.Args[i])
					}
				}
				if len(actuals) == len(calls) {
					g.AddBinding(p, actuals...)
				}
			}
		}
		var rets []*ir.Value
		for _, v := range fn.Returns(0) {
			if v.Type.IsInteger() {
				rets = append(rets, v)
			}
		}
		if len(rets) == 0 {
			continue
		}
		for _, call := range calls {
			if call.Result != nil && call.Result.Type.IsInteger() {
				g.AddBinding(call.Result, rets...)
			}
		}
	}
	return g
}

// AnalyzeModule builds and solves the constraint graph of m.
func AnalyzeModule(m *ir.Module, opts Options) *Graph {
	g := BuildModule(m, opts)
	g.Solve()
	return g
}

// AnalyzeAll solves the functions independently, using at most workers
// goroutines, or one per function if workers is not positive. Each function
// has its own Config.
func AnalyzeAll(ctx context.Context, fns []*ir.Function, opts Options, workers int) ([]*Graph, error) {
	graphs := make([]*Graph, len(fns))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, fn := range fns {
		i, fn := i, fn
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			graphs[i] = Analyze(fn, opts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}
