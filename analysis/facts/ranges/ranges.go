// Package ranges computes the ranges of the integer values of a package.
package ranges

import (
	"context"
	"fmt"
	"go/token"
	"math/big"
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"honnef.co/go/vrp/go/ir"
	"honnef.co/go/vrp/go/ir/irssa"
	"honnef.co/go/vrp/go/vrp"
)

// returnRangeFact records the range of the single integer result of a
// function. An empty bound is unbounded.
type returnRangeFact struct {
	Lower string
	Upper string
}

func (*returnRangeFact) AFact() {}
func (fact *returnRangeFact) String() string {
	l, u := fact.Lower, fact.Upper
	if l == "" {
		l = "-∞"
	}
	if u == "" {
		u = "∞"
	}
	return fmt.Sprintf("returns [%s, %s]", l, u)
}

func (fact *returnRangeFact) interval(typ ir.Type) *ir.Interval {
	ival := &ir.Interval{Lower: typ.Min(), Upper: typ.Max()}
	if n, ok := new(big.Int).SetString(fact.Lower, 10); ok && n.Cmp(ival.Lower) > 0 {
		ival.Lower = n
	}
	if n, ok := new(big.Int).SetString(fact.Upper, 10); ok && n.Cmp(ival.Upper) < 0 {
		ival.Upper = n
	}
	return ival
}

var Analysis = &analysis.Analyzer{
	Name:       "ranges",
	Doc:        "Computes the ranges of integer values and annotates functions with the range of their result",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	FactTypes:  []analysis.Fact{(*returnRangeFact)(nil)},
	ResultType: reflect.TypeOf((*Result)(nil)),
}

var (
	flagPrint           bool
	flagIntraprocedural bool
	flagNarrowing       = vrp.Cousot.String()
)

func init() {
	Analysis.Flags.BoolVar(&flagPrint, "print", false, "report the range of every returned integer")
	Analysis.Flags.BoolVar(&flagIntraprocedural, "intraprocedural", false, "analyse every function on its own")
	Analysis.Flags.StringVar(&flagNarrowing, "narrowing", flagNarrowing, "narrowing operator, cousot or crop")
}

type Result struct {
	funcs  map[*ssa.Function]*irssa.Function
	graphs map[*ssa.Function]*vrp.Graph
	types  *irssa.Builder
}

// Range returns the range of v where it is defined. It reports false if v
// is not an integer of an analysed function.
func (r *Result) Range(v ssa.Value) (vrp.Range, bool) {
	f, ok := r.funcs[v.Parent()]
	if !ok {
		return vrp.Range{}, false
	}
	irv := f.Value(v)
	if irv == nil {
		return vrp.Range{}, false
	}
	return r.graphs[f.SSA].Range(irv), true
}

// RangeAt returns the range of v where it is used in block b. This is
// narrower than Range if b is dominated by branches on v.
func (r *Result) RangeAt(v ssa.Value, b *ssa.BasicBlock) (vrp.Range, bool) {
	f, ok := r.funcs[b.Parent()]
	if !ok {
		return vrp.Range{}, false
	}
	g := r.graphs[f.SSA]
	if k, ok := v.(*ssa.Const); ok {
		if _, ok := r.types.Type(k.Type()); !ok {
			return vrp.Range{}, false
		}
		return g.Config().Singleton(irssa.ConstInt(k)), true
	}
	irv := f.ValueAt(v, b)
	if irv == nil {
		return vrp.Range{}, false
	}
	return g.Range(irv), true
}

// addressTaken returns the functions that are used other than by being
// called directly.
func addressTaken(fns []*ssa.Function) map[*ssa.Function]bool {
	taken := map[*ssa.Function]bool{}
	var ops []*ssa.Value
	for _, fn := range fns {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				var callee ssa.Value
				switch instr := instr.(type) {
				case *ssa.Go, *ssa.Defer:
					// the arguments of these calls are not bound to the callee
				case ssa.CallInstruction:
					if !instr.Common().IsInvoke() {
						callee = instr.Common().Value
					}
				}
				ops = instr.Operands(ops[:0])
				for _, op := range ops {
					if op == nil || *op == callee {
						continue
					}
					if fn, ok := (*op).(*ssa.Function); ok {
						taken[fn] = true
					}
				}
			}
		}
	}
	return taken
}

func run(pass *analysis.Pass) (interface{}, error) {
	narrowing, err := vrp.ParseNarrowing(flagNarrowing)
	if err != nil {
		return nil, err
	}
	opts := vrp.Options{Narrowing: narrowing}
	srcFuncs := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA).SrcFuncs
	taken := addressTaken(srcFuncs)

	b := irssa.NewBuilder(pass.TypesSizes)
	b.External = func(fn *ssa.Function) bool {
		return fn.Parent() != nil ||
			fn.Signature.Recv() != nil ||
			token.IsExported(fn.Name()) ||
			taken[fn] ||
			fn.Pkg == nil || fn.Pkg.Pkg != pass.Pkg
	}
	b.ResultHint = func(callee *ssa.Function, typ ir.Type) *ir.Interval {
		obj := callee.Object()
		if obj == nil || obj.Pkg() == pass.Pkg {
			return nil
		}
		fact := new(returnRangeFact)
		if !pass.ImportObjectFact(obj, fact) {
			return nil
		}
		return fact.interval(typ)
	}

	res := &Result{
		funcs:  map[*ssa.Function]*irssa.Function{},
		graphs: map[*ssa.Function]*vrp.Graph{},
		types:  b,
	}
	var fns []*irssa.Function
	for _, fn := range srcFuncs {
		if f := b.Build(fn); f != nil {
			fns = append(fns, f)
			res.funcs[fn] = f
		}
	}

	if flagIntraprocedural {
		irfns := make([]*ir.Function, len(fns))
		for i, f := range fns {
			irfns[i] = f.IR
		}
		graphs, err := vrp.AnalyzeAll(context.Background(), irfns, opts, 0)
		if err != nil {
			return nil, err
		}
		for i, f := range fns {
			res.graphs[f.SSA] = graphs[i]
		}
	} else {
		g := vrp.AnalyzeModule(b.Module, opts)
		for _, f := range fns {
			res.graphs[f.SSA] = g
		}
	}

	for _, f := range fns {
		ret, ok := res.returnRange(pass, f.SSA)
		if !ok || ret.IsEmpty() || ret.IsMaxRange() || f.SSA.Object() == nil {
			continue
		}
		fact := &returnRangeFact{}
		if !ret.LowerUnbounded() {
			fact.Lower = ret.Lower().String()
		}
		if !ret.UpperUnbounded() {
			fact.Upper = ret.Upper().String()
		}
		pass.ExportObjectFact(f.SSA.Object(), fact)
	}
	return res, nil
}

// returnRange returns the union of the ranges of the values returned by fn.
// It reports false if fn does not return exactly one integer.
func (r *Result) returnRange(pass *analysis.Pass, fn *ssa.Function) (vrp.Range, bool) {
	if fn.Signature.Results().Len() != 1 {
		return vrp.Range{}, false
	}
	out := r.graphs[fn].Config().Empty()
	for _, b := range fn.Blocks {
		ret, ok := b.Instrs[len(b.Instrs)-1].(*ssa.Return)
		if !ok {
			continue
		}
		rng, ok := r.RangeAt(ret.Results[0], b)
		if !ok {
			return vrp.Range{}, false
		}
		if flagPrint && ret.Pos().IsValid() {
			pass.Reportf(ret.Pos(), "returns %s", rng)
		}
		out = out.Union(rng)
	}
	return out, true
}
