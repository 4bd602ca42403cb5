package vrp

import (
	"testing"

	"honnef.co/go/vrp/go/ir"
)

func checkTopological(t *testing.T, g *Graph) {
	t.Helper()
	for i := 0; i < g.NumOperations(); i++ {
		op := g.Operation(OperationID(i))
		for _, src := range op.Kind.Operands() {
			if g.SCC(src) > g.SCC(op.Sink) {
				t.Errorf("%s: source in component %d, sink in component %d", g.OperationString(OperationID(i)), g.SCC(src), g.SCC(op.Sink))
			}
		}
		if k, ok := op.Kind.(*Sigma); ok && k.Bound != NoNode && g.SCC(k.Bound) > g.SCC(op.Sink) {
			t.Errorf("%s: bound solved after the sigma", g.OperationString(OperationID(i)))
		}
	}
}

// nestedLoops builds two nested counting loops, the inner one bounded by
// the outer induction variable.
func nestedLoops() (fn *ir.Function, i, j *ir.Value) {
	fn = ir.NewModule().NewFunction("nested")
	entry := fn.NewBlock("entry")
	outer, outerBody := fn.NewBlock("outer"), fn.NewBlock("outer.body")
	inner, innerBody, innerExit := fn.NewBlock("inner"), fn.NewBlock("inner.body"), fn.NewBlock("inner.exit")
	exit := fn.NewBlock("exit")
	entry.Jump(outer)

	i = outer.Phi("i", i32, fn.Const(i32, 0), nil)
	outer.If(ir.SLT, i, fn.Const(i32, 100), outerBody, exit)

	it := outerBody.Sigma("i.t", i)
	outerBody.Jump(inner)

	j = inner.Phi("j", i32, fn.Const(i32, 0), nil)
	inner.If(ir.SLT, j, it, innerBody, innerExit)

	jt := innerBody.Sigma("j.t", j)
	jnext := innerBody.Emit(ir.OpAdd, "j.next", i32, jt, fn.Const(i32, 1))
	innerBody.Jump(inner)
	j.Def.Args[1] = jnext

	inext := innerExit.Emit(ir.OpAdd, "i.next", i32, it, fn.Const(i32, 1))
	innerExit.Jump(outer)
	i.Def.Args[1] = inext

	exit.Return(i)
	return fn, i, j
}

func TestComponentsAreTopological(t *testing.T) {
	fn, i, j := nestedLoops()
	if err := ir.Verify(fn); err != nil {
		t.Fatal(err)
	}
	g := Analyze(fn, Options{})
	checkTopological(t, g)

	iid, _ := g.Node(i)
	jid, _ := g.Node(j)
	if g.SCC(iid) == g.SCC(jid) {
		t.Errorf("the inner loop shares a component with the outer loop")
	}
	members := 0
	for n := 0; n < g.NumSCCs(); n++ {
		for v := 0; v < g.NumVarNodes(); v++ {
			if g.SCC(VarNodeID(v)) == n {
				members++
			}
		}
	}
	if members != g.NumVarNodes() {
		t.Errorf("components hold %d nodes, want %d", members, g.NumVarNodes())
	}
}

func TestNestedLoopRanges(t *testing.T) {
	for _, n := range narrowings() {
		t.Run(n.String(), func(t *testing.T) {
			fn, i, _ := nestedLoops()
			g := Analyze(fn, Options{Narrowing: n})
			cfg := g.Config()
			checkRange(t, g, fn.Lookup("i.t"), NewRangeOf(cfg, 0, 99))
			checkRange(t, g, i, NewRangeOf(cfg, 0, 100))
			checkRange(t, g, fn.Lookup("j.t"), NewRangeOf(cfg, 0, 98))
		})
	}
}
