package vrp

import (
	"math/big"

	"honnef.co/go/vrp/go/ir"
)

// An Interval is what one edge of a branch teaches about a value. It is
// either the concrete Range, or, if Bound is not nil, the region in which
// the value stands in relation Pred to Bound.
type Interval struct {
	Range Range
	Bound *ir.Value
	Pred  ir.Predicate
}

func (ival Interval) IsSymbolic() bool { return ival.Bound != nil }

func (ival Interval) String() string {
	if !ival.IsSymbolic() {
		return ival.Range.String()
	}
	return ival.Pred.String() + " " + ival.Bound.String()
}

// A BranchFact records the intervals a conditional branch implies for one
// compared value on each of its edges.
type BranchFact struct {
	TrueBlock, FalseBlock *ir.Block
	True, False           Interval
}

// A SwitchFact records the values a switch implies for its operand in each
// case block. Blocks not in Cases, including the default, learn nothing.
type SwitchFact struct {
	Cases map[*ir.Block]Range
}

// boundedRegion returns the values x such that 'x pred y' may hold for some
// y in bound. Sentinel bounds are never incremented or decremented.
func boundedRegion(cfg *Config, pred ir.Predicate, bound Range) Range {
	if bound.IsEmpty() {
		return cfg.Max()
	}
	one := big.NewInt(1)
	l, u := bound.lower, bound.upper
	switch pred {
	case ir.EQ:
		return bound
	case ir.NE:
		return cfg.Max()
	case ir.SLT:
		if !bound.UpperUnbounded() {
			u = new(big.Int).Sub(u, one)
		}
		return cfg.NewRange(cfg.NegInf, u)
	case ir.SLE:
		return cfg.NewRange(cfg.NegInf, u)
	case ir.SGT:
		if !bound.LowerUnbounded() {
			l = new(big.Int).Add(l, one)
		}
		return cfg.NewRange(l, cfg.PosInf)
	case ir.SGE:
		return cfg.NewRange(l, cfg.PosInf)
	case ir.ULT, ir.ULE:
		// Negative values are larger than every non-negative value when
		// compared as unsigned integers.
		if l.Sign() < 0 {
			return cfg.Max()
		}
		if pred == ir.ULT && !bound.UpperUnbounded() {
			u = new(big.Int).Sub(u, one)
		}
		return cfg.NewRange(new(big.Int), u)
	case ir.UGT, ir.UGE:
		return cfg.Max()
	default:
		panic("unreachable")
	}
}

// AddBranch records the facts implied by the terminator of b. It must be
// called before the sigma instructions in b's successors are added.
func (g *Graph) AddBranch(b *ir.Block) {
	switch t := b.Term.(type) {
	case *ir.If:
		g.addIf(t)
	case *ir.Switch:
		g.addSwitch(t)
	}
}

func (g *Graph) addIf(t *ir.If) {
	x, y, pred := t.Cond.X, t.Cond.Y, t.Cond.Pred
	if !x.Type.IsInteger() || !y.Type.IsInteger() || t.Then == t.Else {
		return
	}
	fact := func(pred ir.Predicate, other *ir.Value) BranchFact {
		f := BranchFact{TrueBlock: t.Then, FalseBlock: t.Else}
		if other.IsConst() {
			c := g.cfg.Singleton(other.Const)
			f.True = Interval{Range: boundedRegion(g.cfg, pred, c)}
			f.False = Interval{Range: boundedRegion(g.cfg, pred.Negate(), c)}
		} else {
			f.True = Interval{Bound: other, Pred: pred}
			f.False = Interval{Bound: other, Pred: pred.Negate()}
		}
		return f
	}
	switch {
	case x.IsConst() && y.IsConst():
	case y.IsConst():
		g.addBranchFact(x, fact(pred, y))
	case x.IsConst():
		g.addBranchFact(y, fact(pred.Flip(), x))
	default:
		g.addBranchFact(x, fact(pred, y))
		g.addBranchFact(y, fact(pred.Flip(), x))
	}
}

func (g *Graph) addBranchFact(v *ir.Value, f BranchFact) {
	g.branches[v] = append(g.branches[v], f)
	// A value-preserving conversion of v satisfies the same condition.
	if def := v.Def; def != nil && len(def.Args) == 1 {
		switch def.Op {
		case ir.OpCopy, ir.OpSExt:
			src := def.Args[0]
			if src.Type.IsInteger() && !src.IsConst() {
				g.branches[src] = append(g.branches[src], f)
			}
		}
	}
}

func (g *Graph) addSwitch(t *ir.Switch) {
	if !t.On.Type.IsInteger() || t.On.IsConst() {
		return
	}
	f := SwitchFact{Cases: map[*ir.Block]Range{}}
	for _, c := range t.Cases {
		if c.Target == t.Default {
			continue
		}
		r := g.cfg.Singleton(c.Value)
		if prev, ok := f.Cases[c.Target]; ok {
			r = prev.Union(r)
		}
		f.Cases[c.Target] = r
	}
	g.switches[t.On] = append(g.switches[t.On], f)
}

// branchInterval returns the interval that the branch into b implies for v.
func (g *Graph) branchInterval(v *ir.Value, b *ir.Block) (Interval, bool) {
	for _, f := range g.branches[v] {
		switch b {
		case f.TrueBlock:
			return f.True, true
		case f.FalseBlock:
			return f.False, true
		}
	}
	for _, f := range g.switches[v] {
		if r, ok := f.Cases[b]; ok {
			return Interval{Range: r}, true
		}
	}
	return Interval{}, false
}

// BranchFacts returns the branch facts recorded for v.
func (g *Graph) BranchFacts(v *ir.Value) []BranchFact { return g.branches[v] }
