package vrp

import (
	"fmt"
	"math/big"
	"strings"
)

// Phase is the state of a component while it is being solved.
type Phase int

const (
	Discovered Phase = iota
	Widened
	IntersectsFixed
	Narrowed
	Propagated
)

func (p Phase) String() string {
	switch p {
	case Discovered:
		return "discovered"
	case Widened:
		return "widened"
	case IntersectsFixed:
		return "intersects fixed"
	case Narrowed:
		return "narrowed"
	case Propagated:
		return "propagated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// A meet updates the sink of an operation and reports whether it changed.
type meet func(g *Graph, op *Operation) bool

// Solve computes the range of every node. Solving a solved graph has no
// effect.
func (g *Graph) Solve() {
	if g.solved {
		return
	}
	g.init()
	g.sccs = g.findSCCs()
	for pos, comp := range g.sccs.members {
		g.solveComponent(pos, comp)
	}
	g.solved = true
}

func (g *Graph) tracef(format string, args ...interface{}) {
	if g.opts.Logger != nil {
		g.opts.Logger.Printf(format, args...)
	}
}

func (g *Graph) traceComponent(pos int, comp []VarNodeID, phase Phase) {
	if g.phaseDone != nil {
		g.phaseDone(pos, comp, phase)
	}
	if g.opts.Logger == nil {
		return
	}
	s := make([]string, len(comp))
	for i, v := range comp {
		s[i] = g.vars[v].String()
	}
	g.tracef("scc %d %s: %s", pos, phase, strings.Join(s, ", "))
}

func (g *Graph) solveComponent(pos int, comp []VarNodeID) {
	g.traceComponent(pos, comp, Discovered)

	var defs []OperationID
	hasEntry := false
	for _, v := range comp {
		if def := g.vars[v].def; def != noOperation {
			defs = append(defs, def)
		}
		if !g.vars[v].Range.IsEmpty() {
			hasEntry = true
		}
	}

	if hasEntry {
		g.iterate(pos, defs, widen)
	}
	for _, v := range comp {
		g.vars[v].storeAbstractState()
	}
	g.traceComponent(pos, comp, Widened)

	for _, v := range comp {
		g.fixIntersects(v)
	}
	g.traceComponent(pos, comp, IntersectsFixed)

	if hasEntry {
		switch g.opts.Narrowing {
		case Cousot:
			g.iterate(pos, defs, narrow)
		case Crop:
			g.iterate(pos, defs, crop)
		default:
			panic(fmt.Sprintf("unhandled narrowing %s", g.opts.Narrowing))
		}
	}
	g.traceComponent(pos, comp, Narrowed)

	g.propagate(pos, comp)
	g.traceComponent(pos, comp, Propagated)
}

// iterate applies m to the operations defining nodes of component pos until
// no sink changes.
func (g *Graph) iterate(pos int, initial []OperationID, m meet) {
	queued := map[OperationID]bool{}
	queue := make([]OperationID, 0, len(initial))
	for _, id := range initial {
		queued[id] = true
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queued[id] = false
		op := &g.ops[id]
		if !m(g, op) {
			continue
		}
		for _, use := range g.uses[op.Sink] {
			if g.sccs.of[g.ops[use].Sink] == pos && !queued[use] {
				queued[use] = true
				queue = append(queue, use)
			}
		}
	}
}

// propagate seeds the components that depend on component pos.
func (g *Graph) propagate(pos int, comp []VarNodeID) {
	outside := func(id OperationID) bool { return g.sccs.of[g.ops[id].Sink] != pos }
	for _, v := range comp {
		for _, id := range g.symbolic[v] {
			if outside(id) {
				g.ops[id].Intersect = boundedRegion(g.cfg, g.ops[id].Kind.(*Sigma).Pred, g.vars[v].Range)
			}
		}
	}
	for _, v := range comp {
		for _, ids := range [2][]OperationID{g.uses[v], g.symbolic[v]} {
			for _, id := range ids {
				if outside(id) {
					op := &g.ops[id]
					g.vars[op.Sink].Range = g.eval(op)
				}
			}
		}
	}
}

// widen grows the sink to include the operation's result. A side that moves
// goes straight to its sentinel.
func widen(g *Graph, op *Operation) bool {
	sink := &g.vars[op.Sink]
	old, nw := sink.Range, g.eval(op)
	if nw.IsEmpty() {
		return false
	}
	if old.IsEmpty() {
		sink.Range = nw
		g.noteWiden(op.Sink, old)
		return true
	}
	down := nw.lower.Cmp(old.lower) < 0
	up := nw.upper.Cmp(old.upper) > 0
	var r Range
	switch {
	case down && up:
		r = g.cfg.Max()
	case down:
		r = g.cfg.NewRange(g.cfg.NegInf, old.upper)
	case up:
		r = g.cfg.NewRange(old.lower, g.cfg.PosInf)
	default:
		return false
	}
	if r.Equal(old) {
		return false
	}
	sink.Range = r
	g.noteWiden(op.Sink, old)
	return true
}

func (g *Graph) noteWiden(id VarNodeID, old Range) {
	if g.widened != nil {
		g.widened(id, old)
	}
}

// narrow replaces unbounded sides of the sink with the operation's finite
// bounds. Finite bounds never move.
func narrow(g *Graph, op *Operation) bool {
	sink := &g.vars[op.Sink]
	old, nw := sink.Range, g.eval(op)
	if old.IsEmpty() || nw.IsEmpty() {
		return false
	}
	l, u := old.lower, old.upper
	if old.LowerUnbounded() && !nw.LowerUnbounded() {
		l = nw.lower
	}
	if old.UpperUnbounded() && !nw.UpperUnbounded() {
		u = nw.upper
	}
	return g.update(sink, l, u)
}

// crop raises the lower bound of a '-' or '?' sink and lowers the upper
// bound of a '+' or '?' sink whenever the operation's result is tighter.
// Unlike narrow, it keeps moving bounds that are already finite.
func crop(g *Graph, op *Operation) bool {
	sink := &g.vars[op.Sink]
	old, nw := sink.Range, g.eval(op)
	if old.IsEmpty() || nw.IsEmpty() {
		return false
	}
	l, u := old.lower, old.upper
	state := sink.State
	if (state == StateMinus || state == StateUnknown) && nw.lower.Cmp(l) > 0 {
		l = nw.lower
	}
	if (state == StatePlus || state == StateUnknown) && nw.upper.Cmp(u) < 0 {
		u = nw.upper
	}
	return g.update(sink, l, u)
}

func (g *Graph) update(sink *VarNode, l, u *big.Int) bool {
	r := g.cfg.NewRange(l, u)
	if r.IsEmpty() || r.Equal(sink.Range) {
		return false
	}
	sink.Range = r
	return true
}
