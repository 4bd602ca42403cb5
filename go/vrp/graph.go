package vrp

import (
	"fmt"
	"log"

	"honnef.co/go/vrp/go/ir"
)

// Narrowing selects how a component regains precision after widening.
type Narrowing int

const (
	// Cousot narrowing replaces unbounded sides with freshly evaluated
	// finite bounds.
	Cousot Narrowing = iota
	// Crop only moves the sides recorded in a node's AbstractState.
	Crop
)

func (n Narrowing) String() string {
	switch n {
	case Cousot:
		return "cousot"
	case Crop:
		return "crop"
	default:
		return fmt.Sprintf("Narrowing(%d)", int(n))
	}
}

func ParseNarrowing(s string) (Narrowing, error) {
	switch s {
	case "cousot", "":
		return Cousot, nil
	case "crop":
		return Crop, nil
	default:
		return 0, fmt.Errorf("unknown narrowing %q", s)
	}
}

type Options struct {
	Narrowing Narrowing
	// BitWidth overrides the width of the sentinels. If zero, the widest
	// integer type of the input is used.
	BitWidth int
	// Logger, if not nil, receives a trace of the solver.
	Logger *log.Logger
}

// Graph is the constraint graph of a function or module.
type Graph struct {
	cfg  *Config
	opts Options

	vars  []VarNode
	ops   []Operation
	nodes map[*ir.Value]VarNodeID

	// uses[n] lists the operations that read node n.
	uses [][]OperationID
	// symbolic[n] lists the sigma operations bounded by node n.
	symbolic [][]OperationID

	branches map[*ir.Value][]BranchFact
	switches map[*ir.Value][]SwitchFact

	initialized bool
	solved      bool
	sccs        *components

	// Observers used by tests. phaseDone runs when a component reaches a
	// phase, widened whenever widening changes a node.
	phaseDone func(pos int, comp []VarNodeID, phase Phase)
	widened   func(id VarNodeID, old Range)
}

func NewGraph(cfg *Config, opts Options) *Graph {
	return &Graph{
		cfg:      cfg,
		opts:     opts,
		nodes:    map[*ir.Value]VarNodeID{},
		branches: map[*ir.Value][]BranchFact{},
		switches: map[*ir.Value][]SwitchFact{},
	}
}

func configFor(opts Options, fns ...*ir.Function) *Config {
	w := opts.BitWidth
	if w == 0 {
		w = ir.MaxWidth(fns...)
	}
	return NewConfig(w)
}

// Build builds the constraint graph of fn.
func Build(fn *ir.Function, opts Options) *Graph {
	g := NewGraph(configFor(opts, fn), opts)
	g.AddFunction(fn)
	return g
}

// Analyze builds and solves the constraint graph of fn.
func Analyze(fn *ir.Function, opts Options) *Graph {
	g := Build(fn, opts)
	g.Solve()
	return g
}

// AddFunction adds the branches and instructions of fn.
func (g *Graph) AddFunction(fn *ir.Function) {
	for _, p := range fn.Params {
		if p.Type.IsInteger() {
			g.AddValue(p)
		}
	}
	for _, b := range fn.Blocks {
		g.AddBranch(b)
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			g.AddInstr(instr)
		}
	}
}

func (g *Graph) Config() *Config { return g.cfg }

func (g *Graph) checkMutable() {
	if g.initialized {
		panic("constraint graph modified after solving started")
	}
}

// AddValue returns the node of v, creating it if necessary.
func (g *Graph) AddValue(v *ir.Value) VarNodeID {
	if id, ok := g.nodes[v]; ok {
		return id
	}
	g.checkMutable()
	id := VarNodeID(len(g.vars))
	g.vars = append(g.vars, VarNode{Value: v, def: noOperation})
	g.uses = append(g.uses, nil)
	g.symbolic = append(g.symbolic, nil)
	g.nodes[v] = id
	return id
}

func (g *Graph) addOperation(sink *ir.Value, kind OperationKind) OperationID {
	g.checkMutable()
	sinkID := g.AddValue(sink)
	if g.vars[sinkID].def != noOperation {
		panic(fmt.Sprintf("value %s has more than one definition", sink))
	}
	id := OperationID(len(g.ops))
	g.ops = append(g.ops, Operation{Sink: sinkID, Kind: kind, Intersect: g.cfg.Max()})
	g.vars[sinkID].def = id
	for _, src := range kind.Operands() {
		g.uses[src] = append(g.uses[src], id)
	}
	return id
}

// AddInstr adds the operation computing instr's result. It reports false for
// instructions that are not modelled, whose results stay unconstrained.
func (g *Graph) AddInstr(instr *ir.Instr) (OperationID, bool) {
	res := instr.Result
	if res == nil || !res.Type.IsInteger() {
		return noOperation, false
	}
	for _, arg := range instr.Args {
		if !arg.Type.IsInteger() {
			g.AddValue(res)
			return noOperation, false
		}
	}
	op := instr.Op
	switch {
	case op.IsUnary():
		src := g.AddValue(instr.Args[0])
		return g.addOperation(res, &Unary{Source: src, Opcode: op, From: instr.Args[0].Type, To: res.Type}), true
	case op.IsBinary():
		lhs, rhs := g.AddValue(instr.Args[0]), g.AddValue(instr.Args[1])
		return g.addOperation(res, &Binary{LHS: lhs, RHS: rhs, Opcode: op}), true
	case op == ir.OpPhi:
		srcs := make([]VarNodeID, len(instr.Args))
		for i, arg := range instr.Args {
			srcs[i] = g.AddValue(arg)
		}
		return g.addOperation(res, &Phi{Sources: srcs}), true
	case op == ir.OpSigma:
		return g.addSigma(instr), true
	default:
		g.AddValue(res)
		return noOperation, false
	}
}

func (g *Graph) addSigma(instr *ir.Instr) OperationID {
	src := instr.Args[0]
	kind := &Sigma{Source: g.AddValue(src), Bound: NoNode}
	ival, ok := g.branchInterval(src, instr.Block)
	if ok && ival.IsSymbolic() {
		kind.Bound = g.AddValue(ival.Bound)
		kind.Pred = ival.Pred
	}
	id := g.addOperation(instr.Result, kind)
	switch {
	case !ok:
	case ival.IsSymbolic():
		g.symbolic[kind.Bound] = append(g.symbolic[kind.Bound], id)
	default:
		g.ops[id].Intersect = ival.Range
	}
	return id
}

// AddBinding defines sink as the union of sources. It is used to bind formal
// parameters to actual arguments, and call results to returned values.
// Binding an already bound sink adds to its sources. Without sources, sink
// keeps its current definition, if any.
func (g *Graph) AddBinding(sink *ir.Value, sources ...*ir.Value) OperationID {
	if len(sources) == 0 {
		return g.vars[g.AddValue(sink)].def
	}
	ids := make([]VarNodeID, len(sources))
	for i, src := range sources {
		ids[i] = g.AddValue(src)
	}
	if id, ok := g.nodes[sink]; ok {
		if def := g.vars[id].def; def != noOperation {
			phi, ok := g.ops[def].Kind.(*Phi)
			if !ok {
				panic(fmt.Sprintf("value %s has more than one definition", sink))
			}
			g.checkMutable()
			phi.Sources = append(phi.Sources, ids...)
			for _, src := range ids {
				g.uses[src] = append(g.uses[src], def)
			}
			return def
		}
	}
	return g.addOperation(sink, &Phi{Sources: ids})
}

// init initializes every node exactly once.
func (g *Graph) init() {
	if g.initialized {
		return
	}
	g.initialized = true
	for i := range g.vars {
		g.vars[i].init(g.cfg)
	}
}

// Node returns the node of v.
func (g *Graph) Node(v *ir.Value) (VarNodeID, bool) {
	id, ok := g.nodes[v]
	return id, ok
}

// VarNode returns the node with the given ID.
func (g *Graph) VarNode(id VarNodeID) *VarNode { return &g.vars[id] }

// Operation returns the operation with the given ID.
func (g *Graph) Operation(id OperationID) *Operation { return &g.ops[id] }

func (g *Graph) NumVarNodes() int   { return len(g.vars) }
func (g *Graph) NumOperations() int { return len(g.ops) }

// Uses returns the operations reading node id.
func (g *Graph) Uses(id VarNodeID) []OperationID { return g.uses[id] }

// Range returns the range of v. Values unknown to the graph are
// unconstrained.
func (g *Graph) Range(v *ir.Value) Range {
	id, ok := g.nodes[v]
	if !ok || !g.initialized {
		return g.cfg.Max()
	}
	return g.vars[id].Range
}
