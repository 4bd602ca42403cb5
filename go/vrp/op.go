package vrp

import (
	"fmt"
	"strings"

	"honnef.co/go/vrp/go/ir"
)

type (
	VarNodeID   int32
	OperationID int32
)

// NoNode is the Bound of a Sigma whose intersection is concrete.
const NoNode VarNodeID = -1

const noOperation OperationID = -1

// AbstractState summarizes which sides of a node's range were unbounded when
// its component finished widening. Cropping only moves those sides.
type AbstractState byte

const (
	StateZero    AbstractState = '0'
	StatePlus    AbstractState = '+'
	StateMinus   AbstractState = '-'
	StateUnknown AbstractState = '?'
)

func (s AbstractState) String() string { return string(s) }

// A VarNode is the abstract value of one program value.
type VarNode struct {
	Value *ir.Value
	Range Range
	State AbstractState

	def    OperationID
	frozen bool
}

// Def returns the operation defining n, if any.
func (n *VarNode) Def() (OperationID, bool) { return n.def, n.def != noOperation }

func (n *VarNode) init(cfg *Config) {
	v := n.Value
	switch {
	case v.Const != nil:
		n.Range = cfg.Singleton(v.Const)
	case n.def != noOperation:
		n.Range = cfg.Empty()
	case v.Hint != nil:
		n.Range = cfg.NewRange(v.Hint.Lower, v.Hint.Upper)
	default:
		n.Range = cfg.Max()
	}
}

// storeAbstractState freezes the node's abstract state. Later calls have no
// effect.
func (n *VarNode) storeAbstractState() {
	if n.frozen {
		return
	}
	n.frozen = true
	r := n.Range
	switch {
	case r.IsMaxRange():
		n.State = StateUnknown
	case r.LowerUnbounded():
		n.State = StateMinus
	case r.UpperUnbounded():
		n.State = StatePlus
	default:
		n.State = StateZero
	}
}

func (n *VarNode) String() string {
	return fmt.Sprintf("%s %s", n.Value, n.Range)
}

// An Operation constrains its sink by its sources.
type Operation struct {
	Sink VarNodeID
	Kind OperationKind
	// Intersect is applied to the result of the operation. For a Sigma
	// with a Bound, it is the max range until the bound's component has
	// been widened.
	Intersect Range
}

// OperationKind is one of *Unary, *Sigma, *Binary, *Phi and *ControlDep.
type OperationKind interface {
	Operands() []VarNodeID
	isOperationKind()
}

// Unary passes its source through a copy, load, store or conversion.
type Unary struct {
	Source   VarNodeID
	Opcode   ir.Opcode
	From, To ir.Type
}

// Sigma copies Source on one edge of a branch. If Bound is not NoNode, the
// branch compared Source against Bound with Pred, and the intersection is
// derived from Bound's range.
type Sigma struct {
	Source VarNodeID
	Bound  VarNodeID
	Pred   ir.Predicate
}

type Binary struct {
	LHS, RHS VarNodeID
	Opcode   ir.Opcode
}

type Phi struct {
	Sources []VarNodeID
}

// ControlDep orders the discovery of components. It is never evaluated into
// a node.
type ControlDep struct {
	Source VarNodeID
}

func (*Unary) isOperationKind()      {}
func (*Sigma) isOperationKind()      {}
func (*Binary) isOperationKind()     {}
func (*Phi) isOperationKind()        {}
func (*ControlDep) isOperationKind() {}

func (k *Unary) Operands() []VarNodeID      { return []VarNodeID{k.Source} }
func (k *Sigma) Operands() []VarNodeID      { return []VarNodeID{k.Source} }
func (k *Binary) Operands() []VarNodeID     { return []VarNodeID{k.LHS, k.RHS} }
func (k *Phi) Operands() []VarNodeID        { return k.Sources }
func (k *ControlDep) Operands() []VarNodeID { return []VarNodeID{k.Source} }

func (g *Graph) eval(op *Operation) Range {
	var r Range
	switch k := op.Kind.(type) {
	case *Unary:
		r = g.evalUnary(k)
	case *Sigma:
		r = g.vars[k.Source].Range
	case *Binary:
		r = g.evalBinary(k, g.vars[op.Sink].Value.Type)
	case *Phi:
		r = g.vars[k.Sources[0]].Range
		for _, src := range k.Sources[1:] {
			r = r.Union(g.vars[src].Range)
		}
	case *ControlDep:
		return g.cfg.Max()
	default:
		panic(fmt.Sprintf("unhandled operation kind %T", k))
	}
	if !op.Intersect.IsMaxRange() {
		r = r.Intersect(op.Intersect)
	}
	return r
}

func (g *Graph) evalUnary(k *Unary) Range {
	r := g.vars[k.Source].Range
	switch k.Opcode {
	case ir.OpCopy, ir.OpLoad, ir.OpStore:
		return r
	case ir.OpCast:
		return r.Convert(k.To)
	case ir.OpTrunc:
		if k.To.Unsigned {
			return r.Convert(k.To)
		}
		return r.Truncate(k.To.Width)
	case ir.OpSExt:
		return r.SExt(k.To.Width)
	case ir.OpZExt:
		return r.ZExt(k.From.Width, k.To.Width)
	default:
		panic(fmt.Sprintf("unhandled unary opcode %s", k.Opcode))
	}
}

// evalBinary evaluates k for a sink of type typ. An addition, subtraction
// or multiplication whose finite result leaves typ wraps around, so the
// sink may hold any value of typ.
func (g *Graph) evalBinary(k *Binary, typ ir.Type) Range {
	a, b := g.vars[k.LHS].Range, g.vars[k.RHS].Range
	var f func(z, z) (z, bool)
	switch k.Opcode {
	case ir.OpAdd:
		f = z.add
	case ir.OpSub:
		f = z.sub
	case ir.OpMul:
		f = z.mul
	}
	if f != nil {
		if a.overflows(b, f, typ) {
			return g.cfg.NewRange(typ.Min(), typ.Max())
		}
		return a.combine(b, f)
	}
	switch k.Opcode {
	case ir.OpUDiv:
		return a.UDiv(b)
	case ir.OpSDiv:
		return a.SDiv(b)
	case ir.OpURem:
		return a.URem(b)
	case ir.OpSRem:
		return a.SRem(b)
	case ir.OpShl:
		return a.Shl(b)
	case ir.OpLShr:
		return a.LShr(b)
	case ir.OpAShr:
		return a.AShr(b)
	case ir.OpAnd:
		return a.And(b)
	case ir.OpOr:
		return a.Or(b)
	case ir.OpXor:
		return a.Xor(b)
	default:
		panic(fmt.Sprintf("unhandled binary opcode %s", k.Opcode))
	}
}

// fixIntersects resolves the symbolic intersections bounded by id, using its
// current range.
func (g *Graph) fixIntersects(id VarNodeID) {
	bound := g.vars[id].Range
	for _, opID := range g.symbolic[id] {
		op := &g.ops[opID]
		op.Intersect = boundedRegion(g.cfg, op.Kind.(*Sigma).Pred, bound)
	}
}

// OperationString describes an operation, e.g. "x.next = add x.t, 1".
func (g *Graph) OperationString(id OperationID) string {
	op := &g.ops[id]
	name := func(id VarNodeID) string { return g.vars[id].Value.String() }
	var rhs string
	switch k := op.Kind.(type) {
	case *Unary:
		rhs = fmt.Sprintf("%s %s", k.Opcode, name(k.Source))
	case *Sigma:
		rhs = "sigma " + name(k.Source)
		if k.Bound != NoNode {
			rhs += fmt.Sprintf(" %s %s", k.Pred, name(k.Bound))
		}
	case *Binary:
		rhs = fmt.Sprintf("%s %s, %s", k.Opcode, name(k.LHS), name(k.RHS))
	case *Phi:
		names := make([]string, len(k.Sources))
		for i, src := range k.Sources {
			names[i] = name(src)
		}
		rhs = "phi " + strings.Join(names, ", ")
	case *ControlDep:
		rhs = "control " + name(k.Source)
	default:
		panic(fmt.Sprintf("unhandled operation kind %T", k))
	}
	if !op.Intersect.IsMaxRange() {
		rhs += " ∩ " + op.Intersect.String()
	}
	return fmt.Sprintf("%s = %s", name(op.Sink), rhs)
}
