// Package ir defines the host intermediate representation consumed by the
// range analysis in honnef.co/go/vrp/go/vrp.
//
// A Module is a set of Functions. A Function is a list of Blocks in SSA form,
// each holding a sequence of Instrs and ending in a Terminator. Comparisons
// are not instructions; they are carried by the If terminator that branches on
// them. Programs are expected to be in e-SSA form: the successors of a
// conditional branch start with OpSigma instructions that copy the compared
// values, so that the facts learned from the branch have a name to attach to.
package ir

import (
	"fmt"
	"math/big"
)

// Type describes the integer type of a value. The zero Type is the type of
// values the analysis does not track.
type Type struct {
	Width    int
	Unsigned bool
}

func Int(width int) Type  { return Type{Width: width} }
func Uint(width int) Type { return Type{Width: width, Unsigned: true} }

// IsInteger reports whether values of type t are tracked by the analysis.
func (t Type) IsInteger() bool { return t.Width > 0 }

// SignedWidth returns the number of bits needed to represent every value of
// t as a two's complement integer.
func (t Type) SignedWidth() int {
	if t.Unsigned {
		return t.Width + 1
	}
	return t.Width
}

// Min returns the smallest value of type t.
func (t Type) Min() *big.Int {
	if t.Unsigned {
		return new(big.Int)
	}
	n := new(big.Int).Lsh(big.NewInt(1), uint(t.Width-1))
	return n.Neg(n)
}

// Max returns the largest value of type t.
func (t Type) Max() *big.Int {
	w := t.Width - 1
	if t.Unsigned {
		w = t.Width
	}
	n := new(big.Int).Lsh(big.NewInt(1), uint(w))
	return n.Sub(n, big.NewInt(1))
}

func (t Type) String() string {
	switch {
	case !t.IsInteger():
		return "void"
	case t.Unsigned:
		return fmt.Sprintf("u%d", t.Width)
	default:
		return fmt.Sprintf("i%d", t.Width)
	}
}

// Interval is a range hint attached to a value that has no defining
// instruction the analysis understands. A nil bound is unbounded.
type Interval struct {
	Lower, Upper *big.Int
}

func (ival Interval) String() string {
	l, u := "-∞", "∞"
	if ival.Lower != nil {
		l = ival.Lower.String()
	}
	if ival.Upper != nil {
		u = ival.Upper.String()
	}
	return fmt.Sprintf("[%s, %s]", l, u)
}

// A Value is an SSA value: a parameter, a constant, or the result of an
// instruction. Values are compared by identity.
type Value struct {
	// ID is unique within a Module.
	ID   int
	Name string
	Type Type
	// Const is non-nil for integer constants.
	Const *big.Int
	// Hint, if non-nil, bounds a value that has no defining operation.
	Hint *Interval
	// Def is the defining instruction, nil for parameters and constants.
	Def *Instr

	fn *Function
}

// Func returns the function the value belongs to.
func (v *Value) Func() *Function { return v.fn }

func (v *Value) String() string {
	if v.Const != nil {
		return v.Const.String()
	}
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("v%d", v.ID)
}

// IsConst reports whether v is a constant.
func (v *Value) IsConst() bool { return v.Const != nil }

// An Instr computes Result from Args.
type Instr struct {
	Op     Opcode
	Result *Value
	Args   []*Value
	// Callee is the statically known target of an OpCall, if any.
	Callee *Function
	Block  *Block
}

// A Block is a basic block.
type Block struct {
	Index  int
	Name   string
	Instrs []*Instr
	Term   Terminator
	Preds  []*Block
	Succs  []*Block

	fn *Function
}

func (b *Block) Func() *Function { return b.fn }

func (b *Block) String() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("b%d", b.Index)
}

// A Terminator ends a block.
type Terminator interface {
	Successors() []*Block
	isTerminator()
}

// Jump unconditionally transfers control to Target.
type Jump struct {
	Target *Block
}

// Compare is an integer comparison X Pred Y.
type Compare struct {
	Pred Predicate
	X, Y *Value
}

func (cmp Compare) String() string {
	return fmt.Sprintf("%s %s %s", cmp.X, cmp.Pred, cmp.Y)
}

// If transfers control to Then if Cond holds and to Else otherwise.
type If struct {
	Cond Compare
	Then *Block
	Else *Block
}

// Case is one arm of a Switch.
type Case struct {
	Value  *big.Int
	Target *Block
}

// Switch transfers control to the target of the case equal to On, or to
// Default.
type Switch struct {
	On      *Value
	Cases   []Case
	Default *Block
}

// Branch transfers control to one of Targets on a condition that is not
// modelled.
type Branch struct {
	Targets []*Block
}

// Return leaves the function.
type Return struct {
	Results []*Value
}

func (*Jump) isTerminator()   {}
func (*If) isTerminator()     {}
func (*Switch) isTerminator() {}
func (*Branch) isTerminator() {}
func (*Return) isTerminator() {}

func (t *Jump) Successors() []*Block   { return []*Block{t.Target} }
func (t *If) Successors() []*Block     { return []*Block{t.Then, t.Else} }
func (t *Branch) Successors() []*Block { return t.Targets }
func (t *Return) Successors() []*Block { return nil }
func (t *Switch) Successors() []*Block {
	out := make([]*Block, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		out = append(out, c.Target)
	}
	return append(out, t.Default)
}

// A Function is a list of blocks, the first of which is the entry block.
type Function struct {
	Name   string
	Params []*Value
	Blocks []*Block
	// External functions may be called from outside the module; their
	// parameters are never bound to the arguments of known call sites.
	External bool

	values []*Value
	consts map[constKey]*Value
	mod    *Module
}

type constKey struct {
	typ Type
	val string
}

func (fn *Function) Module() *Module { return fn.mod }

func (fn *Function) String() string { return fn.Name }

// Values returns all values of the function, in creation order.
func (fn *Function) Values() []*Value { return fn.values }

// Lookup returns the named value, or nil.
func (fn *Function) Lookup(name string) *Value {
	for _, v := range fn.values {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Block returns the named block, or nil.
func (fn *Function) Block(name string) *Block {
	for _, b := range fn.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Returns returns the values returned by the function's Return terminators
// at result position i.
func (fn *Function) Returns(i int) []*Value {
	var out []*Value
	for _, b := range fn.Blocks {
		if ret, ok := b.Term.(*Return); ok && i < len(ret.Results) {
			out = append(out, ret.Results[i])
		}
	}
	return out
}

// A Module is a set of functions sharing one value numbering.
type Module struct {
	Functions []*Function

	nextID int
}

// Function returns the named function, or nil.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Calls returns every call instruction in the module whose callee is fn.
func (m *Module) Calls(fn *Function) []*Instr {
	var out []*Instr
	for _, caller := range m.Functions {
		for _, b := range caller.Blocks {
			for _, instr := range b.Instrs {
				if instr.Op == OpCall && instr.Callee == fn {
					out = append(out, instr)
				}
			}
		}
	}
	return out
}

// MaxWidth returns the widest SignedWidth of any value in the functions.
func MaxWidth(fns ...*Function) int {
	w := 0
	for _, fn := range fns {
		for _, v := range fn.values {
			if v.Type.IsInteger() && v.Type.SignedWidth() > w {
				w = v.Type.SignedWidth()
			}
		}
	}
	return w
}
