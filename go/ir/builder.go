package ir

import (
	"fmt"
	"math/big"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

func NewModule() *Module {
	return &Module{}
}

// NewFunction adds an empty function to the module.
func (m *Module) NewFunction(name string) *Function {
	fn := &Function{
		Name:   name,
		consts: map[constKey]*Value{},
		mod:    m,
	}
	m.Functions = append(m.Functions, fn)
	return fn
}

func (fn *Function) newValue(name string, typ Type) *Value {
	v := &Value{
		ID:   fn.mod.nextID,
		Name: name,
		Type: typ,
		fn:   fn,
	}
	fn.mod.nextID++
	fn.values = append(fn.values, v)
	return v
}

// NewParam appends a parameter to the function.
func (fn *Function) NewParam(name string, typ Type) *Value {
	v := fn.newValue(name, typ)
	fn.Params = append(fn.Params, v)
	return v
}

// NewBlock appends a block to the function.
func (fn *Function) NewBlock(name string) *Block {
	b := &Block{
		Index: len(fn.Blocks),
		Name:  name,
		fn:    fn,
	}
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// ConstBig returns the constant c of type typ. Constants are interned per
// function.
func (fn *Function) ConstBig(typ Type, c *big.Int) *Value {
	key := constKey{typ, c.String()}
	if v, ok := fn.consts[key]; ok {
		return v
	}
	v := fn.newValue("", typ)
	v.Const = new(big.Int).Set(c)
	fn.consts[key] = v
	return v
}

func (fn *Function) Const(typ Type, c int64) *Value {
	return fn.ConstBig(typ, big.NewInt(c))
}

// Const returns the constant c of type typ in fn.
func Const[T constraints.Integer](fn *Function, typ Type, c T) *Value {
	var zero T
	n := new(big.Int)
	if zero-1 > 0 {
		n.SetUint64(uint64(c))
	} else {
		n.SetInt64(int64(c))
	}
	return fn.ConstBig(typ, n)
}

// Emit appends an instruction to the block and returns its result. A
// result is created only for instructions of integer type.
func (b *Block) Emit(op Opcode, name string, typ Type, args ...*Value) *Value {
	instr := &Instr{
		Op:    op,
		Args:  args,
		Block: b,
	}
	b.Instrs = append(b.Instrs, instr)
	if !typ.IsInteger() {
		return nil
	}
	v := b.fn.newValue(name, typ)
	v.Def = instr
	instr.Result = v
	return v
}

// Call appends a call of callee to the block.
func (b *Block) Call(name string, typ Type, callee *Function, args ...*Value) *Value {
	v := b.Emit(OpCall, name, typ, args...)
	b.Instrs[len(b.Instrs)-1].Callee = callee
	return v
}

// Opaque appends the definition of a value the analysis cannot see through.
// The hint, if not nil, bounds the value.
func (b *Block) Opaque(name string, typ Type, hint *Interval) *Value {
	v := b.Emit(OpOpaque, name, typ)
	if v != nil {
		v.Hint = hint
	}
	return v
}

func (b *Block) Sigma(name string, x *Value) *Value {
	return b.Emit(OpSigma, name, x.Type, x)
}

func (b *Block) Phi(name string, typ Type, edges ...*Value) *Value {
	return b.Emit(OpPhi, name, typ, edges...)
}

func (b *Block) setTerm(t Terminator) {
	if b.Term != nil {
		panic(fmt.Sprintf("block %s already has a terminator", b))
	}
	b.Term = t
	for _, succ := range t.Successors() {
		addEdge(b, succ)
	}
}

func addEdge(from, to *Block) {
	if slices.Contains(from.Succs, to) {
		return
	}
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

func (b *Block) Jump(target *Block) {
	b.setTerm(&Jump{Target: target})
}

func (b *Block) If(pred Predicate, x, y *Value, then, els *Block) {
	b.setTerm(&If{Cond: Compare{Pred: pred, X: x, Y: y}, Then: then, Else: els})
}

func (b *Block) Switch(on *Value, def *Block, cases ...Case) {
	b.setTerm(&Switch{On: on, Cases: cases, Default: def})
}

func (b *Block) Branch(targets ...*Block) {
	b.setTerm(&Branch{Targets: targets})
}

func (b *Block) Return(results ...*Value) {
	b.setTerm(&Return{Results: results})
}
