// Package irssa converts functions in golang.org/x/tools/go/ssa form into
// the IR analysed by package vrp.
//
// Every integer-valued SSA value becomes an IR value whose type represents
// all of its values exactly: unsigned types get an additional bit. Values
// whose computation is not modelled become opaque values bounded by their
// type. The successors of conditional branches on integer comparisons start
// with sigma instructions, and uses dominated by a sigma refer to it.
package irssa

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"math/big"

	"golang.org/x/tools/go/ssa"

	"honnef.co/go/vrp/go/ir"
	"honnef.co/go/vrp/go/types/typeutil"
)

// A Function is the IR of an SSA function.
type Function struct {
	SSA *ssa.Function
	IR  *ir.Function

	b      *Builder
	blocks []*ir.Block
	values map[ssa.Value]*ir.Value
	// sigmas[b][v] is the sigma of v at the start of b.
	sigmas map[*ssa.BasicBlock]map[ssa.Value]*ir.Value
}

// A Builder converts the functions of one program into a single IR module,
// so that calls between converted functions can be bound.
type Builder struct {
	Module *ir.Module
	// External reports whether fn may be called by code that is not
	// converted. If nil, exported functions and closures are external.
	External func(fn *ssa.Function) bool
	// ResultHint, if not nil, may bound the result of calls to callee
	// beyond its type.
	ResultHint func(callee *ssa.Function, typ ir.Type) *ir.Interval

	sizes types.Sizes
	decls map[*ssa.Function]*ir.Function
	funcs map[*ssa.Function]*Function
}

func NewBuilder(sizes types.Sizes) *Builder {
	if sizes == nil {
		sizes = types.SizesFor("gc", "amd64")
	}
	return &Builder{
		Module: ir.NewModule(),
		sizes:  sizes,
		decls:  map[*ssa.Function]*ir.Function{},
		funcs:  map[*ssa.Function]*Function{},
	}
}

// Type returns the IR type of values of type t.
func (b *Builder) Type(t types.Type) (ir.Type, bool) {
	in, ok := typeutil.IntegerOf(t, b.sizes)
	if !ok {
		return ir.Type{}, false
	}
	return ir.Type{Width: in.Width, Unsigned: in.Unsigned}, true
}

func typeHint(typ ir.Type) *ir.Interval {
	return &ir.Interval{Lower: typ.Min(), Upper: typ.Max()}
}

func (b *Builder) isExternal(fn *ssa.Function) bool {
	if len(fn.Blocks) == 0 {
		return true
	}
	if b.External != nil {
		return b.External(fn)
	}
	return fn.Parent() != nil || token.IsExported(fn.Name())
}

// declare returns the IR function of fn, creating it and its integer
// parameters if necessary.
func (b *Builder) declare(fn *ssa.Function) *ir.Function {
	if irfn, ok := b.decls[fn]; ok {
		return irfn
	}
	irfn := b.Module.NewFunction(fn.RelString(nil))
	irfn.External = b.isExternal(fn)
	for _, p := range fn.Params {
		if typ, ok := b.Type(p.Type()); ok {
			irfn.NewParam(p.Name(), typ).Hint = typeHint(typ)
		}
	}
	b.decls[fn] = irfn
	return irfn
}

// Function returns the converted fn, if it has been built.
func (b *Builder) Function(fn *ssa.Function) (*Function, bool) {
	f, ok := b.funcs[fn]
	return f, ok
}

// Value returns the IR value of v, without regard to sigmas. It returns nil
// for values that are not integers or not known to the function.
func (f *Function) Value(v ssa.Value) *ir.Value {
	return f.values[v]
}

// ValueAt returns the IR value that stands for v in block b: the sigma of v
// in the nearest dominator of b that has one, or v itself.
func (f *Function) ValueAt(v ssa.Value, b *ssa.BasicBlock) *ir.Value {
	for dom := b; dom != nil; dom = dom.Idom() {
		if s, ok := f.sigmas[dom][v]; ok {
			return s
		}
	}
	return f.values[v]
}

// Block returns the IR block of b.
func (f *Function) Block(b *ssa.BasicBlock) *ir.Block {
	return f.blocks[b.Index]
}

// value is like ValueAt, but creates constants and opaque values for free
// variables on first use.
func (f *Function) value(v ssa.Value, at *ssa.BasicBlock) *ir.Value {
	if irv := f.ValueAt(v, at); irv != nil {
		return irv
	}
	typ, ok := f.b.Type(v.Type())
	if !ok {
		return nil
	}
	var irv *ir.Value
	if k, ok := v.(*ssa.Const); ok {
		irv = f.IR.ConstBig(typ, ConstInt(k))
	} else {
		irv = f.blocks[0].Opaque(v.Name(), typ, typeHint(typ))
	}
	f.values[v] = irv
	return irv
}

// ConstInt returns the value of the integer constant k.
func ConstInt(k *ssa.Const) *big.Int {
	n := new(big.Int)
	if k.Value == nil {
		return n
	}
	n.SetString(constant.ToInt(k.Value).ExactString(), 10)
	return n
}

var predicates = map[token.Token]ir.Predicate{
	token.EQL: ir.EQ,
	token.NEQ: ir.NE,
	token.LSS: ir.SLT,
	token.LEQ: ir.SLE,
	token.GTR: ir.SGT,
	token.GEQ: ir.SGE,
}

// comparison returns the integer comparison that b branches on.
func (b *Builder) comparison(bb *ssa.BasicBlock) (*ssa.BinOp, bool) {
	cond, ok := bb.Instrs[len(bb.Instrs)-1].(*ssa.If)
	if !ok || bb.Succs[0] == bb.Succs[1] {
		return nil, false
	}
	cmp, ok := cond.Cond.(*ssa.BinOp)
	if !ok {
		return nil, false
	}
	if _, ok := predicates[cmp.Op]; !ok {
		return nil, false
	}
	if _, ok := b.Type(cmp.X.Type()); !ok {
		return nil, false
	}
	return cmp, true
}

type operand struct {
	v  ssa.Value
	at *ssa.BasicBlock
	// fixed, if not nil, is used instead of v.
	fixed *ir.Value
}

type pending struct {
	instr *ir.Instr
	ops   []operand
}

// Build converts fn. It returns nil for functions without blocks.
func (b *Builder) Build(fn *ssa.Function) *Function {
	if f, ok := b.funcs[fn]; ok {
		return f
	}
	if len(fn.Blocks) == 0 {
		return nil
	}
	f := &Function{
		SSA:    fn,
		IR:     b.declare(fn),
		b:      b,
		values: map[ssa.Value]*ir.Value{},
		sigmas: map[*ssa.BasicBlock]map[ssa.Value]*ir.Value{},
	}
	b.funcs[fn] = f

	i := 0
	for _, p := range fn.Params {
		if _, ok := b.Type(p.Type()); ok {
			f.values[p] = f.IR.Params[i]
			i++
		}
	}
	for _, bb := range fn.Blocks {
		f.blocks = append(f.blocks, f.IR.NewBlock(fmt.Sprintf("%s.%d", bb.Comment, bb.Index)))
	}

	var todo []pending
	todo = append(todo, f.addSigmas()...)
	for _, bb := range fn.Blocks {
		for _, instr := range bb.Instrs {
			v, ok := instr.(ssa.Value)
			if !ok {
				continue
			}
			typ, ok := b.Type(v.Type())
			if !ok {
				continue
			}
			if p, ok := f.addValue(v, typ); ok {
				todo = append(todo, p)
			}
		}
	}

	for _, p := range todo {
		args := make([]*ir.Value, len(p.ops))
		for i, o := range p.ops {
			if o.fixed != nil {
				args[i] = o.fixed
			} else if args[i] = f.value(o.v, o.at); args[i] == nil {
				args = nil
				p.instr.Op = ir.OpOpaque
				p.instr.Result.Hint = typeHint(p.instr.Result.Type)
				break
			}
		}
		p.instr.Args = args
	}

	for _, bb := range fn.Blocks {
		f.addTerminator(bb)
	}
	return f
}

// addSigmas emits the sigmas at the start of the successors of integer
// comparisons.
func (f *Function) addSigmas() []pending {
	var todo []pending
	for _, bb := range f.SSA.Blocks {
		cmp, ok := f.b.comparison(bb)
		if !ok {
			continue
		}
		for _, succ := range bb.Succs {
			if len(succ.Preds) != 1 {
				continue
			}
			for _, v := range [2]ssa.Value{cmp.X, cmp.Y} {
				if _, ok := v.(*ssa.Const); ok {
					continue
				}
				if _, ok := f.sigmas[succ][v]; ok {
					continue
				}
				typ, _ := f.b.Type(v.Type())
				s := f.blocks[succ.Index].Emit(ir.OpSigma, fmt.Sprintf("%s.%d", v.Name(), succ.Index), typ)
				if f.sigmas[succ] == nil {
					f.sigmas[succ] = map[ssa.Value]*ir.Value{}
				}
				f.sigmas[succ][v] = s
				todo = append(todo, pending{s.Def, []operand{{v: v, at: bb}}})
			}
		}
	}
	return todo
}

var binops = map[token.Token][2]ir.Opcode{
	token.ADD: {ir.OpAdd, ir.OpAdd},
	token.SUB: {ir.OpSub, ir.OpSub},
	token.MUL: {ir.OpMul, ir.OpMul},
	token.QUO: {ir.OpSDiv, ir.OpUDiv},
	token.REM: {ir.OpSRem, ir.OpURem},
	token.SHL: {ir.OpShl, ir.OpShl},
	token.SHR: {ir.OpAShr, ir.OpLShr},
	token.AND: {ir.OpAnd, ir.OpAnd},
	token.OR:  {ir.OpOr, ir.OpOr},
	token.XOR: {ir.OpXor, ir.OpXor},
}

// addValue emits the definition of v. The operands are resolved once every
// value has been emitted.
func (f *Function) addValue(v ssa.Value, typ ir.Type) (pending, bool) {
	bb := v.(ssa.Instruction).Block()
	irb := f.blocks[bb.Index]
	emit := func(op ir.Opcode, ops ...operand) (pending, bool) {
		res := irb.Emit(op, v.Name(), typ)
		f.values[v] = res
		return pending{res.Def, ops}, true
	}
	use := func(v ssa.Value) operand { return operand{v: v, at: bb} }
	opaque := func(hint *ir.Interval) (pending, bool) {
		f.values[v] = irb.Opaque(v.Name(), typ, hint)
		return pending{}, false
	}

	switch v := v.(type) {
	case *ssa.BinOp:
		ops, ok := binops[v.Op]
		if !ok {
			break
		}
		op := ops[0]
		if typ.Unsigned {
			op = ops[1]
		}
		return emit(op, use(v.X), use(v.Y))
	case *ssa.UnOp:
		switch {
		case v.Op == token.SUB && !typ.Unsigned:
			return emit(ir.OpSub, operand{fixed: f.IR.Const(typ, 0)}, use(v.X))
		case v.Op == token.XOR:
			// ^x is -1-x for signed and max-x for unsigned integers.
			c := big.NewInt(-1)
			if typ.Unsigned {
				c = typ.Max()
			}
			return emit(ir.OpSub, operand{fixed: f.IR.ConstBig(typ, c)}, use(v.X))
		}
	case *ssa.Convert:
		if _, ok := f.b.Type(v.X.Type()); ok {
			return emit(ir.OpCast, use(v.X))
		}
	case *ssa.ChangeType:
		return emit(ir.OpCopy, use(v.X))
	case *ssa.Phi:
		ops := make([]operand, len(v.Edges))
		for i, edge := range v.Edges {
			ops[i] = operand{v: edge, at: bb.Preds[i]}
		}
		return emit(ir.OpPhi, ops...)
	case *ssa.Call:
		if builtin, ok := v.Call.Value.(*ssa.Builtin); ok {
			switch builtin.Name() {
			case "len", "cap":
				return opaque(&ir.Interval{Lower: new(big.Int), Upper: typ.Max()})
			}
			break
		}
		callee := v.Call.StaticCallee()
		if callee == nil {
			break
		}
		var ops []operand
		for i, p := range callee.Params {
			if _, ok := f.b.Type(p.Type()); ok && i < len(v.Call.Args) {
				ops = append(ops, use(v.Call.Args[i]))
			}
		}
		p, ok := emit(ir.OpCall, ops...)
		p.instr.Callee = f.b.declare(callee)
		p.instr.Result.Hint = typeHint(typ)
		if f.b.ResultHint != nil {
			if hint := f.b.ResultHint(callee, typ); hint != nil {
				p.instr.Result.Hint = hint
			}
		}
		return p, ok
	}
	return opaque(typeHint(typ))
}

func (f *Function) addTerminator(bb *ssa.BasicBlock) {
	irb := f.blocks[bb.Index]
	succ := func(i int) *ir.Block { return f.blocks[bb.Succs[i].Index] }
	switch t := bb.Instrs[len(bb.Instrs)-1].(type) {
	case *ssa.Jump:
		irb.Jump(succ(0))
	case *ssa.If:
		cmp, ok := f.b.comparison(bb)
		if !ok {
			irb.Branch(succ(0), succ(1))
			return
		}
		x, y := f.value(cmp.X, bb), f.value(cmp.Y, bb)
		irb.If(predicates[cmp.Op], x, y, succ(0), succ(1))
	case *ssa.Return:
		if len(t.Results) == 1 {
			if v := f.value(t.Results[0], bb); v != nil {
				irb.Return(v)
				return
			}
		}
		irb.Return()
	default:
		// panics
		irb.Return()
	}
}
