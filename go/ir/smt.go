package ir

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// A Component is a term of an SMT-LIB formula over the values of a
// function. Values are modelled as mathematical integers; arithmetic does
// not wrap.
type Component interface {
	String() string
	isComponent()
}

func (And) isComponent()  {}
func (Or) isComponent()   {}
func (Ref) isComponent()  {}
func (Expr) isComponent() {}
func (Lit) isComponent()  {}
func (Name) isComponent() {}
func (True) isComponent() {}

type And []Component

func (and And) String() string { return nary("and", and) }

type Or []Component

func (or Or) String() string { return nary("or", or) }

func nary(op string, cs []Component) string {
	switch len(cs) {
	case 0:
		if op == "or" {
			return "false"
		}
		return "true"
	case 1:
		return cs[0].String()
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return fmt.Sprintf("(%s %s)", op, strings.Join(parts, " "))
}

// Ref refers to the constraint defining Value.
type Ref struct {
	Value *Value
}

func (ref Ref) String() string { return fmt.Sprintf("|r%s|", ref.Value) }

// Expr applies an SMT-LIB operator to two terms.
type Expr struct {
	Op   string
	X, Y Component
}

func (expr Expr) String() string {
	if expr.Op == "distinct" {
		return fmt.Sprintf("(not (= %s %s))", expr.X, expr.Y)
	}
	return fmt.Sprintf("(%s %s %s)", expr.Op, expr.X, expr.Y)
}

type Lit struct {
	N *big.Int
}

func (k Lit) String() string {
	if k.N.Sign() < 0 {
		return fmt.Sprintf("(- %s)", new(big.Int).Neg(k.N))
	}
	return k.N.String()
}

// Name is a value used as a term. Constants are written as literals.
type Name struct {
	Value *Value
}

func (n Name) String() string {
	if n.Value.IsConst() {
		return Lit{n.Value.Const}.String()
	}
	return fmt.Sprintf("|%s|", n.Value)
}

type True struct{}

func (True) String() string { return "true" }

var smtPredicates = map[Predicate]string{
	EQ:  "=",
	NE:  "distinct",
	SLT: "<",
	SLE: "<=",
	SGT: ">",
	SGE: ">=",
}

var smtOps = map[Opcode]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
}

func ref(v *Value) Component {
	if v.IsConst() {
		return True{}
	}
	return Ref{v}
}

func condition(cmp Compare, taken bool) Component {
	pred := cmp.Pred
	if !taken {
		pred = pred.Negate()
	}
	op, ok := smtPredicates[pred]
	if !ok {
		// Unsigned comparisons of mathematical integers are not modelled.
		return True{}
	}
	return Expr{op, Name{cmp.X}, Name{cmp.Y}}
}

// branchCondition returns what holds on entry to b, which has a single
// predecessor.
func branchCondition(b *Block) Component {
	if len(b.Preds) != 1 {
		return True{}
	}
	switch t := b.Preds[0].Term.(type) {
	case *If:
		if !t.Cond.X.Type.IsInteger() || t.Then == t.Else {
			return True{}
		}
		return And{condition(t.Cond, b == t.Then), ref(t.Cond.X), ref(t.Cond.Y)}
	case *Switch:
		if b == t.Default {
			return True{}
		}
		var or Or
		for _, c := range t.Cases {
			if c.Target == b {
				or = append(or, Expr{"=", Name{t.On}, Lit{c.Value}})
			}
		}
		return And{or, ref(t.On)}
	default:
		return True{}
	}
}

// Constraints returns, for every integer value of fn defined by an
// instruction, the constraint the definition places on it. Values without
// an entry are only bounded by their type and hint.
func Constraints(fn *Function) map[*Value]Component {
	preds := map[*Value]Component{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			v := instr.Result
			if v == nil {
				continue
			}
			switch op := instr.Op; {
			case op == OpSigma:
				x := instr.Args[0]
				preds[v] = And{branchCondition(b), Expr{"=", Name{v}, Name{x}}, ref(x)}
			case op == OpCopy || op == OpSExt || op == OpLoad || op == OpStore:
				x := instr.Args[0]
				preds[v] = And{Expr{"=", Name{v}, Name{x}}, ref(x)}
			case smtOps[op] != "":
				x, y := instr.Args[0], instr.Args[1]
				preds[v] = And{
					Expr{"=", Name{v}, Expr{smtOps[op], Name{x}, Name{y}}},
					ref(x),
					ref(y),
				}
			case op == OpPhi:
				var or Or
				for _, edge := range instr.Args {
					or = append(or, And{Expr{"=", Name{v}, Name{edge}}, ref(edge)})
				}
				preds[v] = or
			}
		}
	}
	return preds
}

// WriteSMT writes an SMT-LIB script asserting the constraint of target,
// followed by the given assertions. Constraints that refer back into a
// cycle of definitions are dropped, so a satisfiable script only proves
// something about loop-free code.
func WriteSMT(w io.Writer, target *Value, assertions ...Component) error {
	preds := Constraints(target.Func())
	const (
		visiting = 1
		done     = 2
	)
	state := map[*Value]int{}
	var decls, defs bytes.Buffer
	declared := map[*Value]bool{}

	declare := func(v *Value) {
		if v.IsConst() || declared[v] {
			return
		}
		declared[v] = true
		fmt.Fprintf(&decls, "(declare-const %s Int)\n", Name{v})
		if v.Type.IsInteger() {
			fmt.Fprintf(&decls, "(assert (and (<= %s %s) (<= %s %s)))\n", Lit{v.Type.Min()}, Name{v}, Name{v}, Lit{v.Type.Max()})
		}
		if h := v.Hint; h != nil {
			if h.Lower != nil {
				fmt.Fprintf(&decls, "(assert (<= %s %s))\n", Lit{h.Lower}, Name{v})
			}
			if h.Upper != nil {
				fmt.Fprintf(&decls, "(assert (<= %s %s))\n", Name{v}, Lit{h.Upper})
			}
		}
	}

	var visit func(v *Value)
	var cut func(c Component) Component
	cut = func(c Component) Component {
		switch c := c.(type) {
		case Ref:
			if state[c.Value] == visiting {
				return True{}
			}
			visit(c.Value)
			return c
		case Name:
			declare(c.Value)
			return c
		case And:
			out := make(And, len(c))
			for i, c := range c {
				out[i] = cut(c)
			}
			return out
		case Or:
			out := make(Or, len(c))
			for i, c := range c {
				out[i] = cut(c)
			}
			return out
		case Expr:
			return Expr{c.Op, cut(c.X), cut(c.Y)}
		default:
			return c
		}
	}
	visit = func(v *Value) {
		if state[v] != 0 {
			return
		}
		state[v] = visiting
		declare(v)
		var pred Component = True{}
		if p, ok := preds[v]; ok {
			pred = cut(p)
		}
		state[v] = done
		fmt.Fprintf(&defs, "(define-fun %s () Bool %s)\n", Ref{v}, pred)
	}

	visit(target)
	var asserts bytes.Buffer
	fmt.Fprintf(&asserts, "(assert %s)\n", Ref{target})
	for _, a := range assertions {
		fmt.Fprintf(&asserts, "(assert %s)\n", cut(a))
	}
	asserts.WriteString("(check-sat)\n")

	for _, buf := range []*bytes.Buffer{&decls, &defs, &asserts} {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
