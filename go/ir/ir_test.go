package ir

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestType(t *testing.T) {
	tt := []struct {
		typ      Type
		min, max int64
		signed   int
		str      string
	}{
		{Int(8), -128, 127, 8, "i8"},
		{Uint(8), 0, 255, 9, "u8"},
		{Int(32), -1 << 31, 1<<31 - 1, 32, "i32"},
	}
	for _, tc := range tt {
		if got := tc.typ.Min(); got.Int64() != tc.min {
			t.Errorf("%s.Min() = %s, want %d", tc.typ, got, tc.min)
		}
		if got := tc.typ.Max(); got.Int64() != tc.max {
			t.Errorf("%s.Max() = %s, want %d", tc.typ, got, tc.max)
		}
		if got := tc.typ.SignedWidth(); got != tc.signed {
			t.Errorf("%s.SignedWidth() = %d, want %d", tc.typ, got, tc.signed)
		}
		if got := tc.typ.String(); got != tc.str {
			t.Errorf("String() = %q, want %q", got, tc.str)
		}
	}
	if (Type{}).IsInteger() {
		t.Errorf("the zero Type is an integer type")
	}
}

func TestPredicates(t *testing.T) {
	for p := EQ; p <= UGE; p++ {
		if p.Negate().Negate() != p {
			t.Errorf("%s.Negate().Negate() = %s", p, p.Negate().Negate())
		}
		if p.Flip().Flip() != p {
			t.Errorf("%s.Flip().Flip() = %s", p, p.Flip().Flip())
		}
		if p.Negate().IsUnsigned() != p.IsUnsigned() {
			t.Errorf("negating %s changes its signedness", p)
		}
		for _, s := range []string{predicateNames[p], predicateSymbols[p]} {
			if got, ok := ParsePredicate(s); !ok || got != p {
				t.Errorf("ParsePredicate(%q) = %s, %t, want %s", s, got, ok, p)
			}
		}
	}
	if got := SLT.Flip(); got != SGT {
		t.Errorf("SLT.Flip() = %s, want %s", got, SGT)
	}
	if got := ULE.Negate(); got != UGT {
		t.Errorf("ULE.Negate() = %s, want %s", got, UGT)
	}
}

func TestOpcodes(t *testing.T) {
	for op := OpCopy; op <= OpOpaque; op++ {
		if got, ok := ParseOpcode(op.String()); !ok || got != op {
			t.Errorf("ParseOpcode(%q) = %s, %t", op.String(), got, ok)
		}
		if op.IsUnary() && op.IsBinary() {
			t.Errorf("%s is both unary and binary", op)
		}
	}
	if _, ok := ParseOpcode("frobnicate"); ok {
		t.Errorf("ParseOpcode accepted an unknown opcode")
	}
}

func TestBuilder(t *testing.T) {
	m := NewModule()
	fn := m.NewFunction("f")
	n := fn.NewParam("n", Int(32))
	entry, then, done := fn.NewBlock("entry"), fn.NewBlock("then"), fn.NewBlock("done")
	entry.If(SLT, n, fn.Const(Int(32), 10), then, done)
	nt := then.Sigma("n.t", n)
	sum := then.Emit(OpAdd, "sum", Int(32), nt, Const(fn, Int(32), uint8(1)))
	then.Jump(done)
	res := done.Phi("res", Int(32), sum, fn.Const(Int(32), 0))
	done.Return(res)

	if fn.Const(Int(32), 10) != fn.Const(Int(32), 10) {
		t.Errorf("constants are not interned")
	}
	if fn.Const(Int(32), 10) == fn.Const(Int(8), 10) {
		t.Errorf("constants of different types are interned together")
	}
	if len(done.Preds) != 2 || len(entry.Succs) != 2 {
		t.Errorf("got %d predecessors and %d successors, want 2 and 2", len(done.Preds), len(entry.Succs))
	}
	if got := fn.Lookup("sum"); got != sum || got.Def.Block != then {
		t.Errorf("Lookup(sum) = %v", got)
	}
	if got := fn.Returns(0); len(got) != 1 || got[0] != res {
		t.Errorf("Returns(0) = %v, want [res]", got)
	}
	if v := then.Emit(OpStore, "", Type{}, nt); v != nil {
		t.Errorf("Emit of an untracked type returned %v", v)
	}
	if err := Verify(fn); err != nil {
		t.Errorf("Verify: %s", err)
	}

	var buf bytes.Buffer
	if err := WriteFunction(&buf, fn); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"func f(n i32):",
		"if n < 10 then then else done",
		"sum = add i32 n.t, 1",
		"done: ; preds entry, then",
		"res = phi i32 sum, 0",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("listing does not contain %q:\n%s", want, buf.String())
		}
	}

	defer func() {
		if recover() == nil {
			t.Errorf("setting a second terminator did not panic")
		}
	}()
	done.Jump(entry)
}

func TestVerify(t *testing.T) {
	fn := NewModule().NewFunction("bad")
	entry, join := fn.NewBlock("entry"), fn.NewBlock("join")
	x := fn.NewParam("x", Int(8))
	entry.If(EQ, x, fn.Const(Int(8), 0), join, join)
	join.Sigma("x.j", x)
	join.Emit(OpAdd, "y", Int(8), x)
	other := NewModule().NewFunction("other").NewParam("z", Int(8))
	join.Emit(OpCopy, "w", Int(8), other)
	join.Phi("p", Int(8))
	fn.NewBlock("unterminated")
	join.Return()

	err := Verify(fn)
	var verr VerifyError
	if !errors.As(err, &verr) {
		t.Fatalf("Verify returned %v, want a VerifyError", err)
	}
	for _, want := range []string{
		"y = add: want 2 operands, got 1",
		"w = copy: operand z belongs to another function",
		"p = phi: phi without operands",
		"block unterminated has no terminator",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("errors do not contain %q:\n%s", want, err)
		}
	}
	if err := Verify(NewModule().NewFunction("empty")); err == nil {
		t.Errorf("Verify accepted a function without blocks")
	}
}

func TestMaxWidth(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f")
	f.NewParam("a", Int(16))
	g := m.NewFunction("g")
	g.NewParam("b", Uint(32))
	if got := MaxWidth(f, g); got != 33 {
		t.Errorf("MaxWidth = %d, want 33", got)
	}
	if got := MaxWidth(); got != 0 {
		t.Errorf("MaxWidth() = %d, want 0", got)
	}
}

func TestCalls(t *testing.T) {
	m := NewModule()
	callee := m.NewFunction("callee")
	caller := m.NewFunction("caller")
	b := caller.NewBlock("entry")
	b.Call("r", Int(32), callee, const32(caller, 4))
	b.Call("", Type{}, nil)
	b.Return()
	if got := m.Calls(callee); len(got) != 1 || got[0].Result.Name != "r" {
		t.Errorf("Calls(callee) = %v", got)
	}
	if m.Function("caller") != caller || m.Function("nope") != nil {
		t.Errorf("Function returned the wrong function")
	}
}

func const32(fn *Function, n int64) *Value {
	return fn.ConstBig(Int(32), big.NewInt(n))
}
