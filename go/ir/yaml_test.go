package ir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const countYAML = `
functions:
- name: count
  params: [{name: n, type: i32, min: "0", max: "100"}]
  blocks:
  - name: entry
    term: {jump: loop}
  - name: loop
    instrs:
    - {result: x, op: phi, type: i32, args: ["0", x.next]}
    term: {if: [x, slt, n], then: body, else: done}
  - name: body
    instrs:
    - {result: x.t, op: sigma, type: i32, args: [x]}
    - {result: x.next, op: add, type: i32, args: [x.t, "1"]}
    term: {jump: loop}
  - name: done
    instrs:
    - {result: r, op: call, type: u8, callee: pick, args: ["255:u8"]}
    term: {return: [x]}
- name: pick
  external: true
  params: [{name: p, type: u8}]
  blocks:
  - name: entry
    term:
      switch: p
      cases: [{value: "1", target: one}, {value: "2", target: one}]
      default: other
  - name: one
    term: {return: ["1:u8"]}
  - name: other
    term: {return: [p]}
`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(countYAML))
	if err != nil {
		t.Fatal(err)
	}
	fn := m.Function("count")
	if fn == nil || len(fn.Blocks) != 4 {
		t.Fatalf("count has not been decoded: %v", fn)
	}
	n := fn.Params[0]
	if n.Hint == nil || n.Hint.Lower.Int64() != 0 || n.Hint.Upper.Int64() != 100 {
		t.Errorf("hint of n = %v, want [0, 100]", n.Hint)
	}

	x := fn.Lookup("x")
	if x.Def.Op != OpPhi || x.Def.Args[1] != fn.Lookup("x.next") || x.Def.Args[0].Const.Int64() != 0 {
		t.Errorf("x is defined by %s", x.Def)
	}
	if x.Def.Args[0].Type != Int(32) {
		t.Errorf("constant has type %s, want i32", x.Def.Args[0].Type)
	}
	cond := fn.Block("loop").Term.(*If)
	if cond.Cond.Pred != SLT || cond.Cond.X != x || cond.Cond.Y != n {
		t.Errorf("loop branches on %s", cond.Cond)
	}

	call := fn.Lookup("r").Def
	if call.Callee != m.Function("pick") || call.Args[0].Type != Uint(8) || call.Args[0].Const.Int64() != 255 {
		t.Errorf("call is %s", call)
	}

	pick := m.Function("pick")
	if !pick.External {
		t.Errorf("pick is not external")
	}
	sw := pick.Blocks[0].Term.(*Switch)
	if len(sw.Cases) != 2 || sw.Default != pick.Block("other") || len(pick.Block("one").Preds) != 1 {
		t.Errorf("switch is %s", termString(sw))
	}
	if got := m.Calls(pick); len(got) != 1 {
		t.Errorf("pick has %d calls, want 1", len(got))
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.yaml")
	if err := os.WriteFile(path, []byte(countYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("decoding a missing file succeeded")
	}
}

func TestDecodeErrors(t *testing.T) {
	const prefix = "functions:\n- name: f\n  params: [{name: a, type: i8}]\n  blocks:\n  - name: entry\n"
	tt := []struct {
		body string
		want string
	}{
		{"    term: {return: []}\n    bogus: 1\n", "field bogus not found"},
		{"    instrs: [{result: x, op: frob, type: i8, args: [a]}]\n    term: {return: []}\n", `unknown opcode "frob"`},
		{"    instrs: [{result: x, op: copy, type: i8, args: [b]}]\n    term: {return: []}\n", "undefined value b"},
		{"    instrs: [{result: a, op: copy, type: i8, args: [a]}]\n    term: {return: []}\n", "value a defined twice"},
		{"    instrs: [{result: x, op: copy, type: q8, args: [a]}]\n    term: {return: []}\n", `invalid type "q8"`},
		{"    instrs: [{result: x, op: copy, type: i8, args: []}]\n    term: {return: []}\n", "want 1 operand"},
		{"    term: {}\n", "missing terminator"},
		{"    term: {jump: nowhere}\n", `undefined block "nowhere"`},
		{"    term: {if: [a, lt, a], then: entry, else: entry}\n", `unknown predicate "lt"`},
		{"    term: {if: [\"1\", slt, \"2\"], then: entry, else: entry}\n", "has no type"},
		{"    instrs: [{result: x, op: opaque, type: i8, min: foo}]\n    term: {return: []}\n", `invalid bound "foo"`},
	}
	for _, tc := range tt {
		_, err := Decode(strings.NewReader(prefix + tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Decode(%q) = %v, want error containing %q", tc.body, err, tc.want)
		}
	}
}

func TestParseType(t *testing.T) {
	tt := []struct {
		in   string
		want Type
		ok   bool
	}{
		{"i32", Int(32), true},
		{"u1", Uint(1), true},
		{"void", Type{}, true},
		{"", Type{}, true},
		{"i0", Type{}, false},
		{"int", Type{}, false},
		{"x8", Type{}, false},
	}
	for _, tc := range tt {
		got, err := ParseType(tc.in)
		if got != tc.want || (err == nil) != tc.ok {
			t.Errorf("ParseType(%q) = %v, %v, want %v, %t", tc.in, got, err, tc.want, tc.ok)
		}
	}
}

func TestDecodeBranch(t *testing.T) {
	const src = `
functions:
- name: f
  blocks:
  - name: entry
    term: {branch: [a, b]}
  - name: a
    term: {return: []}
  - name: b
    term: {return: []}
`
	m, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	entry := m.Function("f").Block("entry")
	if got := termString(entry.Term); got != "branch a, b" {
		t.Errorf("terminator = %q, want %q", got, "branch a, b")
	}
	if len(entry.Succs) != 2 {
		t.Errorf("entry has %d successors, want 2", len(entry.Succs))
	}
}
