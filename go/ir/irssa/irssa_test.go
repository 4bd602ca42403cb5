package irssa

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"honnef.co/go/vrp/go/ir"
	"honnef.co/go/vrp/go/vrp"
)

func buildPackage(t *testing.T, src string) *ssa.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	pkg := types.NewPackage("p", "")
	conf := &types.Config{Importer: importer.Default()}
	spkg, _, err := ssautil.BuildPackage(conf, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatal(err)
	}
	return spkg
}

// returned returns the IR value of the single result of the return in
// fn that is reached first in block order.
func returned(t *testing.T, f *Function) *ir.Value {
	t.Helper()
	for _, b := range f.SSA.Blocks {
		if ret, ok := b.Instrs[len(b.Instrs)-1].(*ssa.Return); ok && len(ret.Results) == 1 {
			if v := f.ValueAt(ret.Results[0], b); v != nil {
				return v
			}
			if k, ok := ret.Results[0].(*ssa.Const); ok {
				t.Fatalf("%s returns the constant %s", f.SSA, k)
			}
		}
	}
	t.Fatalf("%s has no integer return", f.SSA)
	return nil
}

func analyze(t *testing.T, src, name string) (*Function, *vrp.Graph) {
	t.Helper()
	pkg := buildPackage(t, src)
	b := NewBuilder(nil)
	f := b.Build(pkg.Func(name))
	if err := ir.Verify(f.IR); err != nil {
		t.Fatalf("invalid IR: %s\n%s", err, listing(f.IR))
	}
	return f, vrp.Analyze(f.IR, vrp.Options{})
}

func listing(fn *ir.Function) string {
	var sb strings.Builder
	ir.WriteFunction(&sb, fn)
	return sb.String()
}

func TestLoop(t *testing.T) {
	const src = `package p

func count() int {
	x := 0
	for x < 10 {
		x++
	}
	return x
}`
	f, g := analyze(t, src, "count")
	if got := g.Range(returned(t, f)).String(); got != "[10, 10]" {
		t.Errorf("count returns %s, want [10, 10]\n%s", got, listing(f.IR))
	}
}

func TestNestedConditions(t *testing.T) {
	const src = `package p

func f(x int8) int8 {
	if x >= 0 && x < 5 {
		return ^x
	}
	return 0
}`
	f, g := analyze(t, src, "f")
	if got := g.Range(returned(t, f)).String(); got != "[-5, -1]" {
		t.Errorf("^x = %s, want [-5, -1]\n%s", got, listing(f.IR))
	}
}

func TestOverflow(t *testing.T) {
	const src = `package p

func f(x int8) int8 {
	if x > 100 {
		return x + 100
	}
	return 0
}`
	f, g := analyze(t, src, "f")
	if got := g.Range(returned(t, f)); !got.IsMaxRange() {
		t.Errorf("x + 100 = %s, want every int8\n%s", got, listing(f.IR))
	}
}

func TestUnsigned(t *testing.T) {
	const src = `package p

func f(x uint8) uint8 {
	if x < 10 {
		return x
	}
	return 0
}`
	f, g := analyze(t, src, "f")
	if w := g.Config().BitWidth; w != 9 {
		t.Errorf("bit width = %d, want 9", w)
	}
	if got := g.Range(returned(t, f)).String(); got != "[0, 9]" {
		t.Errorf("x = %s, want [0, 9]\n%s", got, listing(f.IR))
	}
	x := f.Value(f.SSA.Params[0])
	if got := g.Range(x).String(); got != "[0, ∞]" {
		t.Errorf("parameter x = %s, want [0, ∞]", got)
	}
}

func TestLen(t *testing.T) {
	const src = `package p

func f(s []int) int { return len(s) }`
	f, g := analyze(t, src, "f")
	if len(f.IR.Params) != 0 {
		t.Errorf("non-integer parameters were converted: %v", f.IR.Params)
	}
	if got := g.Range(returned(t, f)).String(); got != "[0, ∞]" {
		t.Errorf("len(s) = %s, want [0, ∞]", got)
	}
}

func TestCalls(t *testing.T) {
	const src = `package p

func inc(x int) int { return x + 1 }

func caller() int { return inc(3) + inc(5) }

func Exported(x int) int { return inc(x) }`
	pkg := buildPackage(t, src)
	b := NewBuilder(nil)
	inc := b.Build(pkg.Func("inc"))
	caller := b.Build(pkg.Func("caller"))
	if inc.IR.External || caller.IR.External {
		t.Errorf("unexported functions are external")
	}
	g := vrp.AnalyzeModule(b.Module, vrp.Options{})
	if got := g.Range(returned(t, caller)).String(); got != "[8, 12]" {
		t.Errorf("caller returns %s, want [8, 12]", got)
	}

	exp := b.Build(pkg.Func("Exported"))
	if !exp.IR.External {
		t.Errorf("Exported is not external")
	}
	g = vrp.AnalyzeModule(b.Module, vrp.Options{})
	if got := g.Range(returned(t, inc)); !got.IsMaxRange() {
		t.Errorf("inc returns %s after an external caller was added", got)
	}
	if f, ok := b.Function(pkg.Func("inc")); !ok || f != inc {
		t.Errorf("Function(inc) = %v, %t", f, ok)
	}
}

func TestBranchWithoutComparison(t *testing.T) {
	const src = `package p

func f(b bool, x int) int {
	if b {
		x = 1
	}
	return x
}`
	f, _ := analyze(t, src, "f")
	if _, ok := f.IR.Blocks[0].Term.(*ir.Branch); !ok {
		t.Errorf("entry ends in %T, want *ir.Branch", f.IR.Blocks[0].Term)
	}
}
