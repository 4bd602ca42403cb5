package ranges

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	old := Analysis.Flags.Lookup(name).Value.String()
	if err := Analysis.Flags.Set(name, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Analysis.Flags.Set(name, old) })
}

func TestRanges(t *testing.T) {
	setFlag(t, "print", "true")
	results := analysistest.Run(t, analysistest.TestData(), Analysis, "a", "b")

	res := results[0].Result.(*Result)
	pkg := results[0].Pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA).Pkg
	clamp := pkg.Func("clamp")
	if got, ok := res.Range(clamp.Params[0]); !ok || !got.IsMaxRange() {
		t.Errorf("Range(x) = %s, %t, want unbounded", got, ok)
	}
	if _, ok := res.Range(pkg.Func("Limit")); ok {
		t.Errorf("Range of a function succeeded")
	}
}

func TestIntraprocedural(t *testing.T) {
	setFlag(t, "print", "true")
	setFlag(t, "intraprocedural", "true")
	analysistest.Run(t, analysistest.TestData(), Analysis, "c")
}

func TestCrop(t *testing.T) {
	setFlag(t, "print", "true")
	setFlag(t, "narrowing", "crop")
	analysistest.Run(t, analysistest.TestData(), Analysis, "a")
}
