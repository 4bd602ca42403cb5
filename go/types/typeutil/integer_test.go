//go:build go1.18

package typeutil

import (
	"go/types"
	"testing"
)

func typeParam(terms ...*types.Term) *types.TypeParam {
	iface := types.NewInterfaceType(nil, []types.Type{types.NewUnion(terms)})
	return types.NewTypeParam(types.NewTypeName(0, nil, "T", nil), iface)
}

func TestIntegerOf(t *testing.T) {
	sizes := &types.StdSizes{WordSize: 8, MaxAlign: 8}
	pkg := types.NewPackage("pkg", "pkg")
	TInt := types.Typ[types.Int]
	TInt8 := types.Typ[types.Int8]
	TUint8 := types.Typ[types.Uint8]
	TUint32 := types.Typ[types.Uint32]
	TMyInt := types.NewNamed(types.NewTypeName(0, pkg, "MyInt", nil), types.Typ[types.Int16], nil)

	tt := []struct {
		typ  types.Type
		want Integer
		ok   bool
	}{
		{TInt, Integer{64, false}, true},
		{TUint8, Integer{8, true}, true},
		{TMyInt, Integer{16, false}, true},
		{types.Typ[types.String], Integer{}, false},
		{types.Typ[types.UntypedInt], Integer{}, false},
		{types.NewPointer(TInt), Integer{}, false},
		{typeParam(types.NewTerm(true, TInt8), types.NewTerm(false, TInt)), Integer{64, false}, true},
		{typeParam(types.NewTerm(false, TUint8), types.NewTerm(false, TUint32)), Integer{32, true}, true},
		// int8 and uint8 need nine bits between them
		{typeParam(types.NewTerm(false, TInt8), types.NewTerm(false, TUint8)), Integer{9, false}, true},
		{typeParam(types.NewTerm(false, TInt8), types.NewTerm(false, types.Typ[types.String])), Integer{}, false},
	}

	for _, tc := range tt {
		got, ok := IntegerOf(tc.typ, sizes)
		if got != tc.want || ok != tc.ok {
			t.Errorf("IntegerOf(%v) = %v, %t, want %v, %t", tc.typ, got, ok, tc.want, tc.ok)
		}
	}
}
