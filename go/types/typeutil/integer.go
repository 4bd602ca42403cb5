package typeutil

import (
	"go/types"

	"golang.org/x/exp/typeparams"
)

// Integer describes the representation of an integer type.
type Integer struct {
	// Width is the size of the type in bits.
	Width    int
	Unsigned bool
}

// SignedWidth returns the number of bits needed to hold every value of the
// type as a two's complement integer.
func (in Integer) SignedWidth() int {
	if in.Unsigned {
		return in.Width + 1
	}
	return in.Width
}

// All reports whether fn holds for all terms. An empty term list denotes
// the type set of all types and is passed to fn as a nil term.
func All(terms []*typeparams.Term, fn func(*typeparams.Term) bool) bool {
	if len(terms) == 0 {
		return fn(nil)
	}
	for _, term := range terms {
		if !fn(term) {
			return false
		}
	}
	return true
}

// IntegerOf reports how values of type t are represented, if t is an
// integer type. For a type parameter, the result holds every value of every
// type in its type set.
func IntegerOf(t types.Type, sizes types.Sizes) (Integer, bool) {
	tp, ok := t.(*typeparams.TypeParam)
	if !ok {
		return basicInteger(t, sizes)
	}
	terms, err := typeparams.NormalTerms(tp)
	if err != nil {
		return Integer{}, false
	}
	var out Integer
	signed, unsigned := false, false
	ok = All(terms, func(term *typeparams.Term) bool {
		if term == nil {
			return false
		}
		in, ok := basicInteger(term.Type(), sizes)
		if !ok {
			return false
		}
		if in.Unsigned {
			unsigned = true
		} else {
			signed = true
		}
		if in.Width > out.Width {
			out.Width = in.Width
		}
		return true
	})
	if !ok {
		return Integer{}, false
	}
	out.Unsigned = unsigned && !signed
	if signed && unsigned {
		// Mixed signedness needs room for the largest unsigned value.
		for _, term := range terms {
			in, _ := basicInteger(term.Type(), sizes)
			if w := in.SignedWidth(); w > out.Width {
				out.Width = w
			}
		}
	}
	return out, true
}

func basicInteger(t types.Type, sizes types.Sizes) (Integer, bool) {
	b, ok := t.Underlying().(*types.Basic)
	if !ok || b.Info()&types.IsInteger == 0 || b.Info()&types.IsUntyped != 0 {
		return Integer{}, false
	}
	return Integer{
		Width:    int(sizes.Sizeof(b)) * 8,
		Unsigned: b.Info()&types.IsUnsigned != 0,
	}, true
}
