package vrp

import (
	"fmt"
	"math/big"
)

// z is an integer extended with positive and negative infinity. Range
// arithmetic maps sentinel bounds to infinities, computes on z and maps the
// result back, so that no arithmetic is ever performed on a sentinel.
type z struct {
	infinity int8
	integer  *big.Int
}

var (
	ninf = z{infinity: -1}
	pinf = z{infinity: 1}
)

func newZ(n *big.Int) z { return z{integer: n} }

func (z1 z) infinite() bool { return z1.infinity != 0 }

func (z1 z) sign() int {
	if z1.infinity != 0 {
		return int(z1.infinity)
	}
	return z1.integer.Sign()
}

func (z1 z) neg() z {
	if z1.infinite() {
		return z{infinity: -z1.infinity}
	}
	return newZ(new(big.Int).Neg(z1.integer))
}

func (z1 z) abs() z {
	if z1.sign() < 0 {
		return z1.neg()
	}
	return z1
}

// add returns z1+z2. It reports false if the sum is undefined.
func (z1 z) add(z2 z) (z, bool) {
	switch {
	case z1.infinite() && z2.infinite():
		if z1.infinity != z2.infinity {
			return z{}, false
		}
		return z1, true
	case z1.infinite():
		return z1, true
	case z2.infinite():
		return z2, true
	default:
		return newZ(new(big.Int).Add(z1.integer, z2.integer)), true
	}
}

func (z1 z) sub(z2 z) (z, bool) {
	return z1.add(z2.neg())
}

func (z1 z) mul(z2 z) (z, bool) {
	if (!z1.infinite() && z1.integer.Sign() == 0) || (!z2.infinite() && z2.integer.Sign() == 0) {
		return newZ(new(big.Int)), true
	}
	if z1.infinite() || z2.infinite() {
		return z{infinity: int8(z1.sign() * z2.sign())}, true
	}
	return newZ(new(big.Int).Mul(z1.integer, z2.integer)), true
}

// quo returns z1/z2 truncated towards zero. z2 must not be zero.
func (z1 z) quo(z2 z) (z, bool) {
	switch {
	case z1.infinite() && z2.infinite():
		return z{}, false
	case z1.infinite():
		return z{infinity: int8(z1.sign() * z2.sign())}, true
	case z2.infinite():
		return newZ(new(big.Int)), true
	default:
		return newZ(new(big.Int).Quo(z1.integer, z2.integer)), true
	}
}

// shift returns z1 shifted left, or arithmetically right, by the
// non-negative amount z2. Amounts are capped at limit bits.
func (z1 z) shift(z2 z, left bool, limit uint) (z, bool) {
	amount := limit
	if !z2.infinite() && z2.integer.IsUint64() && z2.integer.Uint64() < uint64(limit) {
		amount = uint(z2.integer.Uint64())
	}
	switch {
	case z1.infinite() && z2.infinite():
		return z{}, false
	case z1.infinite():
		return z1, true
	case z1.integer.Sign() == 0:
		return z1, true
	case left && z2.infinite():
		return z{infinity: int8(z1.sign())}, true
	case left:
		return newZ(new(big.Int).Lsh(z1.integer, amount)), true
	default:
		return newZ(new(big.Int).Rsh(z1.integer, amount)), true
	}
}

func (z1 z) cmp(z2 z) int {
	if z1.infinity == z2.infinity && z1.infinity != 0 {
		return 0
	}
	switch {
	case z1 == pinf:
		return 1
	case z1 == ninf:
		return -1
	case z2 == ninf:
		return 1
	case z2 == pinf:
		return -1
	}
	return z1.integer.Cmp(z2.integer)
}

func minZ(z1, z2 z) z {
	if z2.cmp(z1) < 0 {
		return z2
	}
	return z1
}

func maxZ(z1, z2 z) z {
	if z2.cmp(z1) > 0 {
		return z2
	}
	return z1
}

func (z1 z) String() string {
	switch z1.infinity {
	case -1:
		return "-∞"
	case 1:
		return "∞"
	}
	return fmt.Sprintf("%d", z1.integer)
}
