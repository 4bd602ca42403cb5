package vrp

import (
	"fmt"
	"math/big"

	"golang.org/x/exp/constraints"

	"honnef.co/go/vrp/go/ir"
)

// DefaultBitWidth is used for programs that contain no integer values.
const DefaultBitWidth = 64

// Config holds the sentinels of one analysis run. NegInf and PosInf are the
// smallest and largest signed integers of BitWidth bits; a bound equal to a
// sentinel means that side of an interval is unbounded.
type Config struct {
	BitWidth int
	NegInf   *big.Int
	PosInf   *big.Int
}

func NewConfig(bitWidth int) *Config {
	if bitWidth <= 0 {
		bitWidth = DefaultBitWidth
	}
	if bitWidth < 2 {
		bitWidth = 2
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(bitWidth-1))
	min := new(big.Int).Neg(max)
	max.Sub(max, big.NewInt(1))
	return &Config{
		BitWidth: bitWidth,
		NegInf:   min,
		PosInf:   max,
	}
}

// Range is a closed interval of integers. Ranges are values; no operation
// modifies its operands.
type Range struct {
	cfg          *Config
	lower, upper *big.Int
	empty        bool
}

// Empty returns the empty range.
func (cfg *Config) Empty() Range {
	return Range{cfg: cfg, lower: cfg.PosInf, upper: cfg.NegInf, empty: true}
}

// Max returns the range [NegInf, PosInf].
func (cfg *Config) Max() Range {
	return Range{cfg: cfg, lower: cfg.NegInf, upper: cfg.PosInf}
}

// NewRange returns [lower, upper], with bounds clamped to the sentinels. A
// nil bound is unbounded. If lower > upper, the range is empty.
func (cfg *Config) NewRange(lower, upper *big.Int) Range {
	if lower == nil {
		lower = cfg.NegInf
	}
	if upper == nil {
		upper = cfg.PosInf
	}
	lower, upper = cfg.clamp(lower), cfg.clamp(upper)
	if lower.Cmp(upper) > 0 {
		return cfg.Empty()
	}
	return Range{cfg: cfg, lower: lower, upper: upper}
}

// Singleton returns [n, n].
func (cfg *Config) Singleton(n *big.Int) Range {
	return cfg.NewRange(n, n)
}

// NewRangeOf returns [lower, upper] for machine integers.
func NewRangeOf[T constraints.Integer](cfg *Config, lower, upper T) Range {
	return cfg.NewRange(bigOf(lower), bigOf(upper))
}

func bigOf[T constraints.Integer](n T) *big.Int {
	var zero T
	if zero-1 > 0 {
		return new(big.Int).SetUint64(uint64(n))
	}
	return big.NewInt(int64(n))
}

func (cfg *Config) clamp(n *big.Int) *big.Int {
	if n.Cmp(cfg.NegInf) < 0 {
		return cfg.NegInf
	}
	if n.Cmp(cfg.PosInf) > 0 {
		return cfg.PosInf
	}
	return n
}

func (cfg *Config) toZ(n *big.Int) z {
	switch {
	case n.Cmp(cfg.NegInf) <= 0:
		return ninf
	case n.Cmp(cfg.PosInf) >= 0:
		return pinf
	default:
		return newZ(n)
	}
}

func (cfg *Config) fromZ(v z) *big.Int {
	switch v.infinity {
	case -1:
		return cfg.NegInf
	case 1:
		return cfg.PosInf
	default:
		return cfg.clamp(v.integer)
	}
}

func (r Range) Config() *Config { return r.cfg }

// Lower returns the lower bound. It must not be modified.
func (r Range) Lower() *big.Int { return r.lower }

// Upper returns the upper bound. It must not be modified.
func (r Range) Upper() *big.Int { return r.upper }

func (r Range) IsEmpty() bool { return r.empty }

// LowerUnbounded reports whether the lower bound is NegInf.
func (r Range) LowerUnbounded() bool { return !r.empty && r.lower.Cmp(r.cfg.NegInf) == 0 }

// UpperUnbounded reports whether the upper bound is PosInf.
func (r Range) UpperUnbounded() bool { return !r.empty && r.upper.Cmp(r.cfg.PosInf) == 0 }

// IsMaxRange reports whether r is [NegInf, PosInf].
func (r Range) IsMaxRange() bool { return r.LowerUnbounded() && r.UpperUnbounded() }

// IsBounded reports whether neither bound of r is a sentinel.
func (r Range) IsBounded() bool {
	return !r.empty && !r.LowerUnbounded() && !r.UpperUnbounded()
}

// IsSingleton reports whether r contains exactly one value.
func (r Range) IsSingleton() bool {
	return !r.empty && r.lower.Cmp(r.upper) == 0
}

func (r Range) Contains(n *big.Int) bool {
	return !r.empty && r.lower.Cmp(n) <= 0 && n.Cmp(r.upper) <= 0
}

// Subset reports whether every value of r is in o.
func (r Range) Subset(o Range) bool {
	if r.empty {
		return true
	}
	return !o.empty && o.lower.Cmp(r.lower) <= 0 && r.upper.Cmp(o.upper) <= 0
}

func (r Range) Equal(o Range) bool {
	if r.empty || o.empty {
		return r.empty == o.empty
	}
	return r.lower.Cmp(o.lower) == 0 && r.upper.Cmp(o.upper) == 0
}

func (r Range) String() string {
	if r.empty {
		return "[⊥, ⊥]"
	}
	l, u := r.lower.String(), r.upper.String()
	if r.LowerUnbounded() {
		l = "-∞"
	}
	if r.UpperUnbounded() {
		u = "∞"
	}
	return fmt.Sprintf("[%s, %s]", l, u)
}

func (r Range) zs() (z, z) {
	return r.cfg.toZ(r.lower), r.cfg.toZ(r.upper)
}

func (cfg *Config) fromZs(lower, upper z) Range {
	return cfg.NewRange(cfg.fromZ(lower), cfg.fromZ(upper))
}

// combine computes the range of f over all pairs of bounds of r and o. An
// undefined combination makes both sides of the result unbounded.
func (r Range) combine(o Range, f func(z, z) (z, bool)) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	l1, u1 := r.zs()
	l2, u2 := o.zs()
	lower, upper := pinf, ninf
	for _, x := range [2]z{l1, u1} {
		for _, y := range [2]z{l2, u2} {
			v, ok := f(x, y)
			if !ok {
				return r.cfg.Max()
			}
			lower = minZ(lower, v)
			upper = maxZ(upper, v)
		}
	}
	return r.cfg.fromZs(lower, upper)
}

// overflows reports whether f maps a pair of finite bounds of r and o to a
// value that typ cannot represent.
func (r Range) overflows(o Range, f func(z, z) (z, bool), typ ir.Type) bool {
	if r.empty || o.empty || !typ.IsInteger() {
		return false
	}
	min, max := typ.Min(), typ.Max()
	l1, u1 := r.zs()
	l2, u2 := o.zs()
	for _, x := range [2]z{l1, u1} {
		for _, y := range [2]z{l2, u2} {
			v, ok := f(x, y)
			if ok && !v.infinite() && (v.integer.Cmp(min) < 0 || v.integer.Cmp(max) > 0) {
				return true
			}
		}
	}
	return false
}

func (r Range) Add(o Range) Range { return r.combine(o, z.add) }
func (r Range) Sub(o Range) Range { return r.combine(o, z.sub) }
func (r Range) Mul(o Range) Range { return r.combine(o, z.mul) }

func (r Range) containsZero() bool {
	return r.Contains(new(big.Int))
}

func (r Range) nonNegative() bool {
	return !r.empty && r.lower.Sign() >= 0
}

// SDiv is signed division truncating towards zero. A divisor that may be
// zero yields the max range.
func (r Range) SDiv(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if o.containsZero() {
		return r.cfg.Max()
	}
	return r.combine(o, z.quo)
}

// UDiv is unsigned division. Only non-negative dividends and positive
// divisors are handled precisely.
func (r Range) UDiv(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if !r.nonNegative() || !o.nonNegative() || o.containsZero() {
		return r.cfg.Max()
	}
	return r.combine(o, z.quo)
}

// SRem is the signed remainder, which has the sign of the dividend and a
// magnitude smaller than the divisor's.
func (r Range) SRem(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if o.containsZero() {
		return r.cfg.Max()
	}
	l1, u1 := r.zs()
	l2, u2 := o.zs()
	m, _ := maxZ(l2.abs(), u2.abs()).sub(newZ(big.NewInt(1)))
	var lower, upper z
	switch {
	case l1.sign() >= 0:
		lower, upper = newZ(new(big.Int)), minZ(u1, m)
	case u1.sign() <= 0:
		lower, upper = maxZ(l1, m.neg()), newZ(new(big.Int))
	default:
		lower, upper = maxZ(l1, m.neg()), minZ(u1, m)
	}
	return r.cfg.fromZs(lower, upper)
}

// URem is the unsigned remainder.
func (r Range) URem(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if !o.nonNegative() || o.containsZero() {
		return r.cfg.Max()
	}
	_, u1 := r.zs()
	_, u2 := o.zs()
	m, _ := u2.sub(newZ(big.NewInt(1)))
	if r.nonNegative() {
		m = minZ(u1, m)
	}
	return r.cfg.fromZs(newZ(new(big.Int)), m)
}

func (r Range) shift(o Range, left bool) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if !o.nonNegative() {
		return r.cfg.Max()
	}
	limit := uint(r.cfg.BitWidth)
	return r.combine(o, func(x, y z) (z, bool) { return x.shift(y, left, limit) })
}

// Shl is a left shift. Results that overflow saturate.
func (r Range) Shl(o Range) Range { return r.shift(o, true) }

// AShr is an arithmetic right shift.
func (r Range) AShr(o Range) Range { return r.shift(o, false) }

// LShr is a logical right shift. Negative values shift in zeros and become
// non-negative.
func (r Range) LShr(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if r.nonNegative() {
		return r.shift(o, false)
	}
	if !o.nonNegative() {
		return r.cfg.Max()
	}
	lower := new(big.Int)
	if o.lower.Sign() == 0 {
		lower = r.lower
	}
	return r.cfg.NewRange(lower, r.cfg.PosInf)
}

// pow2m1 returns the smallest 2^k-1 that is at least n, for n >= 0.
func pow2m1(n *big.Int) *big.Int {
	k := n.BitLen()
	v := new(big.Int).Lsh(big.NewInt(1), uint(k))
	return v.Sub(v, big.NewInt(1))
}

func (r Range) And(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	switch {
	case r.nonNegative() && o.nonNegative():
		return r.cfg.NewRange(new(big.Int), minBig(r.upper, o.upper))
	case r.nonNegative():
		return r.cfg.NewRange(new(big.Int), r.upper)
	case o.nonNegative():
		return r.cfg.NewRange(new(big.Int), o.upper)
	case r.upper.Sign() < 0 && o.upper.Sign() < 0:
		return r.cfg.NewRange(r.cfg.NegInf, minBig(r.upper, o.upper))
	default:
		return r.cfg.Max()
	}
}

func (r Range) Or(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	switch {
	case r.nonNegative() && o.nonNegative():
		if r.UpperUnbounded() || o.UpperUnbounded() {
			return r.cfg.NewRange(maxBig(r.lower, o.lower), r.cfg.PosInf)
		}
		return r.cfg.NewRange(maxBig(r.lower, o.lower), pow2m1(maxBig(r.upper, o.upper)))
	case r.upper.Sign() < 0 && o.upper.Sign() < 0:
		return r.cfg.NewRange(maxBig(r.lower, o.lower), big.NewInt(-1))
	default:
		return r.cfg.NewRange(minBig(r.lower, o.lower), r.cfg.PosInf)
	}
}

func (r Range) Xor(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	if r.nonNegative() && o.nonNegative() {
		if r.UpperUnbounded() || o.UpperUnbounded() {
			return r.cfg.NewRange(new(big.Int), r.cfg.PosInf)
		}
		return r.cfg.NewRange(new(big.Int), pow2m1(maxBig(r.upper, o.upper)))
	}
	return r.cfg.Max()
}

// Truncate keeps r if every value fits in w signed bits, and returns the
// full range of w bits otherwise.
func (r Range) Truncate(w int) Range {
	return r.fit(ir.Int(w))
}

// SExt sign-extends to w bits, which preserves every value.
func (r Range) SExt(w int) Range {
	if r.empty {
		return r
	}
	return r.cfg.NewRange(r.lower, r.upper)
}

// ZExt zero-extends values of from bits to a wider type. Negative values
// gain 2^from.
func (r Range) ZExt(from, to int) Range {
	if r.empty || r.nonNegative() {
		return r
	}
	if r.LowerUnbounded() || from <= 0 {
		return r.cfg.NewRange(new(big.Int), ir.Uint(from).Max())
	}
	off := new(big.Int).Lsh(big.NewInt(1), uint(from))
	if r.upper.Sign() < 0 {
		return r.cfg.NewRange(new(big.Int).Add(r.lower, off), new(big.Int).Add(r.upper, off))
	}
	return r.cfg.NewRange(new(big.Int), off.Sub(off, big.NewInt(1)))
}

// Convert converts to typ, keeping values that typ can represent. If any
// value cannot be represented, the result is the full range of typ.
func (r Range) Convert(typ ir.Type) Range {
	return r.fit(typ)
}

func (r Range) fit(typ ir.Type) Range {
	if r.empty || !typ.IsInteger() {
		return r
	}
	min, max := typ.Min(), typ.Max()
	if r.lower.Cmp(min) >= 0 && r.upper.Cmp(max) <= 0 {
		return r
	}
	return r.cfg.NewRange(min, max)
}

// Intersect returns the values in both r and o.
func (r Range) Intersect(o Range) Range {
	if r.empty || o.empty {
		return r.cfg.Empty()
	}
	return r.cfg.NewRange(maxBig(r.lower, o.lower), minBig(r.upper, o.upper))
}

// Union returns the smallest range containing r and o.
func (r Range) Union(o Range) Range {
	switch {
	case r.empty:
		return o
	case o.empty:
		return r
	}
	return r.cfg.NewRange(minBig(r.lower, o.lower), maxBig(r.upper, o.upper))
}

func minBig(a, b *big.Int) *big.Int {
	if b.Cmp(a) < 0 {
		return b
	}
	return a
}

func maxBig(a, b *big.Int) *big.Int {
	if b.Cmp(a) > 0 {
		return b
	}
	return a
}
