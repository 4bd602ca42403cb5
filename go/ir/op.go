package ir

import "fmt"

type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Unary operations.
	OpCopy
	// OpCast converts to the result type, preserving the value if it is
	// representable.
	OpCast
	OpTrunc
	OpSExt
	OpZExt
	OpLoad
	OpStore

	// Binary operations.
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor

	OpPhi
	// OpSigma copies its argument at the start of a successor of a
	// conditional branch.
	OpSigma
	OpCall
	// OpOpaque defines a value the analysis knows nothing about.
	OpOpaque
)

var opcodeNames = [...]string{
	OpInvalid: "invalid",
	OpCopy:    "copy",
	OpCast:    "cast",
	OpTrunc:   "trunc",
	OpSExt:    "sext",
	OpZExt:    "zext",
	OpLoad:    "load",
	OpStore:   "store",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpUDiv:    "udiv",
	OpSDiv:    "sdiv",
	OpURem:    "urem",
	OpSRem:    "srem",
	OpShl:     "shl",
	OpLShr:    "lshr",
	OpAShr:    "ashr",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpPhi:     "phi",
	OpSigma:   "sigma",
	OpCall:    "call",
	OpOpaque:  "opaque",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// ParseOpcode returns the opcode with the given name.
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == s && Opcode(op) != OpInvalid {
			return Opcode(op), true
		}
	}
	return OpInvalid, false
}

// IsUnary reports whether op has exactly one operand and passes its value
// through, possibly converted.
func (op Opcode) IsUnary() bool { return op >= OpCopy && op <= OpStore }

// IsBinary reports whether op is an arithmetic or bitwise operation with two
// operands.
func (op Opcode) IsBinary() bool { return op >= OpAdd && op <= OpXor }

type Predicate uint8

const (
	EQ Predicate = iota
	NE
	SLT
	SLE
	SGT
	SGE
	ULT
	ULE
	UGT
	UGE
)

var predicateNames = [...]string{
	EQ:  "eq",
	NE:  "ne",
	SLT: "slt",
	SLE: "sle",
	SGT: "sgt",
	SGE: "sge",
	ULT: "ult",
	ULE: "ule",
	UGT: "ugt",
	UGE: "uge",
}

var predicateSymbols = [...]string{
	EQ:  "==",
	NE:  "!=",
	SLT: "<",
	SLE: "<=",
	SGT: ">",
	SGE: ">=",
	ULT: "<u",
	ULE: "<=u",
	UGT: ">u",
	UGE: ">=u",
}

func (p Predicate) String() string {
	if int(p) < len(predicateSymbols) {
		return predicateSymbols[p]
	}
	return fmt.Sprintf("Predicate(%d)", p)
}

// ParsePredicate accepts both the mnemonic ("slt") and the symbolic ("<")
// spelling of a predicate.
func ParsePredicate(s string) (Predicate, bool) {
	for i := range predicateNames {
		if predicateNames[i] == s || predicateSymbols[i] == s {
			return Predicate(i), true
		}
	}
	return 0, false
}

// Negate returns the predicate that holds exactly when p does not, i.e. the
// condition on the false edge of a branch.
func (p Predicate) Negate() Predicate {
	switch p {
	case EQ:
		return NE
	case NE:
		return EQ
	case SLT:
		return SGE
	case SLE:
		return SGT
	case SGT:
		return SLE
	case SGE:
		return SLT
	case ULT:
		return UGE
	case ULE:
		return UGT
	case UGT:
		return ULE
	case UGE:
		return ULT
	default:
		panic(fmt.Sprintf("unhandled predicate %d", p))
	}
}

// Flip returns the predicate q such that 'x p y' is equivalent to 'y q x'.
func (p Predicate) Flip() Predicate {
	switch p {
	case EQ, NE:
		return p
	case SLT:
		return SGT
	case SLE:
		return SGE
	case SGT:
		return SLT
	case SGE:
		return SLE
	case ULT:
		return UGT
	case ULE:
		return UGE
	case UGT:
		return ULT
	case UGE:
		return ULE
	default:
		panic(fmt.Sprintf("unhandled predicate %d", p))
	}
}

// IsUnsigned reports whether p compares its operands as unsigned integers.
func (p Predicate) IsUnsigned() bool { return p >= ULT }
