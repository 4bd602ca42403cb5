package ir

import (
	"fmt"
	"strings"
)

// VerifyError lists every problem found by Verify.
type VerifyError []error

func (errs VerifyError) Error() string {
	s := make([]string, len(errs))
	for i, err := range errs {
		s[i] = err.Error()
	}
	return strings.Join(s, "\n")
}

// Verify checks fn for structural errors.
func Verify(fn *Function) error {
	var errs []error
	report := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: "+format, append([]interface{}{fn.Name}, args...)...))
	}
	if len(fn.Blocks) == 0 {
		report("function has no blocks")
	}
	for _, b := range fn.Blocks {
		if b.Term == nil {
			report("block %s has no terminator", b)
		}
		for _, instr := range b.Instrs {
			desc := instr.Op.String()
			if instr.Result != nil {
				desc = instr.Result.String() + " = " + desc
			}
			for _, arg := range instr.Args {
				if arg == nil {
					report("%s: nil operand", desc)
					continue
				}
				if arg.fn != fn {
					report("%s: operand %s belongs to another function", desc, arg)
				}
			}
			n := len(instr.Args)
			switch {
			case instr.Op == OpInvalid:
				report("%s: invalid opcode", desc)
			case (instr.Op.IsUnary() || instr.Op == OpSigma) && n != 1:
				report("%s: want 1 operand, got %d", desc, n)
			case instr.Op.IsBinary() && n != 2:
				report("%s: want 2 operands, got %d", desc, n)
			case instr.Op == OpPhi && n == 0:
				report("%s: phi without operands", desc)
			}
			if instr.Op == OpSigma && len(b.Preds) != 1 {
				report("%s: sigma in block %s with %d predecessors", desc, b, len(b.Preds))
			}
		}
		if t, ok := b.Term.(*If); ok && (t.Cond.X == nil || t.Cond.Y == nil) {
			report("block %s: comparison with nil operand", b)
		}
		if t, ok := b.Term.(*Switch); ok && t.On == nil {
			report("block %s: switch on nil value", b)
		}
	}
	if len(errs) > 0 {
		return VerifyError(errs)
	}
	return nil
}
