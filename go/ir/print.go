package ir

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

func (instr *Instr) String() string {
	var buf strings.Builder
	if instr.Result != nil {
		fmt.Fprintf(&buf, "%s = ", instr.Result)
	}
	buf.WriteString(instr.Op.String())
	if instr.Result != nil {
		fmt.Fprintf(&buf, " %s", instr.Result.Type)
	}
	if instr.Callee != nil {
		fmt.Fprintf(&buf, " %s", instr.Callee.Name)
	}
	for i, arg := range instr.Args {
		if i == 0 {
			buf.WriteString(" ")
		} else {
			buf.WriteString(", ")
		}
		buf.WriteString(arg.String())
	}
	if instr.Result != nil && instr.Result.Hint != nil {
		fmt.Fprintf(&buf, " %s", instr.Result.Hint)
	}
	return buf.String()
}

func termString(t Terminator) string {
	switch t := t.(type) {
	case *Jump:
		return "jump " + t.Target.String()
	case *If:
		return fmt.Sprintf("if %s then %s else %s", t.Cond, t.Then, t.Else)
	case *Switch:
		var buf strings.Builder
		fmt.Fprintf(&buf, "switch %s", t.On)
		for _, c := range t.Cases {
			fmt.Fprintf(&buf, " %s:%s", c.Value, c.Target)
		}
		fmt.Fprintf(&buf, " default:%s", t.Default)
		return buf.String()
	case *Branch:
		s := make([]string, len(t.Targets))
		for i, b := range t.Targets {
			s[i] = b.String()
		}
		return "branch " + strings.Join(s, ", ")
	case *Return:
		s := make([]string, len(t.Results))
		for i, v := range t.Results {
			s[i] = v.String()
		}
		return strings.TrimSpace("return " + strings.Join(s, ", "))
	case nil:
		return "<no terminator>"
	default:
		panic(fmt.Sprintf("unhandled terminator %T", t))
	}
}

// WriteFunction writes a human-readable listing of fn to w.
func WriteFunction(w io.Writer, fn *Function) error {
	var buf bytes.Buffer
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", p, p.Type)
	}
	fmt.Fprintf(&buf, "func %s(%s):\n", fn.Name, strings.Join(params, ", "))
	for _, b := range fn.Blocks {
		fmt.Fprintf(&buf, "%s:", b)
		if len(b.Preds) > 0 {
			preds := make([]string, len(b.Preds))
			for i, p := range b.Preds {
				preds[i] = p.String()
			}
			fmt.Fprintf(&buf, " ; preds %s", strings.Join(preds, ", "))
		}
		buf.WriteString("\n")
		for _, instr := range b.Instrs {
			fmt.Fprintf(&buf, "\t%s\n", instr)
		}
		fmt.Fprintf(&buf, "\t%s\n", termString(b.Term))
	}
	_, err := w.Write(buf.Bytes())
	return err
}
