package ir

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// The textual form of a module, for example:
//
//	functions:
//	- name: count
//	  params: [{name: n, type: i32}]
//	  blocks:
//	  - name: entry
//	    term: {jump: loop}
//	  - name: loop
//	    instrs:
//	    - {result: x, op: phi, type: i32, args: ["0", x.next]}
//	    term: {if: [x, slt, "10"], then: body, else: done}
//	  - name: body
//	    instrs:
//	    - {result: x.t, op: sigma, type: i32, args: [x]}
//	    - {result: x.next, op: add, type: i32, args: [x.t, "1"]}
//	    term: {jump: loop}
//	  - name: done
//	    term: {return: [x]}
//
// Operands that parse as integers are constants of the instruction's type,
// or of the other operand's type in comparisons. A constant may carry an
// explicit type, as in "255:u8".
type yamlModule struct {
	Functions []yamlFunction `yaml:"functions"`
}

type yamlFunction struct {
	Name     string      `yaml:"name"`
	External bool        `yaml:"external"`
	Params   []yamlValue `yaml:"params"`
	Blocks   []yamlBlock `yaml:"blocks"`
}

type yamlValue struct {
	Name string  `yaml:"name"`
	Type string  `yaml:"type"`
	Min  *string `yaml:"min"`
	Max  *string `yaml:"max"`
}

type yamlBlock struct {
	Name   string      `yaml:"name"`
	Instrs []yamlInstr `yaml:"instrs"`
	Term   yamlTerm    `yaml:"term"`
}

type yamlInstr struct {
	Result string   `yaml:"result"`
	Op     string   `yaml:"op"`
	Type   string   `yaml:"type"`
	Args   []string `yaml:"args"`
	Callee string   `yaml:"callee"`
	Min    *string  `yaml:"min"`
	Max    *string  `yaml:"max"`
}

type yamlTerm struct {
	Jump    string     `yaml:"jump"`
	If      []string   `yaml:"if"`
	Then    string     `yaml:"then"`
	Else    string     `yaml:"else"`
	Switch  string     `yaml:"switch"`
	Cases   []yamlCase `yaml:"cases"`
	Default string     `yaml:"default"`
	Branch  []string   `yaml:"branch"`
	Return  *[]string  `yaml:"return"`
}

type yamlCase struct {
	Value  string `yaml:"value"`
	Target string `yaml:"target"`
}

// ParseType parses a type name such as "i32" or "u8". The name "void"
// denotes the untracked type.
func ParseType(s string) (Type, error) {
	if s == "void" || s == "" {
		return Type{}, nil
	}
	if len(s) < 2 || (s[0] != 'i' && s[0] != 'u') {
		return Type{}, fmt.Errorf("invalid type %q", s)
	}
	w, err := strconv.Atoi(s[1:])
	if err != nil || w <= 0 {
		return Type{}, fmt.Errorf("invalid type %q", s)
	}
	return Type{Width: w, Unsigned: s[0] == 'u'}, nil
}

func parseInt(s string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(s, 0)
	return n, ok
}

// DecodeFile decodes the module stored in the named file.
func DecodeFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode decodes a module in its YAML form and verifies it.
func Decode(r io.Reader) (*Module, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ym yamlModule
	if err := dec.Decode(&ym); err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}

	m := NewModule()
	d := &decoder{mod: m, funcs: map[string]*Function{}}
	// Functions are created up front so that calls may refer to functions
	// defined later in the file.
	for _, yfn := range ym.Functions {
		if _, ok := d.funcs[yfn.Name]; ok {
			return nil, fmt.Errorf("function %s defined twice", yfn.Name)
		}
		d.funcs[yfn.Name] = m.NewFunction(yfn.Name)
	}
	for _, yfn := range ym.Functions {
		if err := d.function(d.funcs[yfn.Name], yfn); err != nil {
			return nil, fmt.Errorf("function %s: %w", yfn.Name, err)
		}
	}
	for _, fn := range m.Functions {
		if err := Verify(fn); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type decoder struct {
	mod   *Module
	funcs map[string]*Function

	fn     *Function
	values map[string]*Value
	blocks map[string]*Block
}

func hint(min, max *string) (*Interval, error) {
	if min == nil && max == nil {
		return nil, nil
	}
	var ival Interval
	for _, b := range []struct {
		s   *string
		dst **big.Int
	}{{min, &ival.Lower}, {max, &ival.Upper}} {
		if b.s == nil {
			continue
		}
		n, ok := parseInt(*b.s)
		if !ok {
			return nil, fmt.Errorf("invalid bound %q", *b.s)
		}
		*b.dst = n
	}
	return &ival, nil
}

func (d *decoder) define(name string, v *Value) error {
	if name == "" {
		return nil
	}
	if _, ok := d.values[name]; ok {
		return fmt.Errorf("value %s defined twice", name)
	}
	if _, ok := parseInt(name); ok {
		return fmt.Errorf("value name %s is an integer", name)
	}
	d.values[name] = v
	return nil
}

func (d *decoder) function(fn *Function, yfn yamlFunction) error {
	d.fn = fn
	d.values = map[string]*Value{}
	d.blocks = map[string]*Block{}
	fn.External = yfn.External

	for _, yp := range yfn.Params {
		typ, err := ParseType(yp.Type)
		if err != nil {
			return err
		}
		p := fn.NewParam(yp.Name, typ)
		if p.Hint, err = hint(yp.Min, yp.Max); err != nil {
			return err
		}
		if err := d.define(yp.Name, p); err != nil {
			return err
		}
	}
	for _, yb := range yfn.Blocks {
		if _, ok := d.blocks[yb.Name]; ok {
			return fmt.Errorf("block %s defined twice", yb.Name)
		}
		d.blocks[yb.Name] = fn.NewBlock(yb.Name)
	}

	// First pass: create every instruction and its result, so that operands
	// can refer to values defined later (as phis do).
	type pending struct {
		instr *Instr
		yi    yamlInstr
	}
	var todo []pending
	for _, yb := range yfn.Blocks {
		b := d.blocks[yb.Name]
		for _, yi := range yb.Instrs {
			op, ok := ParseOpcode(yi.Op)
			if !ok {
				return fmt.Errorf("block %s: unknown opcode %q", yb.Name, yi.Op)
			}
			typ, err := ParseType(yi.Type)
			if err != nil {
				return fmt.Errorf("block %s: %w", yb.Name, err)
			}
			v := b.Emit(op, yi.Result, typ)
			instr := b.Instrs[len(b.Instrs)-1]
			if v != nil {
				if v.Hint, err = hint(yi.Min, yi.Max); err != nil {
					return err
				}
				if err := d.define(yi.Result, v); err != nil {
					return err
				}
			}
			if yi.Callee != "" {
				callee, ok := d.funcs[yi.Callee]
				if !ok {
					return fmt.Errorf("call of unknown function %s", yi.Callee)
				}
				instr.Callee = callee
			}
			todo = append(todo, pending{instr, yi})
		}
	}
	for _, p := range todo {
		typ := Type{}
		if p.instr.Result != nil {
			typ = p.instr.Result.Type
		}
		for _, arg := range p.yi.Args {
			v, err := d.operand(arg, typ)
			if err != nil {
				return err
			}
			p.instr.Args = append(p.instr.Args, v)
		}
	}

	for _, yb := range yfn.Blocks {
		if err := d.terminator(d.blocks[yb.Name], yb.Term); err != nil {
			return fmt.Errorf("block %s: %w", yb.Name, err)
		}
	}
	return nil
}

// operand resolves a value name or constant literal. typ is the type of
// untyped constants.
func (d *decoder) operand(s string, typ Type) (*Value, error) {
	lit, typName, typed := strings.Cut(s, ":")
	if n, ok := parseInt(lit); ok {
		if typed {
			t, err := ParseType(typName)
			if err != nil {
				return nil, err
			}
			typ = t
		}
		if !typ.IsInteger() {
			return nil, fmt.Errorf("constant %s has no type", s)
		}
		return d.fn.ConstBig(typ, n), nil
	}
	v, ok := d.values[s]
	if !ok {
		return nil, fmt.Errorf("undefined value %s", s)
	}
	return v, nil
}

func (d *decoder) block(name string) (*Block, error) {
	b, ok := d.blocks[name]
	if !ok {
		return nil, fmt.Errorf("undefined block %q", name)
	}
	return b, nil
}

func (d *decoder) terminator(b *Block, yt yamlTerm) error {
	switch {
	case yt.Jump != "":
		target, err := d.block(yt.Jump)
		if err != nil {
			return err
		}
		b.Jump(target)
	case yt.If != nil:
		if len(yt.If) != 3 {
			return fmt.Errorf("comparison must have the form [x, pred, y]")
		}
		pred, ok := ParsePredicate(yt.If[1])
		if !ok {
			return fmt.Errorf("unknown predicate %q", yt.If[1])
		}
		x, y, err := d.comparands(yt.If[0], yt.If[2])
		if err != nil {
			return err
		}
		then, err := d.block(yt.Then)
		if err != nil {
			return err
		}
		els, err := d.block(yt.Else)
		if err != nil {
			return err
		}
		b.If(pred, x, y, then, els)
	case yt.Switch != "":
		on, err := d.operand(yt.Switch, Type{})
		if err != nil {
			return err
		}
		def, err := d.block(yt.Default)
		if err != nil {
			return err
		}
		cases := make([]Case, 0, len(yt.Cases))
		for _, yc := range yt.Cases {
			n, ok := parseInt(yc.Value)
			if !ok {
				return fmt.Errorf("invalid case value %q", yc.Value)
			}
			target, err := d.block(yc.Target)
			if err != nil {
				return err
			}
			cases = append(cases, Case{Value: n, Target: target})
		}
		b.Switch(on, def, cases...)
	case yt.Branch != nil:
		targets := make([]*Block, len(yt.Branch))
		for i, name := range yt.Branch {
			target, err := d.block(name)
			if err != nil {
				return err
			}
			targets[i] = target
		}
		b.Branch(targets...)
	case yt.Return != nil:
		var results []*Value
		for _, s := range *yt.Return {
			v, err := d.operand(s, Type{})
			if err != nil {
				return err
			}
			results = append(results, v)
		}
		b.Return(results...)
	default:
		return fmt.Errorf("missing terminator")
	}
	return nil
}

// comparands resolves the operands of a comparison, giving untyped constants
// the type of the other operand.
func (d *decoder) comparands(xs, ys string) (*Value, *Value, error) {
	typeOf := func(s string) Type {
		if v, ok := d.values[s]; ok {
			return v.Type
		}
		return Type{}
	}
	x, err := d.operand(xs, typeOf(ys))
	if err != nil {
		return nil, nil, err
	}
	y, err := d.operand(ys, x.Type)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
