package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"honnef.co/go/vrp/config"
	"honnef.co/go/vrp/go/ir"
)

const loopYAML = `
functions:
- name: count
  blocks:
  - name: entry
    term: {jump: loop}
  - name: loop
    instrs:
    - {result: x, op: phi, type: i32, args: ["0", x.next]}
    term: {if: [x, slt, "10"], then: body, else: done}
  - name: body
    instrs:
    - {result: x.t, op: sigma, type: i32, args: [x]}
    - {result: x.next, op: add, type: i32, args: [x.t, "1"]}
    term: {jump: loop}
  - name: done
    instrs:
    - {result: x.f, op: sigma, type: i32, args: [x]}
    term: {return: [x.f]}
`

func decode(t *testing.T) *ir.Module {
	t.Helper()
	m, err := ir.Decode(strings.NewReader(loopYAML))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// ranges parses the text output into a map from value names to ranges.
func ranges(out string) map[string]string {
	m := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] == "func" {
			continue
		}
		m[fields[0]] = strings.Join(fields[2:], " ")
	}
	return m
}

func TestWriteText(t *testing.T) {
	for _, interprocedural := range []bool{true, false} {
		cfg := config.Default()
		cfg.Analysis.Interprocedural = interprocedural
		cfg.Analysis.Workers = 2
		a, err := analyze(context.Background(), decode(t), cfg)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := writeText(&buf, a, newPalette("never")); err != nil {
			t.Fatal(err)
		}
		got := ranges(buf.String())
		want := map[string]string{
			"x":      "[0, 10]",
			"x.t":    "[0, 9]",
			"x.next": "[1, 10]",
			"x.f":    "[10, 10]",
		}
		for name, r := range want {
			if got[name] != r {
				t.Errorf("interprocedural=%t: range of %s = %q, want %q\n%s", interprocedural, name, got[name], r, buf.String())
			}
		}
	}
}

func TestAnalyzeInvalid(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunction("f")
	fn.NewBlock("entry")
	if _, err := analyze(context.Background(), m, config.Default()); err == nil {
		t.Errorf("analyze accepted a block without terminator")
	}
}

func TestWriteSMT(t *testing.T) {
	m := decode(t)
	a, err := analyze(context.Background(), m, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeSMT(&buf, m, a, "count:x.t"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"; count:x.t in [0, 9]\n",
		"(assert (or (< |x.t| 0) (> |x.t| 9)))",
		"(check-sat)",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("script does not contain %q:\n%s", want, buf.String())
		}
	}

	for _, spec := range []string{"count", "nope:x", "count:y"} {
		if err := writeSMT(&buf, m, a, spec); err == nil {
			t.Errorf("writeSMT(%q) succeeded", spec)
		}
	}
}

func TestWriteGraphs(t *testing.T) {
	a, err := analyze(context.Background(), decode(t), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := write(&buf, a, "json", newPalette("never")); err != nil {
		t.Fatal(err)
	}
	var out []jsonGraph
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || len(out[0].Functions) != 1 || out[0].Functions[0] != "count" || len(out[0].Graph.Nodes) == 0 {
		t.Errorf("unexpected JSON output:\n%s", buf.String())
	}

	buf.Reset()
	if err := write(&buf, a, "dot", newPalette("never")); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.HasPrefix(got, "// count\ndigraph{") {
		t.Errorf("unexpected dot output:\n%s", got)
	}
}
