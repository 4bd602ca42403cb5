package vrp

import (
	"fmt"
	"strings"
)

// ExportNode is a vertex of the exported graph: either a VarNode or an
// Operation.
type ExportNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Op is set for operations.
	Op bool `json:"op,omitempty"`
	// SCC is the node's component, or -1 if components have not been
	// computed.
	SCC int `json:"scc"`
}

// ExportEdge connects a VarNode and an Operation. Control edges run from a
// sigma's bound to the sigma.
type ExportEdge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Label   string `json:"label,omitempty"`
	Control bool   `json:"control,omitempty"`
}

// Export is the constraint graph as plain node and edge lists.
type Export struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// Export returns the graph's nodes and edges, labelled with the current
// ranges.
func (g *Graph) Export() Export {
	var out Export
	varID := func(id VarNodeID) string { return fmt.Sprintf("v%d", id) }
	opID := func(id OperationID) string { return fmt.Sprintf("o%d", id) }
	for i := range g.vars {
		n := &g.vars[i]
		scc := -1
		if g.sccs != nil {
			scc = g.sccs.of[i]
		}
		out.Nodes = append(out.Nodes, ExportNode{
			ID:    varID(VarNodeID(i)),
			Label: n.String(),
			SCC:   scc,
		})
	}
	for i := range g.ops {
		op := &g.ops[i]
		id := OperationID(i)
		label := g.kindLabel(op)
		if !op.Intersect.IsMaxRange() {
			label += " " + op.Intersect.String()
		}
		scc := -1
		if g.sccs != nil {
			scc = g.sccs.of[op.Sink]
		}
		out.Nodes = append(out.Nodes, ExportNode{ID: opID(id), Label: label, Op: true, SCC: scc})
		for _, src := range op.Kind.Operands() {
			out.Edges = append(out.Edges, ExportEdge{From: varID(src), To: opID(id)})
		}
		out.Edges = append(out.Edges, ExportEdge{From: opID(id), To: varID(op.Sink)})
		if k, ok := op.Kind.(*Sigma); ok && k.Bound != NoNode {
			out.Edges = append(out.Edges, ExportEdge{
				From:    varID(k.Bound),
				To:      opID(id),
				Label:   k.Pred.String(),
				Control: true,
			})
		}
	}
	return out
}

func (g *Graph) kindLabel(op *Operation) string {
	switch k := op.Kind.(type) {
	case *Unary:
		return k.Opcode.String()
	case *Sigma:
		return "sigma"
	case *Binary:
		return k.Opcode.String()
	case *Phi:
		return "phi"
	case *ControlDep:
		return "control"
	default:
		panic(fmt.Sprintf("unhandled operation kind %T", k))
	}
}

// Graphviz renders the graph in the dot language. Values are ovals,
// operations are boxes and control dependences are dashed.
func (g *Graph) Graphviz() string {
	exp := g.Export()
	var lines []string
	lines = append(lines, "digraph{")
	for _, n := range exp.Nodes {
		shape := "oval"
		if n.Op {
			shape = "box"
		}
		color := ""
		if n.SCC >= 0 {
			color = fmt.Sprintf(`, colorscheme=spectral11, style="filled", fillcolor="%d"`, (n.SCC%11)+1)
		}
		lines = append(lines, fmt.Sprintf(`%s [shape="%s", label=%q%s]`, n.ID, shape, n.Label, color))
	}
	for _, e := range exp.Edges {
		style := "solid"
		if e.Control {
			style = "dashed"
		}
		attrs := fmt.Sprintf(`style="%s"`, style)
		if e.Label != "" {
			attrs += fmt.Sprintf(", label=%q", e.Label)
		}
		lines = append(lines, fmt.Sprintf(`%s -> %s [%s]`, e.From, e.To, attrs))
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}
