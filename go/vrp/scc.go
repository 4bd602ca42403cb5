package vrp

// components is the decomposition of a graph into strongly connected
// components, numbered in topological order: every component only depends
// on components with smaller numbers.
type components struct {
	of      []int
	members [][]VarNodeID
}

// SCC returns the position of node id's component in the solving order. It
// panics if the components have not been computed yet.
func (g *Graph) SCC(id VarNodeID) int {
	if g.sccs == nil {
		panic("SCC requested before components were computed")
	}
	return g.sccs.of[id]
}

// NumSCCs returns the number of components.
func (g *Graph) NumSCCs() int {
	if g.sccs == nil {
		panic("SCC requested before components were computed")
	}
	return len(g.sccs.members)
}

// controlDeps returns the control dependence overlay: for every sigma bounded
// by a node, an edge from the bound to the sigma's sink. The overlay exists
// only while components are computed.
func (g *Graph) controlDeps() map[VarNodeID][]Operation {
	overlay := map[VarNodeID][]Operation{}
	for bound, sigmas := range g.symbolic {
		for _, id := range sigmas {
			src := VarNodeID(bound)
			overlay[src] = append(overlay[src], Operation{
				Sink:      g.ops[id].Sink,
				Kind:      &ControlDep{Source: src},
				Intersect: g.cfg.Max(),
			})
		}
	}
	return overlay
}

func (g *Graph) successors(id VarNodeID, overlay map[VarNodeID][]Operation) []VarNodeID {
	out := make([]VarNodeID, 0, len(g.uses[id])+len(overlay[id]))
	for _, op := range g.uses[id] {
		out = append(out, g.ops[op].Sink)
	}
	for _, op := range overlay[id] {
		out = append(out, op.Sink)
	}
	return out
}

// findSCCs computes the strongly connected components with Nuutila's
// algorithm, using an explicit stack.
func (g *Graph) findSCCs() *components {
	overlay := g.controlDeps()
	n := len(g.vars)
	index := make([]int, n)
	root := make([]VarNodeID, n)
	inComponent := make([]bool, n)
	var stack []VarNodeID
	var found [][]VarNodeID
	next := 1

	type frame struct {
		v     VarNodeID
		succs []VarNodeID
		i     int
	}
	var work []frame
	visit := func(v VarNodeID) {
		index[v] = next
		next++
		root[v] = v
		work = append(work, frame{v: v, succs: g.successors(v, overlay)})
	}
	// merge lets v inherit w's root if that root was visited earlier.
	merge := func(v, w VarNodeID) {
		if !inComponent[w] && index[root[w]] < index[root[v]] {
			root[v] = root[w]
		}
	}

	for start := range g.vars {
		if index[start] != 0 {
			continue
		}
		visit(VarNodeID(start))
		for len(work) > 0 {
			f := &work[len(work)-1]
			if f.i < len(f.succs) {
				w := f.succs[f.i]
				f.i++
				if index[w] == 0 {
					visit(w)
				} else {
					merge(f.v, w)
				}
				continue
			}

			v := f.v
			work = work[:len(work)-1]
			if root[v] == v {
				comp := []VarNodeID{v}
				inComponent[v] = true
				for len(stack) > 0 && index[stack[len(stack)-1]] > index[v] {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					inComponent[w] = true
					comp = append(comp, w)
				}
				found = append(found, comp)
			} else {
				stack = append(stack, v)
			}
			if len(work) > 0 {
				merge(work[len(work)-1].v, v)
			}
		}
	}

	return g.sortComponents(found, overlay)
}

// sortComponents orders components topologically. It panics if the
// component graph has a cycle.
func (g *Graph) sortComponents(found [][]VarNodeID, overlay map[VarNodeID][]Operation) *components {
	of := make([]int, len(g.vars))
	for i, comp := range found {
		for _, v := range comp {
			of[v] = i
		}
	}
	indegree := make([]int, len(found))
	succs := make([][]int, len(found))
	for i, comp := range found {
		seen := map[int]bool{}
		for _, v := range comp {
			for _, w := range g.successors(v, overlay) {
				j := of[w]
				if j == i || seen[j] {
					continue
				}
				seen[j] = true
				succs[i] = append(succs[i], j)
				indegree[j]++
			}
		}
	}

	// Components are found successors first.
	var queue []int
	for i := len(found) - 1; i >= 0; i-- {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	out := &components{of: make([]int, len(g.vars))}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		pos := len(out.members)
		out.members = append(out.members, found[i])
		for _, v := range found[i] {
			out.of[v] = pos
		}
		for _, j := range succs[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(out.members) != len(found) {
		panic("cycle in the component graph")
	}
	return out
}
