package graph

import "slices"

// Cycles returns every loop in the flow graph as a node path that starts and
// ends on the same node. Loops are not supported by the graph compiler, so
// validation reports each one.
//
// The algorithm:
//  1. Find strongly connected components with Tarjan's algorithm
//  2. Keep components with more than one node, or a single node with a self-loop
//  3. Reconstruct one traversal per component
//
// A DAG returns an empty list.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			cycles = append(cycles, g.cyclePath(scc))
		}
	}
	return cycles
}

func (g *Graph) successorIDs(id string) []string {
	var out []string
	for _, f := range g.outgoing[id] {
		if _, ok := g.nodes[f.Target]; ok {
			out = append(out, f.Target)
		}
	}
	return out
}

func (g *Graph) hasSelfLoop(id string) bool {
	return slices.Contains(g.successorIDs(id), id)
}

// tarjanSCC visits nodes in declaration order so results are deterministic.
func (g *Graph) tarjanSCC() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.successorIDs(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.def.Nodes {
		if _, visited := indices[n.ID]; !visited {
			strongConnect(n.ID)
		}
	}
	return sccs
}

// cyclePath follows edges inside the component from its first member until
// it returns to it.
func (g *Graph) cyclePath(scc []string) []string {
	members := make(map[string]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true
		next := ""
		for _, w := range g.successorIDs(current) {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
