package program

import (
	"slices"
)

// findCycle returns one cycle path among the nodes Kahn's algorithm could not
// order. Uses Tarjan's algorithm restricted to the leftover subgraph.
func findCycle(idx dagIndex, ordered []string) []string {
	done := make(map[string]bool, len(ordered))
	for _, id := range ordered {
		done[id] = true
	}

	graph := make(map[string][]string)
	for id, deps := range idx.deps {
		if done[id] {
			continue
		}
		for _, d := range deps {
			if !done[d] {
				graph[id] = append(graph[id], d)
			}
		}
		if graph[id] == nil {
			graph[id] = []string{}
		}
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return reconstructCyclePath(scc, graph)
		}
	}
	return nil
}

func hasSelfLoop(node string, graph map[string][]string) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the reported cycle is deterministic.
func tarjanSCC(graph map[string][]string) [][]string {
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

		for _, w := range graph[v] {
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
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath returns a shortest closed walk through the SCC's
// smallest member, found by breadth-first search over edges inside the SCC.
// Neighbors are expanded in sorted order so the result is deterministic.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := slices.Min(scc)
	parent := map[string]string{start: ""}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors := slices.Clone(graph[current])
		slices.Sort(neighbors)
		for _, next := range neighbors {
			if next == start {
				return closePath(start, current, parent)
			}
			if _, seen := parent[next]; seen || !members[next] {
				continue
			}
			parent[next] = current
			queue = append(queue, next)
		}
	}

	// Unreachable for a genuine SCC.
	return []string{start}
}

// closePath walks parent links from last back to start and appends start
// again to close the cycle.
func closePath(start, last string, parent map[string]string) []string {
	var rev []string
	for n := last; n != start; n = parent[n] {
		rev = append(rev, n)
	}
	path := make([]string, 0, len(rev)+2)
	path = append(path, start)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return append(path, start)
}
