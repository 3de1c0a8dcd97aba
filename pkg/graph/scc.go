package graph

import (
	"sort"
)

// StronglyConnectedComponents returns the strongly connected components
// of the graph using Tarjan's algorithm. Each component is sorted, and
// components are ordered by their smallest member so output is stable.
func (g *DiGraph) StronglyConnectedComponents() [][]string {
	index := 0
	indices := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	stack := make([]string, 0, len(g.nodes))
	var comps [][]string

	// Iterative Tarjan. The frame records how far into the successor
	// list the node has advanced so the walk can resume after returning
	// from a child.
	type frame struct {
		node string
		succ []string
		next int
	}

	for _, start := range g.Nodes() {
		if _, seen := indices[start]; seen {
			continue
		}

		frames := []frame{{node: start, succ: g.Successors(start)}}
		indices[start] = index
		lowlink[start] = index
		index++
		stack = append(stack, start)
		onStack[start] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]

			advanced := false
			for f.next < len(f.succ) {
				w := f.succ[f.next]
				f.next++
				if _, seen := indices[w]; !seen {
					indices[w] = index
					lowlink[w] = index
					index++
					stack = append(stack, w)
					onStack[w] = true
					frames = append(frames, frame{node: w, succ: g.Successors(w)})
					advanced = true
					break
				} else if onStack[w] {
					if indices[w] < lowlink[f.node] {
						lowlink[f.node] = indices[w]
					}
				}
			}
			if advanced {
				continue
			}

			// Node is finished, pop its component if it is a root.
			v := f.node
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == indices[v] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				sort.Strings(comp)
				comps = append(comps, comp)
			}
		}
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// IsDAG reports whether the graph has no cycles. A self-loop counts as
// a cycle.
func (g *DiGraph) IsDAG() bool {
	for n, targets := range g.succ {
		if _, ok := targets[n]; ok {
			return false
		}
	}
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			return false
		}
	}
	return true
}

// Cycles returns the circular dependency groups in the graph: every
// strongly connected component with more than one member, plus every
// self-loop as a single-node cycle.
func (g *DiGraph) Cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			cycles = append(cycles, comp)
			continue
		}
		if g.HasEdge(comp[0], comp[0]) {
			cycles = append(cycles, comp)
		}
	}
	return cycles
}

// Depths returns, for every node, the length in edges of the longest
// path originating at that node. Cycles are handled by condensing
// strongly connected components first and measuring over the resulting
// DAG, so the depth is always finite.
func (g *DiGraph) Depths() map[string]int {
	comps := g.StronglyConnectedComponents()

	compOf := make(map[string]int, len(g.nodes))
	for i, comp := range comps {
		for _, n := range comp {
			compOf[n] = i
		}
	}

	// Condensation adjacency over component indices.
	condSucc := make([]map[int]struct{}, len(comps))
	for i := range condSucc {
		condSucc[i] = make(map[int]struct{})
	}
	for source, targets := range g.succ {
		for target := range targets {
			cs, ct := compOf[source], compOf[target]
			if cs != ct {
				condSucc[cs][ct] = struct{}{}
			}
		}
	}

	// Longest path per component via memoized DFS; the condensation is
	// acyclic by construction.
	memo := make([]int, len(comps))
	for i := range memo {
		memo[i] = -1
	}
	var longest func(c int) int
	longest = func(c int) int {
		if memo[c] >= 0 {
			return memo[c]
		}
		best := 0
		for next := range condSucc[c] {
			if d := longest(next) + 1; d > best {
				best = d
			}
		}
		memo[c] = best
		return best
	}

	depths := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		depths[n] = longest(compOf[n])
	}
	return depths
}
