package graph

import (
	"sort"
)

const (
	// Paths shorter than this carry no architectural signal.
	minCriticalPathLen = 4
	maxCriticalPaths   = 5
)

// ShortestPath returns one shortest path from source to target, or nil
// if target is unreachable. Ties are broken toward lexicographically
// smaller neighbours, keeping the result deterministic.
func (g *DiGraph) ShortestPath(source, target string) []string {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil
	}
	if source == target {
		return []string{source}
	}

	parent := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.Successors(v) {
			if _, seen := parent[w]; seen {
				continue
			}
			parent[w] = v
			if w == target {
				path := []string{w}
				for p := v; p != ""; p = parent[p] {
					path = append(path, p)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, w)
		}
	}
	return nil
}

// CriticalPaths returns the longest source-to-sink chains in the graph:
// paths from entry nodes (no callers) to leaf nodes (no callees) with at
// least four hops, longest first, capped at five. Cyclic graphs are
// measured with self-loops stripped.
func (g *DiGraph) CriticalPaths() [][]string {
	dag := g
	if !g.IsDAG() {
		dag = g.WithoutSelfLoops()
	}

	var paths [][]string
	for _, source := range dag.Sources() {
		for _, sink := range dag.Sinks() {
			path := dag.ShortestPath(source, sink)
			if len(path) >= minCriticalPathLen {
				paths = append(paths, path)
			}
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i][0] < paths[j][0]
	})
	if len(paths) > maxCriticalPaths {
		paths = paths[:maxCriticalPaths]
	}
	return paths
}

// AvgDegree is the mean total degree (in + out) across all nodes.
func (g *DiGraph) AvgDegree() float64 {
	if len(g.nodes) == 0 {
		return 0
	}
	total := 0
	for n := range g.nodes {
		total += g.InDegree(n) + g.OutDegree(n)
	}
	return float64(total) / float64(len(g.nodes))
}
