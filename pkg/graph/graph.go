// Package graph implements the directed-graph primitives the analyzers
// run on. Graphs are reconstructed per analysis from a span snapshot and
// are small (well under 10^4 nodes), so a plain adjacency-list
// representation is used throughout. All accessors return nodes in
// sorted order so that analysis output is deterministic regardless of
// insertion order.
package graph

import (
	"sort"
)

// DiGraph is a directed graph over string node IDs. Self-loops are
// allowed; parallel edges collapse.
type DiGraph struct {
	nodes map[string]struct{}
	succ  map[string]map[string]struct{}
	pred  map[string]map[string]struct{}
}

func New() *DiGraph {
	return &DiGraph{
		nodes: make(map[string]struct{}),
		succ:  make(map[string]map[string]struct{}),
		pred:  make(map[string]map[string]struct{}),
	}
}

func (g *DiGraph) AddNode(id string) {
	g.nodes[id] = struct{}{}
}

// AddEdge inserts the directed edge source -> target, adding both
// endpoints if they are not present yet.
func (g *DiGraph) AddEdge(source, target string) {
	g.AddNode(source)
	g.AddNode(target)

	if g.succ[source] == nil {
		g.succ[source] = make(map[string]struct{})
	}
	g.succ[source][target] = struct{}{}

	if g.pred[target] == nil {
		g.pred[target] = make(map[string]struct{})
	}
	g.pred[target][source] = struct{}{}
}

func (g *DiGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *DiGraph) HasEdge(source, target string) bool {
	_, ok := g.succ[source][target]
	return ok
}

func (g *DiGraph) NumNodes() int { return len(g.nodes) }

func (g *DiGraph) NumEdges() int {
	n := 0
	for _, targets := range g.succ {
		n += len(targets)
	}
	return n
}

// Nodes returns all node IDs in sorted order.
func (g *DiGraph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges as [source, target] pairs, sorted.
func (g *DiGraph) Edges() [][2]string {
	out := make([][2]string, 0)
	for source, targets := range g.succ {
		for target := range targets {
			out = append(out, [2]string{source, target})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Successors returns the direct downstream neighbours of n, sorted.
func (g *DiGraph) Successors(n string) []string {
	return sortedKeys(g.succ[n])
}

// Predecessors returns the direct upstream neighbours of n, sorted.
func (g *DiGraph) Predecessors(n string) []string {
	return sortedKeys(g.pred[n])
}

func (g *DiGraph) OutDegree(n string) int { return len(g.succ[n]) }

func (g *DiGraph) InDegree(n string) int { return len(g.pred[n]) }

// Sources returns nodes with no incoming edges.
func (g *DiGraph) Sources() []string {
	out := make([]string, 0)
	for _, n := range g.Nodes() {
		if g.InDegree(n) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns nodes with no outgoing edges.
func (g *DiGraph) Sinks() []string {
	out := make([]string, 0)
	for _, n := range g.Nodes() {
		if g.OutDegree(n) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// WithoutSelfLoops returns a copy of the graph with self-loop edges
// removed.
func (g *DiGraph) WithoutSelfLoops() *DiGraph {
	out := New()
	for n := range g.nodes {
		out.AddNode(n)
	}
	for source, targets := range g.succ {
		for target := range targets {
			if source != target {
				out.AddEdge(source, target)
			}
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
