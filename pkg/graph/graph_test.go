package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainGraph(nodes ...string) *DiGraph {
	g := New()
	for i := 0; i < len(nodes)-1; i++ {
		g.AddEdge(nodes[i], nodes[i+1])
	}
	return g
}

func TestBasicAccessors(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")
	g.AddNode("d")

	require.Equal(t, 4, g.NumNodes())
	require.Equal(t, 3, g.NumEdges())
	require.Equal(t, []string{"a", "b", "c", "d"}, g.Nodes())
	require.Equal(t, []string{"b", "c"}, g.Successors("a"))
	require.Equal(t, []string{"a", "b"}, g.Predecessors("c"))
	require.Equal(t, 2, g.OutDegree("a"))
	require.Equal(t, 2, g.InDegree("c"))
	require.Equal(t, []string{"a", "d"}, g.Sources())
	require.Equal(t, []string{"c", "d"}, g.Sinks())
	require.True(t, g.HasEdge("a", "b"))
	require.False(t, g.HasEdge("b", "a"))
}

func TestDuplicateEdgesCollapse(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	require.Equal(t, 1, g.NumEdges())
	require.Equal(t, 1, g.OutDegree("a"))
}

func TestStronglyConnectedComponents(t *testing.T) {
	g := New()
	// Cycle a->b->c->a plus a tail c->d.
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")
	g.AddEdge("c", "d")

	comps := g.StronglyConnectedComponents()
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"a", "b", "c"}, comps[0])
	assert.Equal(t, []string{"d"}, comps[1])
	assert.False(t, g.IsDAG())
}

func TestDepthsOnChain(t *testing.T) {
	g := chainGraph("A", "B", "C", "D", "E", "F", "G")

	depths := g.Depths()
	require.Equal(t, 6, depths["A"])
	require.Equal(t, 3, depths["D"])
	require.Equal(t, 0, depths["G"])
}

func TestDepthsWithCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("b", "c")

	// The a<->b cycle condenses to one component one hop above c.
	depths := g.Depths()
	require.Equal(t, 1, depths["a"])
	require.Equal(t, 1, depths["b"])
	require.Equal(t, 0, depths["c"])
}

func TestDepthsSelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")

	require.Equal(t, 0, g.Depths()["a"])
	require.False(t, g.IsDAG())
}

func TestCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "c")
	g.AddEdge("c", "d")

	cycles := g.Cycles()
	require.Len(t, cycles, 2)
	assert.Contains(t, cycles, []string{"a", "b"})
	assert.Contains(t, cycles, []string{"c"})
}

func TestBetweennessCentrality(t *testing.T) {
	// b lies on every a->c path.
	g := chainGraph("a", "b", "c")

	cb := g.BetweennessCentrality()
	assert.InDelta(t, 0.5, cb["b"], 1e-9)
	assert.Zero(t, cb["a"])
	assert.Zero(t, cb["c"])
}

func TestBetweennessCentralityHub(t *testing.T) {
	g := New()
	// hub routes every path between 3 upstream and 3 downstream nodes.
	for _, in := range []string{"u1", "u2", "u3"} {
		g.AddEdge(in, "hub")
	}
	for _, out := range []string{"d1", "d2", "d3"} {
		g.AddEdge("hub", out)
	}

	cb := g.BetweennessCentrality()
	for n, score := range cb {
		if n == "hub" {
			assert.Greater(t, score, 0.2)
		} else {
			assert.Zero(t, score)
		}
	}
}

func TestShortestPath(t *testing.T) {
	g := chainGraph("a", "b", "c", "d")
	g.AddEdge("a", "d")

	require.Equal(t, []string{"a", "d"}, g.ShortestPath("a", "d"))
	require.Nil(t, g.ShortestPath("d", "a"))
	require.Equal(t, []string{"b"}, g.ShortestPath("b", "b"))
}

func TestCriticalPaths(t *testing.T) {
	g := chainGraph("a", "b", "c", "d", "e")

	paths := g.CriticalPaths()
	require.Len(t, paths, 1)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, paths[0])
}

func TestCriticalPathsShortChainsExcluded(t *testing.T) {
	g := chainGraph("a", "b", "c")

	require.Empty(t, g.CriticalPaths())
}

func TestAvgDegree(t *testing.T) {
	g := chainGraph("a", "b", "c")

	// Two edges contribute degree 4 over three nodes.
	assert.InDelta(t, 4.0/3.0, g.AvgDegree(), 1e-9)
	assert.Zero(t, New().AvgDegree())
}

func TestDeterministicOutput(t *testing.T) {
	build := func(order []string) *DiGraph {
		g := New()
		for _, e := range order {
			g.AddEdge(e[:1], e[1:])
		}
		return g
	}

	g1 := build([]string{"ab", "bc", "ad", "dc"})
	g2 := build([]string{"dc", "ad", "bc", "ab"})

	require.Equal(t, g1.Nodes(), g2.Nodes())
	require.Equal(t, g1.Edges(), g2.Edges())
	require.Equal(t, g1.Depths(), g2.Depths())
	require.Equal(t, g1.BetweennessCentrality(), g2.BetweennessCentrality())
}
