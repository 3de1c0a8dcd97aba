package analyzer

import (
	"github.com/nexarch/nexarch/pkg/graph"
)

// Centrality above which a node is flagged as a bottleneck.
const bottleneckCentrality = 0.3

// GraphAnalysis is the advanced-measures view served by the read
// surface and consumed by strategy selection.
type GraphAnalysis struct {
	NodeCount     int                `json:"node_count"`
	EdgeCount     int                `json:"edge_count"`
	CriticalPaths [][]string         `json:"critical_paths"`
	Bottlenecks   []string           `json:"bottlenecks"`
	Cycles        [][]string         `json:"cycles"`
	Centrality    map[string]float64 `json:"centrality"`
	AvgDegree     float64            `json:"avg_degree"`
	IsDAG         bool               `json:"is_dag"`
}

// Analyze computes the full set of graph measures over the topology.
func Analyze(g *graph.DiGraph) GraphAnalysis {
	centrality := g.BetweennessCentrality()

	var bottlenecks []string
	for _, n := range g.Nodes() {
		if centrality[n] > bottleneckCentrality {
			bottlenecks = append(bottlenecks, n)
		}
	}

	return GraphAnalysis{
		NodeCount:     g.NumNodes(),
		EdgeCount:     g.NumEdges(),
		CriticalPaths: g.CriticalPaths(),
		Bottlenecks:   bottlenecks,
		Cycles:        g.Cycles(),
		Centrality:    centrality,
		AvgDegree:     round4(g.AvgDegree()),
		IsDAG:         g.IsDAG(),
	}
}
