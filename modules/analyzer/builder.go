// Package analyzer reconstructs a tenant's dependency graph from a span
// snapshot and detects architectural issues against it. Everything here
// is a pure function of the snapshot: once the spans are handed over, no
// component reaches back to storage.
package analyzer

import (
	"sort"

	"github.com/nexarch/nexarch/pkg/graph"
	"github.com/nexarch/nexarch/pkg/model"
)

type edgeKey struct {
	source string
	target string
}

// BuildArchitecture derives the node and edge sets with aggregated
// metrics from a span snapshot. typeHints optionally override the
// string-based node classification with self-declared service types
// from the discovery table.
//
// Node metrics aggregate the spans reported by that service; a node
// known only as a downstream target carries zero metrics. Edge metrics
// aggregate the spans naming that (service, downstream) pair. Spans
// without a downstream contribute to node metrics only.
func BuildArchitecture(spans []model.Span, typeHints map[string]model.NodeType) model.Architecture {
	nodeAcc := make(map[string]*accumulator)
	edgeAcc := make(map[edgeKey]*accumulator)
	var total accumulator

	for i := range spans {
		s := &spans[i]
		total.observe(s)

		acc := nodeAcc[s.ServiceName]
		if acc == nil {
			acc = &accumulator{}
			nodeAcc[s.ServiceName] = acc
		}
		acc.observe(s)

		if s.Downstream != "" {
			// downstream-only nodes still appear, with zero metrics
			if _, ok := nodeAcc[s.Downstream]; !ok {
				nodeAcc[s.Downstream] = &accumulator{}
			}

			k := edgeKey{source: s.ServiceName, target: s.Downstream}
			eacc := edgeAcc[k]
			if eacc == nil {
				eacc = &accumulator{}
				edgeAcc[k] = eacc
			}
			eacc.observe(s)
		}
	}

	uniqueServices := 0
	nodes := make([]model.Node, 0, len(nodeAcc))
	for id, acc := range nodeAcc {
		nodeType := model.ClassifyNode(id)
		if hint, ok := typeHints[id]; ok {
			nodeType = hint
		}
		if acc.count > 0 {
			uniqueServices++
		}
		nodes = append(nodes, model.Node{ID: id, Type: nodeType, Metrics: acc.metrics()})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]model.Edge, 0, len(edgeAcc))
	for k, acc := range edgeAcc {
		m := acc.metrics()
		edges = append(edges, model.Edge{
			Source:       k.source,
			Target:       k.target,
			CallCount:    m.CallCount,
			AvgLatencyMs: m.AvgLatencyMs,
			ErrorRate:    m.ErrorRate,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	summary := model.MetricsSummary{TotalSpans: total.count, UniqueServices: uniqueServices}
	if total.count > 0 {
		m := total.metrics()
		summary.AvgLatencyMs = m.AvgLatencyMs
		summary.ErrorRate = m.ErrorRate
	}

	return model.Architecture{Nodes: nodes, Edges: edges, Summary: summary}
}

// Topology projects the architecture onto a bare directed graph for the
// structural rules and graph measures.
func Topology(arch *model.Architecture) *graph.DiGraph {
	g := graph.New()
	for _, n := range arch.Nodes {
		g.AddNode(n.ID)
	}
	for _, e := range arch.Edges {
		g.AddEdge(e.Source, e.Target)
	}
	return g
}

// ValidHint reports whether a self-declared service type from the
// discovery table may override the string-based classifier.
func ValidHint(t model.NodeType) bool {
	switch t {
	case model.NodeTypeService, model.NodeTypeDatabase, model.NodeTypeExternal:
		return true
	}
	return false
}
