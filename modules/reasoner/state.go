// Package reasoner turns detected issues into remediation workflows by
// walking a deterministic state graph: detect, classify, analyze,
// select strategies, then either finalize (no issues) or fan out into
// three generators whose outputs land in a fixed order. Every node is a
// pure function of the state; there are no external calls and no
// stochastic choices.
package reasoner

import (
	"github.com/nexarch/nexarch/modules/analyzer"
	"github.com/nexarch/nexarch/pkg/graph"
	"github.com/nexarch/nexarch/pkg/model"
)

// Issue categories used by classification.
const (
	CategoryPerformance = "performance"
	CategoryReliability = "reliability"
	CategoryCoupling    = "coupling"
)

// Strategies records which remediation strategies the detected issues
// call for.
type Strategies struct {
	NeedsCaching        bool `json:"needs_caching"`
	NeedsAsync          bool `json:"needs_async"`
	NeedsCircuitBreaker bool `json:"needs_circuit_breaker"`
	NeedsBulkhead       bool `json:"needs_bulkhead"`
	NeedsConsolidation  bool `json:"needs_consolidation"`
}

// State is the value threaded through the pipeline nodes.
type State struct {
	Arch             *model.Architecture
	Graph            *graph.DiGraph
	Issues           []model.Issue
	IssueCategories  map[string][]model.Issue
	Strategies       Strategies
	Analysis         analyzer.GraphAnalysis
	Workflows        []model.Workflow
	AnalysisComplete bool
}

// nodeType looks up the type of a node in the architecture; unknown
// nodes default to service.
func (s *State) nodeType(id string) model.NodeType {
	for _, n := range s.Arch.Nodes {
		if n.ID == id {
			return n.Type
		}
	}
	return model.NodeTypeService
}
