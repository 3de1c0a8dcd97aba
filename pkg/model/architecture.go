package model

import (
	"strings"
)

// NodeType classifies a node in the reconstructed dependency graph.
type NodeType string

const (
	NodeTypeService  NodeType = "service"
	NodeTypeDatabase NodeType = "database"
	NodeTypeExternal NodeType = "external"
)

var databaseMarkers = []string{"postgres", "mysql", "mongo", "redis", "dynamodb", "cosmosdb"}

var externalMarkers = []string{"http://", "https://", "api.", "external"}

// ClassifyNode infers the type of a node from its identifier. The
// identifier is a service name for server spans and the raw downstream
// string (service name, database URI or external URL) otherwise.
func ClassifyNode(id string) NodeType {
	lower := strings.ToLower(id)

	for _, m := range databaseMarkers {
		if strings.Contains(lower, m) {
			return NodeTypeDatabase
		}
	}
	for _, m := range externalMarkers {
		if strings.Contains(lower, m) {
			return NodeTypeExternal
		}
	}
	return NodeTypeService
}

// Metrics are the aggregates attached to both nodes and edges.
type Metrics struct {
	CallCount    int     `json:"call_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

// Node is a vertex in the reconstructed dependency graph. Nodes are
// derived from spans on demand and never stored.
type Node struct {
	ID      string   `json:"id"`
	Type    NodeType `json:"type"`
	Metrics Metrics  `json:"metrics"`
}

// Edge is a directed arc between a calling service and its downstream.
type Edge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	CallCount    int     `json:"call_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRate    float64 `json:"error_rate"`
}

// MetricsSummary is the tenant-wide rollup returned alongside the
// architecture graph.
type MetricsSummary struct {
	TotalSpans     int     `json:"total_spans"`
	UniqueServices int     `json:"unique_services"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	ErrorRate      float64 `json:"error_rate"`
}

// Architecture is the full derived view of a tenant's runtime topology.
type Architecture struct {
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
	Summary MetricsSummary `json:"metrics_summary"`
}
