package model

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Severity buckets for detected issues.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank orders severities for ranking, highest first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

// IssueType names the rule that fired.
type IssueType string

const (
	IssueHighLatencyEdge      IssueType = "high_latency_edge"
	IssueDeepSyncChain        IssueType = "deep_sync_chain"
	IssueHighErrorRate        IssueType = "high_error_rate"
	IssueFanOutOverload       IssueType = "fan_out_overload"
	IssueSinglePointOfFailure IssueType = "single_point_of_failure"
)

// Issue is a rule-fired finding over the dependency graph.
type Issue struct {
	ID            string                 `json:"id"`
	Type          IssueType              `json:"type"`
	Severity      Severity               `json:"severity"`
	Description   string                 `json:"description"`
	AffectedNodes []string               `json:"affected_nodes"`
	MetricValue   float64                `json:"metric_value"`
	Evidence      map[string]interface{} `json:"evidence"`
}

// IssueID derives a stable identifier from the rule type and the
// affected nodes. Two analyses over identical graphs must produce
// identical IDs, so the nodes are sorted before hashing.
func IssueID(t IssueType, affected []string) string {
	sorted := make([]string, len(affected))
	copy(sorted, affected)
	sort.Strings(sorted)

	h := fnv.New64a()
	_, _ = h.Write([]byte(t))
	for _, n := range sorted {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(n))
	}

	prefix := strings.SplitN(string(t), "_", 2)[0]
	return fmt.Sprintf("%s-%016x", prefix, h.Sum64())
}
