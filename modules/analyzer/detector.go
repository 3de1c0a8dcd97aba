package analyzer

import (
	"fmt"
	"sort"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexarch/nexarch/pkg/graph"
	"github.com/nexarch/nexarch/pkg/model"
)

var metricRulePanics = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nexarch",
	Name:      "detector_rule_panics_total",
	Help:      "Detection rules skipped because they panicked.",
}, []string{"rule"})

// Thresholds are the effective per-tenant detection limits. All
// comparisons are strict: a value exactly at the threshold does not
// fire.
type Thresholds struct {
	HighLatencyMs float64
	HighErrorRate float64
	MaxChainDepth int
	MaxFanOut     int
	MaxInDegree   int
}

// Detector runs the rule set over a reconstructed architecture. Rules
// are independent and share no mutable state; a rule that fails
// internally is logged and skipped, the remaining rules still report.
type Detector struct {
	logger kitlog.Logger
}

func NewDetector(logger kitlog.Logger) *Detector {
	return &Detector{logger: logger}
}

type rule struct {
	name string
	run  func(*model.Architecture, *graph.DiGraph, Thresholds) []model.Issue
}

// Detect runs every rule and returns the union of their findings,
// ordered by severity (highest first) then ID so repeated runs over the
// same graph produce the identical list.
func (d *Detector) Detect(arch *model.Architecture, g *graph.DiGraph, th Thresholds) []model.Issue {
	rules := []rule{
		{"high_latency_edge", detectHighLatencyEdges},
		{"deep_sync_chain", detectDeepSyncChains},
		{"high_error_rate", detectHighErrorNodes},
		{"fan_out_overload", detectFanOutOverload},
		{"single_point_of_failure", detectSinglePointsOfFailure},
	}

	var issues []model.Issue
	for _, r := range rules {
		issues = append(issues, d.runRule(r, arch, g, th)...)
	}

	sortIssues(issues)
	return issues
}

func (d *Detector) runRule(r rule, arch *model.Architecture, g *graph.DiGraph, th Thresholds) (issues []model.Issue) {
	defer func() {
		if p := recover(); p != nil {
			metricRulePanics.WithLabelValues(r.name).Inc()
			level.Error(d.logger).Log("msg", "detection rule panicked, skipping", "rule", r.name, "panic", p)
			issues = nil
		}
	}()
	return r.run(arch, g, th)
}

func detectHighLatencyEdges(arch *model.Architecture, _ *graph.DiGraph, th Thresholds) []model.Issue {
	var issues []model.Issue
	for _, e := range arch.Edges {
		if e.AvgLatencyMs <= th.HighLatencyMs {
			continue
		}
		affected := []string{e.Source, e.Target}
		issues = append(issues, model.Issue{
			ID:            model.IssueID(model.IssueHighLatencyEdge, affected),
			Type:          model.IssueHighLatencyEdge,
			Severity:      model.SeverityHigh,
			Description:   fmt.Sprintf("Edge %s -> %s has high latency (%.0fms)", e.Source, e.Target, e.AvgLatencyMs),
			AffectedNodes: affected,
			MetricValue:   e.AvgLatencyMs,
			Evidence: map[string]interface{}{
				"threshold":  th.HighLatencyMs,
				"actual":     e.AvgLatencyMs,
				"call_count": e.CallCount,
			},
		})
	}
	return issues
}

func detectDeepSyncChains(_ *model.Architecture, g *graph.DiGraph, th Thresholds) []model.Issue {
	var issues []model.Issue
	depths := g.Depths()
	for _, n := range g.Nodes() {
		depth := depths[n]
		if depth <= th.MaxChainDepth {
			continue
		}
		affected := []string{n}
		issues = append(issues, model.Issue{
			ID:            model.IssueID(model.IssueDeepSyncChain, affected),
			Type:          model.IssueDeepSyncChain,
			Severity:      model.SeverityMedium,
			Description:   fmt.Sprintf("Service %s has deep sync chain (depth=%d)", n, depth),
			AffectedNodes: affected,
			MetricValue:   float64(depth),
			Evidence: map[string]interface{}{
				"threshold":    th.MaxChainDepth,
				"actual_depth": depth,
			},
		})
	}
	return issues
}

func detectHighErrorNodes(arch *model.Architecture, _ *graph.DiGraph, th Thresholds) []model.Issue {
	var issues []model.Issue
	for _, n := range arch.Nodes {
		if n.Metrics.ErrorRate <= th.HighErrorRate {
			continue
		}
		affected := []string{n.ID}
		issues = append(issues, model.Issue{
			ID:            model.IssueID(model.IssueHighErrorRate, affected),
			Type:          model.IssueHighErrorRate,
			Severity:      model.SeverityCritical,
			Description:   fmt.Sprintf("Service %s has high error rate (%.1f%%)", n.ID, n.Metrics.ErrorRate*100),
			AffectedNodes: affected,
			MetricValue:   n.Metrics.ErrorRate,
			Evidence: map[string]interface{}{
				"threshold":  th.HighErrorRate,
				"actual":     n.Metrics.ErrorRate,
				"call_count": n.Metrics.CallCount,
			},
		})
	}
	return issues
}

func detectFanOutOverload(_ *model.Architecture, g *graph.DiGraph, th Thresholds) []model.Issue {
	var issues []model.Issue
	for _, n := range g.Nodes() {
		outDegree := g.OutDegree(n)
		if outDegree <= th.MaxFanOut {
			continue
		}
		affected := []string{n}
		issues = append(issues, model.Issue{
			ID:            model.IssueID(model.IssueFanOutOverload, affected),
			Type:          model.IssueFanOutOverload,
			Severity:      model.SeverityMedium,
			Description:   fmt.Sprintf("Service %s calls too many services (%d)", n, outDegree),
			AffectedNodes: affected,
			MetricValue:   float64(outDegree),
			Evidence: map[string]interface{}{
				"threshold": th.MaxFanOut,
				"actual":    outDegree,
				"targets":   g.Successors(n),
			},
		})
	}
	return issues
}

func detectSinglePointsOfFailure(_ *model.Architecture, g *graph.DiGraph, th Thresholds) []model.Issue {
	var issues []model.Issue
	for _, n := range g.Nodes() {
		inDegree := g.InDegree(n)
		if inDegree <= th.MaxInDegree {
			continue
		}
		affected := []string{n}
		issues = append(issues, model.Issue{
			ID:            model.IssueID(model.IssueSinglePointOfFailure, affected),
			Type:          model.IssueSinglePointOfFailure,
			Severity:      model.SeverityHigh,
			Description:   fmt.Sprintf("Service %s is a single point of failure with %d dependents", n, inDegree),
			AffectedNodes: affected,
			MetricValue:   float64(inDegree),
			Evidence: map[string]interface{}{
				"dependent_services": g.Predecessors(n),
				"in_degree":          inDegree,
			},
		})
	}
	return issues
}

func sortIssues(issues []model.Issue) {
	sort.Slice(issues, func(i, j int) bool { return issueLess(issues[i], issues[j]) })
}

func issueLess(a, b model.Issue) bool {
	if model.SeverityRank(a.Severity) != model.SeverityRank(b.Severity) {
		return model.SeverityRank(a.Severity) > model.SeverityRank(b.Severity)
	}
	if a.MetricValue != b.MetricValue {
		return a.MetricValue > b.MetricValue
	}
	return a.ID < b.ID
}
