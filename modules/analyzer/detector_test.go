package analyzer

import (
	"fmt"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexarch/nexarch/pkg/graph"
	"github.com/nexarch/nexarch/pkg/model"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		HighLatencyMs: 1000,
		HighErrorRate: 0.05,
		MaxChainDepth: 5,
		MaxFanOut:     10,
		MaxInDegree:   5,
	}
}

func detect(t *testing.T, spans []model.Span) []model.Issue {
	t.Helper()
	arch := BuildArchitecture(spans, nil)
	g := Topology(&arch)
	return NewDetector(log.NewNopLogger()).Detect(&arch, g, defaultThresholds())
}

func issuesOfType(issues []model.Issue, it model.IssueType) []model.Issue {
	var out []model.Issue
	for _, i := range issues {
		if i.Type == it {
			out = append(out, i)
		}
	}
	return out
}

func TestHighLatencyEdgeRule(t *testing.T) {
	spans := []model.Span{
		span("A", "B", 1200, 200),
		span("A", "B", 1300, 200),
		span("A", "B", 1100, 500),
	}
	issues := detect(t, spans)

	latency := issuesOfType(issues, model.IssueHighLatencyEdge)
	require.Len(t, latency, 1)
	i := latency[0]
	require.Equal(t, model.SeverityHigh, i.Severity)
	require.Equal(t, []string{"A", "B"}, i.AffectedNodes)
	require.Equal(t, 1200.0, i.MetricValue)
	require.Equal(t, 1000.0, i.Evidence["threshold"])
	require.Equal(t, 3, i.Evidence["call_count"])

	// error rate 1/3 > 0.05 fires on node A (the reporting service)
	errorIssues := issuesOfType(issues, model.IssueHighErrorRate)
	require.Len(t, errorIssues, 1)
	require.Equal(t, model.SeverityCritical, errorIssues[0].Severity)
	require.Equal(t, []string{"A"}, errorIssues[0].AffectedNodes)
}

func TestLatencyAtThresholdDoesNotFire(t *testing.T) {
	issues := detect(t, []model.Span{span("A", "B", 1000, 200)})
	require.Empty(t, issuesOfType(issues, model.IssueHighLatencyEdge))
}

// Chain A -> B -> ... -> G: depth 6 from A exceeds the default of 5.
func TestDeepSyncChainRule(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	var spans []model.Span
	for i := 0; i < len(names)-1; i++ {
		spans = append(spans, span(names[i], names[i+1], 100, 200))
	}
	issues := detect(t, spans)

	chain := issuesOfType(issues, model.IssueDeepSyncChain)
	require.Len(t, chain, 1)
	require.Equal(t, []string{"A"}, chain[0].AffectedNodes)
	require.Equal(t, 6.0, chain[0].MetricValue)
	require.Equal(t, model.SeverityMedium, chain[0].Severity)

	// no other rule fires on a clean 100ms chain
	require.Len(t, issues, 1)
}

func TestFanOutRule(t *testing.T) {
	var spans []model.Span
	for i := 1; i <= 12; i++ {
		spans = append(spans, span("A", fmt.Sprintf("B%02d", i), 100, 200))
	}
	issues := detect(t, spans)

	require.Len(t, issues, 1)
	i := issues[0]
	require.Equal(t, model.IssueFanOutOverload, i.Type)
	require.Equal(t, 12.0, i.MetricValue)
	require.Len(t, i.Evidence["targets"].([]string), 12)
}

func TestSinglePointOfFailureRule(t *testing.T) {
	var spans []model.Span
	for i := 1; i <= 7; i++ {
		spans = append(spans, span(fmt.Sprintf("B%d", i), "A", 100, 200))
	}
	issues := detect(t, spans)

	spof := issuesOfType(issues, model.IssueSinglePointOfFailure)
	require.Len(t, spof, 1)
	require.Equal(t, []string{"A"}, spof[0].AffectedNodes)
	require.Equal(t, 7.0, spof[0].MetricValue)
	require.Len(t, spof[0].Evidence["dependent_services"].([]string), 7)
}

func TestIssueIDsStableAcrossRuns(t *testing.T) {
	spans := []model.Span{
		span("A", "B", 2000, 500),
		span("B", "C", 1500, 200),
	}

	ids := func() []string {
		var out []string
		for _, i := range detect(t, spans) {
			out = append(out, i.ID)
		}
		return out
	}

	require.Equal(t, ids(), ids())
}

func TestIssuesOrderedBySeverity(t *testing.T) {
	// one critical (error rate) and one medium (fan-out) issue
	var spans []model.Span
	for i := 1; i <= 12; i++ {
		spans = append(spans, span("A", fmt.Sprintf("B%02d", i), 100, 500))
	}
	issues := detect(t, spans)

	require.GreaterOrEqual(t, len(issues), 2)
	for i := 1; i < len(issues); i++ {
		require.GreaterOrEqual(t,
			model.SeverityRank(issues[i-1].Severity),
			model.SeverityRank(issues[i].Severity))
	}
}

func TestEmptyGraphNoIssues(t *testing.T) {
	require.Empty(t, detect(t, nil))
}

func TestRulePanicIsIsolated(t *testing.T) {
	d := NewDetector(log.NewNopLogger())

	panicking := rule{name: "explosive", run: func(*model.Architecture, *graph.DiGraph, Thresholds) []model.Issue {
		panic("boom")
	}}

	issues := d.runRule(panicking, &model.Architecture{}, graph.New(), defaultThresholds())
	assert.Nil(t, issues)
}
