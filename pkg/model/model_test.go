package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNode(t *testing.T) {
	tests := map[string]NodeType{
		"checkout":                  NodeTypeService,
		"postgres://users":          NodeTypeDatabase,
		"MySQL-primary":             NodeTypeDatabase,
		"redis-cache":               NodeTypeDatabase,
		"mongo.internal":            NodeTypeDatabase,
		"dynamodb.us-east-1":        NodeTypeDatabase,
		"https://api.stripe.com":    NodeTypeExternal,
		"http://legacy.example.com": NodeTypeExternal,
		"api.github.com":            NodeTypeExternal,
		"external-payment-gateway":  NodeTypeExternal,
		"orders-v2":                 NodeTypeService,
	}

	for id, want := range tests {
		t.Run(id, func(t *testing.T) {
			require.Equal(t, want, ClassifyNode(id))
		})
	}
}

func TestSpanFailed(t *testing.T) {
	code := func(c int) *int { return &c }

	tests := []struct {
		name string
		span Span
		want bool
	}{
		{"no status no error", Span{}, false},
		{"ok status", Span{StatusCode: code(200)}, false},
		{"client error does not count", Span{StatusCode: code(404)}, false},
		{"server error", Span{StatusCode: code(500)}, true},
		{"bad gateway", Span{StatusCode: code(502)}, true},
		{"explicit error string", Span{Error: "connection refused"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.span.Failed())
		})
	}
}

func TestSpanIsRoot(t *testing.T) {
	require.True(t, (&Span{}).IsRoot())
	require.False(t, (&Span{ParentSpanID: "abc"}).IsRoot())
}

func TestValidKind(t *testing.T) {
	require.True(t, ValidKind(SpanKindServer))
	require.True(t, ValidKind(SpanKindClient))
	require.True(t, ValidKind(SpanKindInternal))
	require.False(t, ValidKind("producer"))
	require.False(t, ValidKind(""))
}

func TestIssueIDStable(t *testing.T) {
	id1 := IssueID(IssueHighLatencyEdge, []string{"a", "b"})
	id2 := IssueID(IssueHighLatencyEdge, []string{"b", "a"})
	require.Equal(t, id1, id2, "node order must not change the ID")
	assert.Contains(t, id1, "high-")

	other := IssueID(IssueHighErrorRate, []string{"a", "b"})
	require.NotEqual(t, id1, other)

	otherNodes := IssueID(IssueHighLatencyEdge, []string{"a", "c"})
	require.NotEqual(t, id1, otherNodes)
}

func TestSeverityRank(t *testing.T) {
	require.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityHigh))
	require.Greater(t, SeverityRank(SeverityHigh), SeverityRank(SeverityMedium))
	require.Greater(t, SeverityRank(SeverityMedium), SeverityRank(SeverityLow))
}

func TestWorkflowChangeCount(t *testing.T) {
	w := Workflow{ProposedChanges: []WorkflowChange{{Type: "caching"}, {Type: "resilience"}}}
	require.Equal(t, 2, w.ChangeCount())
}

// Exercised here to pin down the wire format: timestamps must survive a
// round trip at millisecond resolution.
func TestSpanTimestamps(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Span{StartTime: start, EndTime: start.Add(250 * time.Millisecond), LatencyMs: 250}
	require.Equal(t, 250.0, s.LatencyMs)
	require.True(t, s.EndTime.After(s.StartTime))
}
