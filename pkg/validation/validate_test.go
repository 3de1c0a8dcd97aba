package validation

import (
	"context"
	"testing"
	"time"

	"github.com/grafana/dskit/user"
	"github.com/stretchr/testify/require"

	"github.com/nexarch/nexarch/pkg/model"
)

func validSpan() model.Span {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return model.Span{
		TraceID:     "trace-1",
		SpanID:      "span-1",
		ServiceName: "checkout",
		Operation:   "GET /cart",
		Kind:        model.SpanKindServer,
		StartTime:   start,
		EndTime:     start.Add(120 * time.Millisecond),
		LatencyMs:   120,
	}
}

func TestValidateSpan(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Span)
		reason Reason
	}{
		{"valid", func(*model.Span) {}, ""},
		{"missing trace id", func(s *model.Span) { s.TraceID = "" }, ReasonMissingTraceID},
		{"missing span id", func(s *model.Span) { s.SpanID = "" }, ReasonMissingSpanID},
		{"missing service", func(s *model.Span) { s.ServiceName = "" }, ReasonMissingService},
		{"missing operation", func(s *model.Span) { s.Operation = "" }, ReasonMissingOperation},
		{"bad kind", func(s *model.Span) { s.Kind = "producer" }, ReasonInvalidKind},
		{"zero start", func(s *model.Span) { s.StartTime = time.Time{} }, ReasonMissingTimes},
		{"end before start", func(s *model.Span) { s.EndTime = s.StartTime.Add(-time.Second) }, ReasonEndBeforeStart},
		{"negative latency", func(s *model.Span) { s.LatencyMs = -1 }, ReasonNegativeLatency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSpan()
			tc.mutate(&s)

			err := ValidateSpan(&s, 100, 0)
			if tc.reason == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			require.Equal(t, tc.reason, rejected.Reason)
		})
	}
}

func TestValidateSpanSizeCap(t *testing.T) {
	s := validSpan()

	require.NoError(t, ValidateSpan(&s, 1024, 2048))
	err := ValidateSpan(&s, 4096, 2048)
	require.Error(t, err)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, ReasonSpanTooLarge, rejected.Reason)

	// zero cap disables the size check
	require.NoError(t, ValidateSpan(&s, 1<<30, 0))
}

func TestExtractValidTenantID(t *testing.T) {
	_, err := ExtractValidTenantID(context.Background())
	require.Error(t, err)

	ctx := user.InjectOrgID(context.Background(), "tenant-a")
	tenantID, err := ExtractValidTenantID(ctx)
	require.NoError(t, err)
	require.Equal(t, "tenant-a", tenantID)
}
