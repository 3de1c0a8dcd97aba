package model

import (
	"time"
)

// SpanKind is the role a span played in the call it describes.
type SpanKind string

const (
	SpanKindServer   SpanKind = "server"
	SpanKindClient   SpanKind = "client"
	SpanKindInternal SpanKind = "internal"
)

// ValidKind reports whether k is one of the supported span kinds.
func ValidKind(k SpanKind) bool {
	switch k {
	case SpanKindServer, SpanKindClient, SpanKindInternal:
		return true
	}
	return false
}

// Span is a single observed operation reported by an instrumented
// application. Spans are append-only: once accepted they are never
// mutated. Correlation between spans is purely by ID, arrival order
// carries no meaning.
type Span struct {
	TraceID      string    `json:"trace_id" db:"trace_id"`
	SpanID       string    `json:"span_id" db:"span_id"`
	ParentSpanID string    `json:"parent_span_id,omitempty" db:"parent_span_id"`
	ServiceName  string    `json:"service_name" db:"service_name"`
	Operation    string    `json:"operation" db:"operation"`
	Kind         SpanKind  `json:"kind" db:"kind"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	EndTime      time.Time `json:"end_time" db:"end_time"`
	// LatencyMs is carried explicitly on the wire rather than derived
	// from the timestamps so that clock skew between the reporting host
	// and the server does not distort aggregation.
	LatencyMs  float64 `json:"latency_ms" db:"latency_ms"`
	StatusCode *int    `json:"status_code,omitempty" db:"status_code"`
	Error      string  `json:"error,omitempty" db:"error"`
	Downstream string  `json:"downstream,omitempty" db:"downstream"`
}

// IsRoot reports whether the span has no parent.
func (s *Span) IsRoot() bool {
	return s.ParentSpanID == ""
}

// Failed reports whether the span counts toward error rates. Client
// errors (4xx) deliberately do not count, only 5xx or an explicit error
// string.
func (s *Span) Failed() bool {
	if s.Error != "" {
		return true
	}
	return s.StatusCode != nil && *s.StatusCode >= 500
}
