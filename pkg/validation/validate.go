package validation

import (
	"fmt"

	"github.com/nexarch/nexarch/pkg/model"
)

// Reason identifies why a span was rejected at ingest. Reasons are part
// of the API surface: batch responses carry them per rejected item.
type Reason string

const (
	ReasonMissingTraceID   Reason = "missing trace_id"
	ReasonMissingSpanID    Reason = "missing span_id"
	ReasonMissingService   Reason = "missing service_name"
	ReasonMissingOperation Reason = "missing operation"
	ReasonInvalidKind      Reason = "invalid kind"
	ReasonMissingTimes     Reason = "missing start_time or end_time"
	ReasonEndBeforeStart   Reason = "end_time before start_time"
	ReasonNegativeLatency  Reason = "negative latency_ms"
	ReasonSpanTooLarge     Reason = "span exceeds size limit"
)

// RejectedError carries the rejection reason for a single span.
type RejectedError struct {
	Reason Reason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("span rejected: %s", e.Reason)
}

func reject(r Reason) error {
	return &RejectedError{Reason: r}
}

const maxIDLen = 64

// ValidateSpan checks a span against the ingest contract. payloadBytes
// is the serialized size the caller already knows; maxBytes is the
// per-span cap, zero disables the size check.
func ValidateSpan(s *model.Span, payloadBytes, maxBytes int) error {
	if s.TraceID == "" || len(s.TraceID) > maxIDLen {
		return reject(ReasonMissingTraceID)
	}
	if s.SpanID == "" || len(s.SpanID) > maxIDLen {
		return reject(ReasonMissingSpanID)
	}
	if s.ServiceName == "" {
		return reject(ReasonMissingService)
	}
	if s.Operation == "" {
		return reject(ReasonMissingOperation)
	}
	if !model.ValidKind(s.Kind) {
		return reject(ReasonInvalidKind)
	}
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return reject(ReasonMissingTimes)
	}
	if s.EndTime.Before(s.StartTime) {
		return reject(ReasonEndBeforeStart)
	}
	if s.LatencyMs < 0 {
		return reject(ReasonNegativeLatency)
	}
	if maxBytes > 0 && payloadBytes > maxBytes {
		return reject(ReasonSpanTooLarge)
	}
	return nil
}
