package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/nexarch/nexarch/pkg/model"
)

// InmemoryStore keeps spans in process memory with the same contract as
// the Postgres store: idempotent writes, tenant-partitioned reads.
type InmemoryStore struct {
	mtx       sync.RWMutex
	spans     map[string]map[string]model.Span // tenant -> span_id -> span
	discovery map[string]map[string]DiscoveryRecord
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		spans:     make(map[string]map[string]model.Span),
		discovery: make(map[string]map[string]DiscoveryRecord),
	}
}

func (s *InmemoryStore) WriteSpan(_ context.Context, tenantID string, span *model.Span) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tenantSpans, ok := s.spans[tenantID]
	if !ok {
		tenantSpans = make(map[string]model.Span)
		s.spans[tenantID] = tenantSpans
	}
	if _, dup := tenantSpans[span.SpanID]; dup {
		return nil
	}
	tenantSpans[span.SpanID] = *span
	return nil
}

func (s *InmemoryStore) WriteBatch(ctx context.Context, tenantID string, spans []model.Span) (int, []FailedWrite) {
	for i := range spans {
		// in-memory writes cannot fail
		_ = s.WriteSpan(ctx, tenantID, &spans[i])
	}
	return len(spans), nil
}

func (s *InmemoryStore) QuerySpans(_ context.Context, tenantID string, filter SpanFilter) ([]model.Span, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]model.Span, 0)
	for _, span := range s.spans[tenantID] {
		if !filter.Start.IsZero() && span.StartTime.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && span.StartTime.After(filter.End) {
			continue
		}
		if filter.ServiceName != "" && span.ServiceName != filter.ServiceName {
			continue
		}
		if filter.TraceID != "" && span.TraceID != filter.TraceID {
			continue
		}
		if filter.Downstream != "" && span.Downstream != filter.Downstream {
			continue
		}
		out = append(out, span)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].SpanID < out[j].SpanID
	})
	return out, nil
}

func (s *InmemoryStore) WriteDiscovery(_ context.Context, tenantID string, rec DiscoveryRecord) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tenantRecs, ok := s.discovery[tenantID]
	if !ok {
		tenantRecs = make(map[string]DiscoveryRecord)
		s.discovery[tenantID] = tenantRecs
	}
	tenantRecs[rec.ServiceName] = rec
	return nil
}

func (s *InmemoryStore) QueryDiscovery(_ context.Context, tenantID string) ([]DiscoveryRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]DiscoveryRecord, 0, len(s.discovery[tenantID]))
	for _, rec := range s.discovery[tenantID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out, nil
}

func (s *InmemoryStore) Close() error { return nil }
