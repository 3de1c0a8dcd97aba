// Package storage implements the durable, tenant-scoped span store.
// Spans are terminal facts: writes are append-only and idempotent on
// span_id, reads hand the analyzers an immutable snapshot to work from.
package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nexarch/nexarch/pkg/model"
)

// ErrUnavailable marks failures of the underlying store. The read
// surface maps it to 503.
var ErrUnavailable = errors.New("span store unavailable")

// SpanFilter narrows a span query. Zero-valued fields do not filter.
type SpanFilter struct {
	Start       time.Time
	End         time.Time
	ServiceName string
	TraceID     string
	Downstream  string
}

// FailedWrite reports a single span of a batch that could not be
// stored. Index refers to the position in the submitted batch.
type FailedWrite struct {
	Index int
	Err   error
}

// DiscoveryRecord is an optional self-description a service can
// register; the graph builder consumes it as a node-type hint.
type DiscoveryRecord struct {
	ServiceName string    `json:"service_name" db:"service_name"`
	ServiceType string    `json:"service_type" db:"service_type"`
	Description string    `json:"description,omitempty" db:"description"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Store is the span store contract. All operations are scoped to a
// tenant; implementations must never return data across tenants.
type Store interface {
	// WriteSpan stores one span. Duplicate span IDs succeed without
	// writing.
	WriteSpan(ctx context.Context, tenantID string, span *model.Span) error

	// WriteBatch stores spans with per-span failure isolation and
	// returns the accepted count plus the failures.
	WriteBatch(ctx context.Context, tenantID string, spans []model.Span) (int, []FailedWrite)

	// QuerySpans returns the tenant's spans matching the filter.
	QuerySpans(ctx context.Context, tenantID string, filter SpanFilter) ([]model.Span, error)

	// WriteDiscovery upserts a service self-description.
	WriteDiscovery(ctx context.Context, tenantID string, rec DiscoveryRecord) error

	// QueryDiscovery returns all discovery records for the tenant.
	QueryDiscovery(ctx context.Context, tenantID string) ([]DiscoveryRecord, error)

	Close() error
}

// New builds a Store for the configured backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendPostgres:
		return newPostgresStore(cfg.Postgres)
	case BackendInmemory:
		return NewInmemoryStore(), nil
	}
	return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
}
