package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexarch/nexarch/pkg/model"
)

var (
	metricSpansWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "store_spans_written_total",
		Help:      "Spans durably written per tenant.",
	}, []string{"tenant"})
	metricSpansDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "store_spans_duplicate_total",
		Help:      "Span writes skipped because the span_id already existed.",
	}, []string{"tenant"})
)

const schema = `
CREATE TABLE IF NOT EXISTS spans (
	id              BIGSERIAL PRIMARY KEY,
	tenant_id       VARCHAR(128) NOT NULL,
	trace_id        VARCHAR(64)  NOT NULL,
	span_id         VARCHAR(64)  NOT NULL,
	parent_span_id  VARCHAR(64),
	service_name    VARCHAR(255) NOT NULL,
	operation       VARCHAR(255) NOT NULL,
	kind            VARCHAR(16)  NOT NULL,
	start_time      TIMESTAMPTZ  NOT NULL,
	end_time        TIMESTAMPTZ  NOT NULL,
	latency_ms      DOUBLE PRECISION NOT NULL,
	status_code     INTEGER,
	error           TEXT,
	downstream      VARCHAR(255),
	created_at      TIMESTAMPTZ  NOT NULL DEFAULT now(),
	CONSTRAINT spans_tenant_span_unique UNIQUE (tenant_id, span_id)
);

CREATE INDEX IF NOT EXISTS idx_spans_tenant_trace_start
	ON spans (tenant_id, trace_id, start_time);
CREATE INDEX IF NOT EXISTS idx_spans_tenant_service_start
	ON spans (tenant_id, service_name, start_time);

CREATE TABLE IF NOT EXISTS service_discovery (
	tenant_id     VARCHAR(128) NOT NULL,
	service_name  VARCHAR(255) NOT NULL,
	service_type  VARCHAR(32)  NOT NULL,
	description   TEXT,
	updated_at    TIMESTAMPTZ  NOT NULL,
	PRIMARY KEY (tenant_id, service_name)
);
`

const insertSpanSQL = `
INSERT INTO spans (tenant_id, trace_id, span_id, parent_span_id, service_name,
	operation, kind, start_time, end_time, latency_ms, status_code, error, downstream)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (tenant_id, span_id) DO NOTHING`

const upsertDiscoverySQL = `
INSERT INTO service_discovery (tenant_id, service_name, service_type, description, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, service_name) DO UPDATE
	SET service_type = EXCLUDED.service_type,
	    description  = EXCLUDED.description,
	    updated_at   = EXCLUDED.updated_at`

type postgresStore struct {
	db *sqlx.DB
}

func newPostgresStore(cfg PostgresConfig) (Store, error) {
	db, err := sqlx.Open("pgx", cfg.ConnectionString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := &postgresStore{db: db}
	if err := s.createSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *postgresStore) createSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create span schema")
	}
	return nil
}

// spanRow is the scan target; nullable columns need sql.Null wrappers.
type spanRow struct {
	TenantID     string         `db:"tenant_id"`
	TraceID      string         `db:"trace_id"`
	SpanID       string         `db:"span_id"`
	ParentSpanID sql.NullString `db:"parent_span_id"`
	ServiceName  string         `db:"service_name"`
	Operation    string         `db:"operation"`
	Kind         string         `db:"kind"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      time.Time      `db:"end_time"`
	LatencyMs    float64        `db:"latency_ms"`
	StatusCode   sql.NullInt32  `db:"status_code"`
	Error        sql.NullString `db:"error"`
	Downstream   sql.NullString `db:"downstream"`
}

func (r *spanRow) toSpan() model.Span {
	s := model.Span{
		TraceID:      r.TraceID,
		SpanID:       r.SpanID,
		ParentSpanID: r.ParentSpanID.String,
		ServiceName:  r.ServiceName,
		Operation:    r.Operation,
		Kind:         model.SpanKind(r.Kind),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		LatencyMs:    r.LatencyMs,
		Error:        r.Error.String,
		Downstream:   r.Downstream.String,
	}
	if r.StatusCode.Valid {
		code := int(r.StatusCode.Int32)
		s.StatusCode = &code
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func (s *postgresStore) WriteSpan(ctx context.Context, tenantID string, span *model.Span) error {
	res, err := s.db.ExecContext(ctx, insertSpanSQL,
		tenantID, span.TraceID, span.SpanID, nullString(span.ParentSpanID),
		span.ServiceName, span.Operation, string(span.Kind),
		span.StartTime.UTC(), span.EndTime.UTC(), span.LatencyMs,
		nullInt(span.StatusCode), nullString(span.Error), nullString(span.Downstream),
	)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "failed to write span %s: %v", span.SpanID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		metricSpansDuplicate.WithLabelValues(tenantID).Inc()
		return nil
	}
	metricSpansWritten.WithLabelValues(tenantID).Inc()
	return nil
}

func (s *postgresStore) WriteBatch(ctx context.Context, tenantID string, spans []model.Span) (int, []FailedWrite) {
	accepted := 0
	var failed []FailedWrite
	for i := range spans {
		if err := s.WriteSpan(ctx, tenantID, &spans[i]); err != nil {
			failed = append(failed, FailedWrite{Index: i, Err: err})
			continue
		}
		accepted++
	}
	return accepted, failed
}

func (s *postgresStore) QuerySpans(ctx context.Context, tenantID string, filter SpanFilter) ([]model.Span, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT tenant_id, trace_id, span_id, parent_span_id, service_name,
		operation, kind, start_time, end_time, latency_ms, status_code, error, downstream
		FROM spans WHERE tenant_id = $1`)
	args := []interface{}{tenantID}

	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		fmt.Fprintf(&sb, " AND %s $%d", cond, len(args))
	}
	if !filter.Start.IsZero() {
		addCond("start_time >=", filter.Start.UTC())
	}
	if !filter.End.IsZero() {
		addCond("start_time <=", filter.End.UTC())
	}
	if filter.ServiceName != "" {
		addCond("service_name =", filter.ServiceName)
	}
	if filter.TraceID != "" {
		addCond("trace_id =", filter.TraceID)
	}
	if filter.Downstream != "" {
		addCond("downstream =", filter.Downstream)
	}
	sb.WriteString(" ORDER BY start_time, span_id")

	var rows []spanRow
	if err := s.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "failed to query spans: %v", err)
	}

	spans := make([]model.Span, 0, len(rows))
	for i := range rows {
		spans = append(spans, rows[i].toSpan())
	}
	return spans, nil
}

func (s *postgresStore) WriteDiscovery(ctx context.Context, tenantID string, rec DiscoveryRecord) error {
	_, err := s.db.ExecContext(ctx, upsertDiscoverySQL,
		tenantID, rec.ServiceName, rec.ServiceType, nullString(rec.Description), rec.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "failed to write discovery record: %v", err)
	}
	return nil
}

func (s *postgresStore) QueryDiscovery(ctx context.Context, tenantID string) ([]DiscoveryRecord, error) {
	var recs []DiscoveryRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT service_name, service_type, COALESCE(description, '') AS description, updated_at
		 FROM service_discovery WHERE tenant_id = $1 ORDER BY service_name`, tenantID)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "failed to query discovery records: %v", err)
	}
	return recs, nil
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
