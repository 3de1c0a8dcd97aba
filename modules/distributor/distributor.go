// Package distributor implements the ingestion front: it validates
// spans, applies per-tenant rate limits, and hands accepted spans to a
// bounded per-tenant queue that flushes them to the span store.
package distributor

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/limiter"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexarch/nexarch/modules/distributor/queue"
	"github.com/nexarch/nexarch/modules/overrides"
	"github.com/nexarch/nexarch/modules/storage"
	"github.com/nexarch/nexarch/pkg/model"
)

var (
	// ErrRateLimited is returned when the tenant exceeded its span
	// ingestion rate. Callers should retry after backoff.
	ErrRateLimited = errors.New("ingestion rate limit exceeded")
	// ErrQueueSaturated is returned when the tenant queue is full and
	// the spans were shed.
	ErrQueueSaturated = errors.New("ingestion queue saturated")
)

var (
	metricSpansAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "distributor_spans_accepted_total",
		Help:      "Spans accepted for ingestion per tenant.",
	}, []string{"tenant"})
	metricSpansDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "distributor_spans_discarded_total",
		Help:      "Spans discarded before reaching the store per tenant and cause.",
	}, []string{"tenant", "cause"})
	metricFlushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "distributor_flush_failures_total",
		Help:      "Spans that failed to be written by a queue worker.",
	}, []string{"tenant"})
)

const (
	causeRateLimited    = "rate_limited"
	causeQueueSaturated = "queue_saturated"
)

// CacheInvalidator drops cached read results for a tenant after new
// spans have been accepted.
type CacheInvalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string)
}

// ingestionRateStrategy adapts per-tenant override limits to the
// dskit rate limiter.
type ingestionRateStrategy struct {
	overrides *overrides.Overrides
}

func (s *ingestionRateStrategy) Limit(tenantID string) float64 {
	return s.overrides.IngestionRateSpans(tenantID)
}

func (s *ingestionRateStrategy) Burst(tenantID string) int {
	return s.overrides.IngestionBurstSpans(tenantID)
}

// Distributor fans validated spans into per-tenant queues.
type Distributor struct {
	services.Service

	cfg         Config
	logger      log.Logger
	store       storage.Store
	overrides   *overrides.Overrides
	invalidator CacheInvalidator

	ingestionRateLimiter *limiter.RateLimiter

	mtx    sync.Mutex
	queues map[string]*queue.Queue[[]model.Span]
}

func New(cfg Config, store storage.Store, o *overrides.Overrides, invalidator CacheInvalidator, logger log.Logger) *Distributor {
	d := &Distributor{
		cfg:                  cfg,
		logger:               logger,
		store:                store,
		overrides:            o,
		invalidator:          invalidator,
		ingestionRateLimiter: limiter.NewRateLimiter(&ingestionRateStrategy{overrides: o}, cfg.RateLimitRecheckPeriod),
		queues:               map[string]*queue.Queue[[]model.Span]{},
	}
	d.Service = services.NewIdleService(d.starting, d.stopping)
	return d
}

func (d *Distributor) starting(context.Context) error { return nil }

func (d *Distributor) stopping(error) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()

	d.mtx.Lock()
	defer d.mtx.Unlock()

	var firstErr error
	for tenant, q := range d.queues {
		if err := q.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "draining queue for tenant %s", tenant)
		}
	}
	return firstErr
}

// PushSpans submits already-validated spans for a tenant. It returns
// ErrRateLimited or ErrQueueSaturated when the tenant is over its
// limits; both are retryable. It never blocks on the durable write.
func (d *Distributor) PushSpans(ctx context.Context, tenantID string, spans []model.Span) error {
	if len(spans) == 0 {
		return nil
	}

	if !d.ingestionRateLimiter.AllowN(time.Now(), tenantID, len(spans)) {
		metricSpansDiscarded.WithLabelValues(tenantID, causeRateLimited).Add(float64(len(spans)))
		return ErrRateLimited
	}

	if err := d.tenantQueue(tenantID).Push(ctx, spans); err != nil {
		if errors.Is(err, queue.ErrFull) {
			metricSpansDiscarded.WithLabelValues(tenantID, causeQueueSaturated).Add(float64(len(spans)))
			return ErrQueueSaturated
		}
		return err
	}

	metricSpansAccepted.WithLabelValues(tenantID).Add(float64(len(spans)))
	if d.cfg.LogReceivedSpans {
		for i := range spans {
			level.Debug(d.logger).Log("msg", "received span", "tenant", tenantID,
				"span_id", spans[i].SpanID, "service", spans[i].ServiceName)
		}
	}

	if d.invalidator != nil {
		d.invalidator.InvalidateTenant(ctx, tenantID)
	}
	return nil
}

func (d *Distributor) tenantQueue(tenantID string) *queue.Queue[[]model.Span] {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if q, ok := d.queues[tenantID]; ok {
		return q
	}

	q := queue.New(queue.Config{
		Name:        "spans",
		TenantID:    tenantID,
		Size:        d.overrides.IngestQueueSize(tenantID),
		WorkerCount: d.cfg.QueueWorkers,
	}, d.logger, d.flushFunc(tenantID))
	q.StartWorkers()
	d.queues[tenantID] = q
	return q
}

func (d *Distributor) flushFunc(tenantID string) queue.ProcessFunc[[]model.Span] {
	return func(ctx context.Context, spans []model.Span) {
		written, failed := d.store.WriteBatch(ctx, tenantID, spans)
		for _, f := range failed {
			metricFlushFailures.WithLabelValues(tenantID).Inc()
			level.Warn(d.logger).Log("msg", "span write failed", "tenant", tenantID,
				"span_id", spans[f.Index].SpanID, "err", f.Err)
		}
		level.Debug(d.logger).Log("msg", "flushed spans", "tenant", tenantID, "written", written)
	}
}
