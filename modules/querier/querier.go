// Package querier implements the read surface: it loads a per-tenant
// span snapshot, rebuilds the dependency graph, runs detection and the
// reasoning pipeline, and serves the results over HTTP. Every request
// computes on a private snapshot; results may be cached per tenant
// until new spans arrive or the TTL expires.
package querier

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/limiter"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexarch/nexarch/modules/analyzer"
	"github.com/nexarch/nexarch/modules/overrides"
	"github.com/nexarch/nexarch/modules/reasoner"
	"github.com/nexarch/nexarch/modules/storage"
	"github.com/nexarch/nexarch/pkg/model"
)

var metricAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nexarch",
	Name:      "querier_analyses_total",
	Help:      "Full analysis pipeline runs per tenant.",
}, []string{"tenant"})

// Querier answers read requests for a tenant's architecture, issues,
// and workflows.
type Querier struct {
	services.Service

	cfg       Config
	logger    log.Logger
	store     storage.Store
	overrides *overrides.Overrides
	cache     ReadCache
	pipeline  *reasoner.Pipeline

	readRateLimiter *limiter.RateLimiter
}

// readRateStrategy adapts per-tenant override limits to the dskit rate
// limiter.
type readRateStrategy struct {
	overrides *overrides.Overrides
}

func (s *readRateStrategy) Limit(tenantID string) float64 {
	return s.overrides.ReadRequestRate(tenantID)
}

func (s *readRateStrategy) Burst(tenantID string) int {
	return s.overrides.ReadRequestBurst(tenantID)
}

func New(cfg Config, store storage.Store, o *overrides.Overrides, logger log.Logger) *Querier {
	q := &Querier{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		overrides: o,
		cache:     newReadCache(cfg.Cache, logger),
		pipeline:  reasoner.NewPipeline(logger),

		readRateLimiter: limiter.NewRateLimiter(&readRateStrategy{overrides: o}, 10*time.Second),
	}
	q.Service = services.NewIdleService(q.starting, q.stopping)
	return q
}

func (q *Querier) starting(context.Context) error { return nil }

func (q *Querier) stopping(error) error { return nil }

// Cache exposes the read cache so the ingest path can invalidate it.
func (q *Querier) Cache() ReadCache {
	return q.cache
}

func (q *Querier) thresholds(tenantID string) analyzer.Thresholds {
	return analyzer.Thresholds{
		HighLatencyMs: q.overrides.HighLatencyThresholdMs(tenantID),
		HighErrorRate: q.overrides.HighErrorRateThreshold(tenantID),
		MaxChainDepth: q.overrides.MaxSyncChainDepth(tenantID),
		MaxFanOut:     q.overrides.MaxFanOut(tenantID),
		MaxInDegree:   q.overrides.MaxInDegree(tenantID),
	}
}

// typeHints maps discovery records onto node types for the graph
// builder. Records with unknown types are ignored.
func (q *Querier) typeHints(ctx context.Context, tenantID string) map[string]model.NodeType {
	recs, err := q.store.QueryDiscovery(ctx, tenantID)
	if err != nil {
		level.Warn(q.logger).Log("msg", "failed to load discovery records", "tenant", tenantID, "err", err)
		return nil
	}

	hints := map[string]model.NodeType{}
	for _, r := range recs {
		t := model.NodeType(r.ServiceType)
		if analyzer.ValidHint(t) {
			hints[r.ServiceName] = t
		}
	}
	return hints
}

// analyze runs the full pipeline over the tenant's span snapshot. The
// snapshot read is the only I/O; everything after it is pure
// computation on private data.
func (q *Querier) analyze(ctx context.Context, tenantID string, filter storage.SpanFilter) (reasoner.State, error) {
	spans, err := q.store.QuerySpans(ctx, tenantID, filter)
	if err != nil {
		return reasoner.State{}, errors.Wrap(err, "querying span snapshot")
	}
	if err := ctx.Err(); err != nil {
		return reasoner.State{}, err
	}

	arch := analyzer.BuildArchitecture(spans, q.typeHints(ctx, tenantID))
	g := analyzer.Topology(&arch)
	state := q.pipeline.Run(&arch, g, q.thresholds(tenantID))

	metricAnalyses.WithLabelValues(tenantID).Inc()
	return state, nil
}
