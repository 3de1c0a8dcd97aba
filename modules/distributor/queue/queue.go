// Package queue provides the bounded per-tenant work queue sitting
// between the ingestion front and the span store. Overflow policy is
// drop-newest: Push never blocks the caller.
package queue

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushesTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "ingest_queue_pushes_total",
		Help:      "Total number of successful requests queued up for a tenant.",
	}, []string{"name", "tenant"})
	pushesFailuresTotalMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexarch",
		Name:      "ingest_queue_pushes_failures_total",
		Help:      "Total number of failed attempts to queue up a request for a tenant.",
	}, []string{"name", "tenant"})
	lengthMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nexarch",
		Name:      "ingest_queue_length",
		Help:      "Number of queued requests for a tenant.",
	}, []string{"name", "tenant"})
)

// ErrFull is returned by Push when the queue is at capacity and the
// item was shed.
var ErrFull = errors.New("queue is full")

// ProcessFunc is invoked by a worker for every dequeued item.
type ProcessFunc[T any] func(ctx context.Context, item T)

type Config struct {
	Name        string
	TenantID    string
	Size        int
	WorkerCount int
}

type Queue[T any] struct {
	name        string
	tenantID    string
	size        int
	workerCount int

	logger      log.Logger
	processFunc ProcessFunc[T]

	reqChan chan T
	wg      sync.WaitGroup

	mtx     sync.RWMutex
	stopped bool

	pushesTotalMetrics         *prometheus.CounterVec
	pushesFailuresTotalMetrics *prometheus.CounterVec
	lengthMetric               *prometheus.GaugeVec
}

func New[T any](cfg Config, logger log.Logger, processFunc ProcessFunc[T]) *Queue[T] {
	return &Queue[T]{
		name:        cfg.Name,
		tenantID:    cfg.TenantID,
		size:        cfg.Size,
		workerCount: cfg.WorkerCount,

		logger:      logger,
		processFunc: processFunc,

		reqChan: make(chan T, cfg.Size),

		pushesTotalMetrics:         pushesTotalMetrics,
		pushesFailuresTotalMetrics: pushesFailuresTotalMetric,
		lengthMetric:               lengthMetric,
	}
}

func (q *Queue[T]) StartWorkers() {
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Push enqueues an item without blocking. A full queue sheds the item
// and returns ErrFull; a shut-down queue rejects it outright.
func (q *Queue[T]) Push(_ context.Context, item T) error {
	q.mtx.RLock()
	defer q.mtx.RUnlock()

	if q.stopped {
		return errors.Errorf("queue %s for tenant %s is shut down", q.name, q.tenantID)
	}

	select {
	case q.reqChan <- item:
		q.pushesTotalMetrics.WithLabelValues(q.name, q.tenantID).Inc()
		q.lengthMetric.WithLabelValues(q.name, q.tenantID).Inc()
		return nil
	default:
		q.pushesFailuresTotalMetrics.WithLabelValues(q.name, q.tenantID).Inc()
		return ErrFull
	}
}

// Shutdown stops accepting items, drains the workers and waits for
// them up to the context deadline.
func (q *Queue[T]) Shutdown(ctx context.Context) error {
	q.mtx.Lock()
	if q.stopped {
		q.mtx.Unlock()
		return nil
	}
	q.stopped = true
	close(q.reqChan)
	q.mtx.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "shutting down queue %s for tenant %s", q.name, q.tenantID)
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()

	for item := range q.reqChan {
		q.lengthMetric.WithLabelValues(q.name, q.tenantID).Dec()
		q.processFunc(context.Background(), item)
	}
	level.Debug(q.logger).Log("msg", "queue worker exited", "name", q.name, "tenant", q.tenantID)
}
