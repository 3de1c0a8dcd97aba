package overrides

import (
	"context"
	"os"
	"time"

	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/yaml.v2"
)

var metricOverridesLimits = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "nexarch",
	Name:      "limits_overrides",
	Help:      "Per-tenant limit overrides currently loaded",
}, []string{"limit_name", "tenant"})

// perTenantOverrides mirrors the override file layout.
type perTenantOverrides struct {
	TenantLimits map[string]*Limits `yaml:"overrides"`
}

// Overrides resolves the effective limits for a tenant: the override
// file entry if one exists, the defaults otherwise. The file is read
// once at startup.
type Overrides struct {
	services.Service

	defaultLimits  *Limits
	tenantOverride perTenantOverrides
}

// NewOverrides builds an Overrides from defaults plus the optional
// per-tenant override file.
func NewOverrides(defaults Limits) (*Overrides, error) {
	o := &Overrides{
		defaultLimits:  &defaults,
		tenantOverride: perTenantOverrides{TenantLimits: map[string]*Limits{}},
	}

	if defaults.PerTenantOverrideConfig != "" {
		buf, err := os.ReadFile(defaults.PerTenantOverrideConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read per-tenant override config")
		}
		if err := yaml.UnmarshalStrict(buf, &o.tenantOverride); err != nil {
			return nil, errors.Wrap(err, "failed to parse per-tenant override config")
		}

		for tenant, l := range o.tenantOverride.TenantLimits {
			metricOverridesLimits.WithLabelValues("high_latency_threshold_ms", tenant).Set(l.HighLatencyThresholdMs)
			metricOverridesLimits.WithLabelValues("high_error_rate_threshold", tenant).Set(l.HighErrorRateThreshold)
			metricOverridesLimits.WithLabelValues("max_sync_chain_depth", tenant).Set(float64(l.MaxSyncChainDepth))
			metricOverridesLimits.WithLabelValues("max_fan_out", tenant).Set(float64(l.MaxFanOut))
			metricOverridesLimits.WithLabelValues("max_in_degree", tenant).Set(float64(l.MaxInDegree))
			metricOverridesLimits.WithLabelValues("ingestion_rate_spans", tenant).Set(l.IngestionRateSpans)
			metricOverridesLimits.WithLabelValues("ingest_queue_size", tenant).Set(float64(l.IngestQueueSize))
		}
	}

	o.Service = services.NewIdleService(o.starting, o.stopping)
	return o, nil
}

func (o *Overrides) starting(context.Context) error { return nil }

func (o *Overrides) stopping(error) error { return nil }

// limits returns the tenant's own Limits when overridden, the defaults
// otherwise.
func (o *Overrides) limits(tenantID string) *Limits {
	if l, ok := o.tenantOverride.TenantLimits[tenantID]; ok && l != nil {
		return l
	}
	return o.defaultLimits
}

func (o *Overrides) HighLatencyThresholdMs(tenantID string) float64 {
	return o.limits(tenantID).HighLatencyThresholdMs
}

func (o *Overrides) HighErrorRateThreshold(tenantID string) float64 {
	return o.limits(tenantID).HighErrorRateThreshold
}

func (o *Overrides) MaxSyncChainDepth(tenantID string) int {
	return o.limits(tenantID).MaxSyncChainDepth
}

func (o *Overrides) MaxFanOut(tenantID string) int {
	return o.limits(tenantID).MaxFanOut
}

func (o *Overrides) MaxInDegree(tenantID string) int {
	return o.limits(tenantID).MaxInDegree
}

func (o *Overrides) IngestionRateSpans(tenantID string) float64 {
	return o.limits(tenantID).IngestionRateSpans
}

func (o *Overrides) IngestionBurstSpans(tenantID string) int {
	return o.limits(tenantID).IngestionBurstSpans
}

func (o *Overrides) MaxSpanBytes(tenantID string) int {
	return o.limits(tenantID).MaxSpanBytes
}

func (o *Overrides) MaxBatchSize(tenantID string) int {
	return o.limits(tenantID).MaxBatchSize
}

func (o *Overrides) IngestQueueSize(tenantID string) int {
	return o.limits(tenantID).IngestQueueSize
}

func (o *Overrides) ReadRequestRate(tenantID string) float64 {
	return o.limits(tenantID).ReadRequestRate
}

func (o *Overrides) ReadRequestBurst(tenantID string) int {
	return o.limits(tenantID).ReadRequestBurst
}

func (o *Overrides) CacheTTL(tenantID string) time.Duration {
	return o.limits(tenantID).CacheTTL
}
