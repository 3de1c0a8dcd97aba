package overrides

import (
	"flag"
	"time"
)

// Default detection thresholds. Rules compare with strict >, so a value
// exactly at the threshold does not fire.
const (
	DefaultHighLatencyThresholdMs = 1000.0
	DefaultHighErrorRateThreshold = 0.05
	DefaultMaxSyncChainDepth      = 5
	DefaultMaxFanOut              = 10
	DefaultMaxInDegree            = 5
)

// Limits is the complete set of per-tenant tunables: issue-detection
// thresholds, ingestion protections and read-surface caching. The
// zero-config path gets the defaults below; individual tenants can be
// overridden through the per-tenant override file.
type Limits struct {
	// Issue detection thresholds.
	HighLatencyThresholdMs float64 `yaml:"high_latency_threshold_ms"`
	HighErrorRateThreshold float64 `yaml:"high_error_rate_threshold"`
	MaxSyncChainDepth      int     `yaml:"max_sync_chain_depth"`
	MaxFanOut              int     `yaml:"max_fan_out"`
	MaxInDegree            int     `yaml:"max_in_degree"`

	// Ingestion protections.
	IngestionRateSpans  float64 `yaml:"ingestion_rate_spans"`
	IngestionBurstSpans int     `yaml:"ingestion_burst_spans"`
	MaxSpanBytes        int     `yaml:"max_span_bytes"`
	MaxBatchSize        int     `yaml:"max_batch_size"`
	IngestQueueSize     int     `yaml:"ingest_queue_size"`

	// Read surface.
	ReadRequestRate  float64       `yaml:"read_request_rate"`
	ReadRequestBurst int           `yaml:"read_request_burst"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`

	// PerTenantOverrideConfig points at a YAML file with per-tenant
	// Limits, loaded once at startup.
	PerTenantOverrideConfig string `yaml:"per_tenant_override_config"`
}

// RegisterFlagsAndApplyDefaults registers limit flags and sets defaults.
func (l *Limits) RegisterFlagsAndApplyDefaults(f *flag.FlagSet) {
	f.Float64Var(&l.HighLatencyThresholdMs, "overrides.high-latency-threshold-ms", DefaultHighLatencyThresholdMs, "Edge latency above which a high-latency issue fires.")
	f.Float64Var(&l.HighErrorRateThreshold, "overrides.high-error-rate-threshold", DefaultHighErrorRateThreshold, "Node error rate above which a critical issue fires.")
	f.IntVar(&l.MaxSyncChainDepth, "overrides.max-sync-chain-depth", DefaultMaxSyncChainDepth, "Longest tolerated synchronous call chain.")
	f.IntVar(&l.MaxFanOut, "overrides.max-fan-out", DefaultMaxFanOut, "Out-degree above which a fan-out issue fires.")
	f.IntVar(&l.MaxInDegree, "overrides.max-in-degree", DefaultMaxInDegree, "In-degree above which a single-point-of-failure issue fires.")

	f.Float64Var(&l.IngestionRateSpans, "overrides.ingestion-rate-spans", 10000, "Per-tenant span ingestion rate limit in spans per second.")
	f.IntVar(&l.IngestionBurstSpans, "overrides.ingestion-burst-spans", 20000, "Per-tenant span ingestion burst size.")
	f.IntVar(&l.MaxSpanBytes, "overrides.max-span-bytes", 64*1024, "Per-span payload cap in bytes.")
	f.IntVar(&l.MaxBatchSize, "overrides.max-batch-size", 500, "Maximum spans accepted in one batch request.")
	f.IntVar(&l.IngestQueueSize, "overrides.ingest-queue-size", 10000, "Per-tenant ingest queue capacity. Overflow sheds new spans.")

	f.Float64Var(&l.ReadRequestRate, "overrides.read-request-rate", 50, "Per-tenant read request rate limit in requests per second.")
	f.IntVar(&l.ReadRequestBurst, "overrides.read-request-burst", 100, "Per-tenant read request burst size.")
	f.DurationVar(&l.CacheTTL, "overrides.cache-ttl", 5*time.Minute, "TTL for cached read results.")

	f.StringVar(&l.PerTenantOverrideConfig, "overrides.per-tenant-override-config", "", "Path to a YAML file with per-tenant limit overrides.")
}
