package app

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/nexarch/nexarch/modules/storage"
)

func TestConfigFileOverlaysDefaults(t *testing.T) {
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("test", flag.PanicOnError))

	raw := `
auth_enabled: true
http_listen_port: 9090
storage:
  backend: inmemory
distributor:
  queue_workers: 8
overrides:
  high_latency_threshold_ms: 250
  cache_ttl: 1m
querier:
  cache:
    backend: redis
    redis:
      address: redis:6379
`
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

	require.True(t, cfg.AuthEnabled)
	require.Equal(t, 9090, cfg.HTTPListenPort)
	require.Equal(t, storage.BackendInmemory, cfg.Storage.Backend)
	require.Equal(t, 8, cfg.Distributor.QueueWorkers)
	require.Equal(t, 250.0, cfg.Overrides.HighLatencyThresholdMs)
	require.Equal(t, time.Minute, cfg.Overrides.CacheTTL)
	require.Equal(t, "redis:6379", cfg.Querier.Cache.Redis.Address)

	// untouched fields keep their defaults
	require.Equal(t, 0.05, cfg.Overrides.HighErrorRateThreshold)
	require.Equal(t, "logfmt", cfg.LogFormat)
}

func TestCheckConfigWarnings(t *testing.T) {
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("test", flag.PanicOnError))

	cfg.Storage.Backend = storage.BackendPostgres
	cfg.Storage.Postgres.ConnectionString = ""
	warnings := cfg.CheckConfig()
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "connection_string")

	cfg.Storage.Postgres.ConnectionString = "postgres://db:5432/nexarch"
	require.Empty(t, cfg.CheckConfig())

	cfg.Overrides.CacheTTL = time.Hour
	require.Len(t, cfg.CheckConfig(), 1)
}
