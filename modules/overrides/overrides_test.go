package overrides

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func defaultLimits(t *testing.T) Limits {
	t.Helper()
	limits := Limits{}
	fs := flag.NewFlagSet("", flag.PanicOnError)
	limits.RegisterFlagsAndApplyDefaults(fs)
	require.NoError(t, fs.Parse(nil))
	return limits
}

func TestDefaults(t *testing.T) {
	limits := defaultLimits(t)
	o, err := NewOverrides(limits)
	require.NoError(t, err)

	require.Equal(t, 1000.0, o.HighLatencyThresholdMs("any"))
	require.Equal(t, 0.05, o.HighErrorRateThreshold("any"))
	require.Equal(t, 5, o.MaxSyncChainDepth("any"))
	require.Equal(t, 10, o.MaxFanOut("any"))
	require.Equal(t, 5, o.MaxInDegree("any"))
	require.Equal(t, 500, o.MaxBatchSize("any"))
	require.Equal(t, 5*time.Minute, o.CacheTTL("any"))
}

func TestPerTenantOverrides(t *testing.T) {
	overrideFile := filepath.Join(t.TempDir(), "overrides.yaml")

	cfg := perTenantOverrides{
		TenantLimits: map[string]*Limits{
			"tenant-strict": {
				HighLatencyThresholdMs: 250,
				HighErrorRateThreshold: 0.01,
				MaxSyncChainDepth:      3,
				MaxFanOut:              4,
				MaxInDegree:            2,
				IngestQueueSize:        100,
			},
		},
	}
	buf, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(overrideFile, buf, 0o600))

	limits := defaultLimits(t)
	limits.PerTenantOverrideConfig = overrideFile

	o, err := NewOverrides(limits)
	require.NoError(t, err)

	// overridden tenant gets its own values
	require.Equal(t, 250.0, o.HighLatencyThresholdMs("tenant-strict"))
	require.Equal(t, 0.01, o.HighErrorRateThreshold("tenant-strict"))
	require.Equal(t, 3, o.MaxSyncChainDepth("tenant-strict"))
	require.Equal(t, 100, o.IngestQueueSize("tenant-strict"))

	// everyone else keeps the defaults
	require.Equal(t, 1000.0, o.HighLatencyThresholdMs("tenant-other"))
	require.Equal(t, 10000, o.IngestQueueSize("tenant-other"))
}

func TestMissingOverrideFile(t *testing.T) {
	limits := defaultLimits(t)
	limits.PerTenantOverrideConfig = "/does/not/exist.yaml"

	_, err := NewOverrides(limits)
	require.Error(t, err)
}

func TestMalformedOverrideFile(t *testing.T) {
	overrideFile := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(overrideFile, []byte("overrides:\n  t1:\n    not_a_field: 1\n"), 0o600))

	limits := defaultLimits(t)
	limits.PerTenantOverrideConfig = overrideFile

	_, err := NewOverrides(limits)
	require.Error(t, err)
}
