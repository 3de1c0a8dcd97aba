package app

import (
	"flag"
	"fmt"
	"time"

	dslog "github.com/grafana/dskit/log"

	"github.com/nexarch/nexarch/modules/distributor"
	"github.com/nexarch/nexarch/modules/overrides"
	"github.com/nexarch/nexarch/modules/querier"
	"github.com/nexarch/nexarch/modules/storage"
)

// Config is the root configuration, assembled from defaults, the YAML
// config file, and command-line flags, in that order.
type Config struct {
	AuthEnabled       bool          `yaml:"auth_enabled"`
	HTTPListenAddress string        `yaml:"http_listen_address"`
	HTTPListenPort    int           `yaml:"http_listen_port"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`

	LogLevel  dslog.Level `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`

	Distributor distributor.Config `yaml:"distributor,omitempty"`
	Querier     querier.Config     `yaml:"querier,omitempty"`
	Storage     storage.Config     `yaml:"storage,omitempty"`
	Overrides   overrides.Limits   `yaml:"overrides,omitempty"`
}

func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.BoolVar(&c.AuthEnabled, prefix+"auth.enabled", false, "Require X-Scope-OrgID on every request. When disabled all requests run as the single tenant.")
	f.StringVar(&c.HTTPListenAddress, prefix+"server.http-listen-address", "", "HTTP server listen address.")
	f.IntVar(&c.HTTPListenPort, prefix+"server.http-listen-port", 8080, "HTTP server listen port.")
	f.StringVar(&c.LogFormat, prefix+"log.format", "logfmt", "Log format. Either logfmt or json.")
	c.LogLevel.RegisterFlags(f)
	c.ShutdownTimeout = 30 * time.Second

	c.Distributor.RegisterFlagsAndApplyDefaults("distributor", f)
	c.Querier.RegisterFlagsAndApplyDefaults("querier", f)
	c.Storage.RegisterFlagsAndApplyDefaults("storage", f)
	c.Overrides.RegisterFlagsAndApplyDefaults(f)
}

// ConfigWarning bundles a warning message with an explanation for the
// operator.
type ConfigWarning struct {
	Message string
	Explain string
}

// CheckConfig returns warnings for configurations that will run but
// probably not the way the operator intended.
func (c *Config) CheckConfig() []ConfigWarning {
	var warnings []ConfigWarning

	if c.Storage.Backend == storage.BackendPostgres && c.Storage.Postgres.ConnectionString == "" {
		warnings = append(warnings, ConfigWarning{
			Message: "storage.postgres.connection_string is empty",
			Explain: "the postgres backend cannot connect without a connection string",
		})
	}
	if c.Storage.Backend == storage.BackendInmemory {
		warnings = append(warnings, ConfigWarning{
			Message: "using the in-memory span store",
			Explain: "spans are lost on restart; use the postgres backend in production",
		})
	}
	if c.Querier.Cache.Backend == querier.CacheBackendRedis && c.Querier.Cache.Redis.Address == "" {
		warnings = append(warnings, ConfigWarning{
			Message: "querier.cache.redis.address is empty",
			Explain: "the redis read cache cannot connect without an address",
		})
	}
	if c.Overrides.CacheTTL > 10*time.Minute {
		warnings = append(warnings, ConfigWarning{
			Message: fmt.Sprintf("overrides.cache-ttl is %s", c.Overrides.CacheTTL),
			Explain: "read results may lag ingested spans by the full TTL",
		})
	}

	return warnings
}
