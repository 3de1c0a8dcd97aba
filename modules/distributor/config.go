package distributor

import (
	"flag"
	"time"
)

type Config struct {
	// Workers draining each per-tenant queue into the span store.
	QueueWorkers int `yaml:"queue_workers"`

	// Grace period for draining queues on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// LogReceivedSpans enables debug logging of every accepted span.
	LogReceivedSpans bool `yaml:"log_received_spans"`

	// RateLimitRecheckPeriod controls how often per-tenant limits are
	// re-read from the overrides.
	RateLimitRecheckPeriod time.Duration `yaml:"rate_limit_recheck_period"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.IntVar(&cfg.QueueWorkers, prefix+".queue-workers", 2, "Number of workers flushing each tenant queue to the store.")
	f.DurationVar(&cfg.ShutdownTimeout, prefix+".shutdown-timeout", 10*time.Second, "Time to wait for tenant queues to drain on shutdown.")
	f.BoolVar(&cfg.LogReceivedSpans, prefix+".log-received-spans", false, "Log every received span at debug level.")
	cfg.RateLimitRecheckPeriod = 10 * time.Second
}
