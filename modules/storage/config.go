package storage

import (
	"flag"
	"time"
)

const (
	// BackendPostgres stores spans in a relational schema.
	BackendPostgres = "postgres"
	// BackendInmemory keeps spans in process memory. Used by tests and
	// single-binary development setups; data does not survive restarts.
	BackendInmemory = "inmemory"
)

type Config struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	// ConnectionString is a pgx-compatible DSN or URL.
	ConnectionString string        `yaml:"connection_string"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Backend, prefix+".backend", BackendPostgres, "Span store backend (postgres, inmemory).")
	f.StringVar(&cfg.Postgres.ConnectionString, prefix+".postgres.connection-string", "postgres://localhost:5432/nexarch?sslmode=disable", "Postgres connection string.")
	f.IntVar(&cfg.Postgres.MaxOpenConns, prefix+".postgres.max-open-conns", 16, "Maximum open connections to Postgres.")
	f.IntVar(&cfg.Postgres.MaxIdleConns, prefix+".postgres.max-idle-conns", 4, "Maximum idle connections to Postgres.")
	f.DurationVar(&cfg.Postgres.ConnMaxLifetime, prefix+".postgres.conn-max-lifetime", 30*time.Minute, "Maximum lifetime of a Postgres connection.")
}
