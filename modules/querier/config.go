package querier

import (
	"flag"
	"time"
)

const (
	CacheBackendNone  = "none"
	CacheBackendRedis = "redis"
)

type RedisConfig struct {
	Address     string        `yaml:"address"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

type Config struct {
	Cache CacheConfig `yaml:"cache"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Cache.Backend, prefix+".cache.backend", CacheBackendNone, "Read cache backend. Either none or redis.")
	f.StringVar(&cfg.Cache.Redis.Address, prefix+".cache.redis.address", "localhost:6379", "Redis address for the read cache.")
	cfg.Cache.Redis.DialTimeout = 5 * time.Second
}
