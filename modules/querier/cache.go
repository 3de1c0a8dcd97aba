package querier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nexarch",
	Name:      "read_cache_requests_total",
	Help:      "Read cache lookups by result.",
}, []string{"result"})

// ReadCache caches rendered read responses per tenant. Invalidation
// bumps a per-tenant version, which orphans every key written under
// the previous version; orphans age out with the TTL.
type ReadCache interface {
	Fetch(ctx context.Context, tenantID, key string) ([]byte, bool)
	Store(ctx context.Context, tenantID, key string, val []byte, ttl time.Duration)
	InvalidateTenant(ctx context.Context, tenantID string)
}

func newReadCache(cfg CacheConfig, logger log.Logger) ReadCache {
	switch cfg.Backend {
	case CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		return &redisCache{client: client, logger: logger}
	default:
		return nopCache{}
	}
}

type redisCache struct {
	client *redis.Client
	logger log.Logger
}

func NewRedisCache(client *redis.Client, logger log.Logger) ReadCache {
	return &redisCache{client: client, logger: logger}
}

func (c *redisCache) versionKey(tenantID string) string {
	return fmt.Sprintf("nexarch:reads:%s:version", tenantID)
}

func (c *redisCache) fullKey(ctx context.Context, tenantID, key string) string {
	version, err := c.client.Get(ctx, c.versionKey(tenantID)).Int64()
	if err != nil && err != redis.Nil {
		level.Warn(c.logger).Log("msg", "failed to read cache version", "tenant", tenantID, "err", err)
	}
	return fmt.Sprintf("nexarch:reads:%s:%d:%s", tenantID, version, key)
}

func (c *redisCache) Fetch(ctx context.Context, tenantID, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.fullKey(ctx, tenantID, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			level.Warn(c.logger).Log("msg", "cache fetch failed", "tenant", tenantID, "err", err)
		}
		metricCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	metricCacheRequests.WithLabelValues("hit").Inc()
	return val, true
}

func (c *redisCache) Store(ctx context.Context, tenantID, key string, val []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.fullKey(ctx, tenantID, key), val, ttl).Err(); err != nil {
		level.Warn(c.logger).Log("msg", "cache store failed", "tenant", tenantID, "err", err)
	}
}

func (c *redisCache) InvalidateTenant(ctx context.Context, tenantID string) {
	if err := c.client.Incr(ctx, c.versionKey(tenantID)).Err(); err != nil {
		level.Warn(c.logger).Log("msg", "cache invalidation failed", "tenant", tenantID, "err", err)
	}
}

type nopCache struct{}

func (nopCache) Fetch(context.Context, string, string) ([]byte, bool) { return nil, false }

func (nopCache) Store(context.Context, string, string, []byte, time.Duration) {}

func (nopCache) InvalidateTenant(context.Context, string) {}
