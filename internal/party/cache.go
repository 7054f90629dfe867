package party

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedRegistry caches usable resolutions in Redis. Missing or inactive
// answers are never cached, so a party that becomes active is seen at once.
// Cache failures fall through to the wrapped registry.
type CachedRegistry struct {
	next    Registry
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
	metrics *Metrics
}

// NewCachedRegistry wraps next with a Redis cache.
func NewCachedRegistry(next Registry, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger, metrics *Metrics) *CachedRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRegistry{
		next:    next,
		client:  client,
		ttl:     ttl,
		prefix:  "linkage:party:",
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedRegistry) key(ref Ref) string {
	return c.prefix + string(ref.Kind) + ":" + string(ref.ID)
}

func (c *CachedRegistry) Resolve(ctx context.Context, ref Ref) (Resolution, error) {
	key := c.key(ref)
	err := c.client.Get(ctx, key).Err()
	switch {
	case err == nil:
		c.metrics.cacheResult("hit")
		return Resolution{Exists: true, Active: true}, nil
	case errors.Is(err, redis.Nil):
		c.metrics.cacheResult("miss")
	default:
		c.metrics.cacheResult("error")
		c.logger.WarnContext(ctx, "party cache read failed", "party", ref.String(), "error", err)
	}

	res, err := c.next.Resolve(ctx, ref)
	if err != nil || !res.Usable() {
		return res, err
	}
	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "party cache write failed", "party", ref.String(), "error", err)
	}
	return res, nil
}

// Invalidate drops a cached resolution, for registry change notifications.
func (c *CachedRegistry) Invalidate(ctx context.Context, ref Ref) error {
	return c.client.Del(ctx, c.key(ref)).Err()
}
