package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wealthsync/internal/logger"
)

// RedisCache is a PriceCache shared between API instances.
// Redis errors degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// NewRedisCache creates a cache backed by client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, log: logger.Named("pricing.redis")}
}

// Get returns a cached price.
func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	s, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("redis get failed", "key", key, "error", err)
		}
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		c.log.Warnw("discarding malformed cached price", "key", key, "value", s)
		return decimal.Zero, false
	}
	return price, true
}

// Set stores a price for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, price decimal.Decimal, ttl time.Duration) {
	if err := c.client.Set(ctx, key, price.String(), ttl).Err(); err != nil {
		c.log.Warnw("redis set failed", "key", key, "error", err)
	}
}
