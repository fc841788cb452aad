package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRedisCache_UnreachableServerIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client)
	ctx := context.Background()

	cache.Set(ctx, "price:coingecko:BTC", decimal.NewFromInt(50000), time.Minute)

	price, ok := cache.Get(ctx, "price:coingecko:BTC")
	assert.False(t, ok)
	assert.True(t, price.IsZero())
}

func TestCached_WithUnreachableRedisFallsThroughToProvider(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	p := &stubProvider{fetchFn: func(_ context.Context, symbol string) Result {
		return Success(symbol, decimal.RequireFromString("3000.5"))
	}}
	c := NewCached(p, NewRedisCache(client), time.Minute)

	for i := 0; i < 2; i++ {
		res := c.FetchPrice(context.Background(), "ETH")
		assert.True(t, res.OK())
		assert.True(t, decimal.RequireFromString("3000.5").Equal(res.Price))
	}
	assert.Equal(t, int32(2), p.calls.Load())
}
