package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"wealthsync/internal/logger"
)

// sharedFetchTimeout bounds an upstream call shared by coalesced callers.
const sharedFetchTimeout = 30 * time.Second

// PriceCache stores recently fetched prices keyed by provider and symbol.
type PriceCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, price decimal.Decimal, ttl time.Duration)
}

type memoryEntry struct {
	price   decimal.Decimal
	expires time.Time
}

// MemoryCache is an in-process PriceCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns a cached price if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return decimal.Zero, false
	}
	return e.price, true
}

// Set stores a price for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, price decimal.Decimal, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{price: price, expires: c.now().Add(ttl)}
}

// Cached wraps a Provider with a short-lived price cache. Concurrent lookups
// for the same symbol share one upstream request. Failures are never cached.
type Cached struct {
	next  Provider
	cache PriceCache
	ttl   time.Duration
	group singleflight.Group
	log   *zap.SugaredLogger
}

// NewCached wraps next. A zero ttl disables caching but keeps request coalescing.
func NewCached(next Provider, cache PriceCache, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Named("pricing.cache"),
	}
}

// Name returns the wrapped provider's name.
func (c *Cached) Name() string { return c.next.Name() }

// FetchPrice serves from cache when possible, otherwise calls the wrapped provider.
func (c *Cached) FetchPrice(ctx context.Context, symbol string) Result {
	key := cacheKey(c.next.Name(), symbol)
	if c.ttl > 0 {
		if price, ok := c.cache.Get(ctx, key); ok {
			c.log.Debugw("price cache hit", "key", key)
			return Success(symbol, price)
		}
	}

	// The shared call is detached from any one caller's cancellation; each
	// caller stops waiting on its own ctx instead.
	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		res := c.next.FetchPrice(shared, symbol)
		if res.OK() && c.ttl > 0 {
			c.cache.Set(shared, key, res.Price, c.ttl)
		}
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		return Failure(c.next.Name(), symbol, ctx.Err())
	}
}

func cacheKey(provider, symbol string) string {
	return "price:" + strings.ToLower(strings.ReplaceAll(provider, " ", "")) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
}
