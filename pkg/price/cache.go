package price

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

// DefaultCacheTTL is how long a fetched price stays servable.
const DefaultCacheTTL = 5 * time.Second

const cacheMaxItems = 4096

// Cache is a short-TTL write-through price cache keyed by token identity.
// Entries past the TTL are never served; a miss forces a fresh fetch.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCache builds a cache with the given TTL (DefaultCacheTTL if zero).
func NewCache(ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * cacheMaxItems,
		MaxCost:     cacheMaxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("price: create cache: %w", err)
	}
	return &Cache{cache: c, ttl: ttl}, nil
}

// Get returns the cached price for a token, if fresh.
func (c *Cache) Get(t token.Token) (decimal.Decimal, bool) {
	if v, ok := c.cache.Get(t.Key()); ok {
		price, ok := v.(decimal.Decimal)
		return price, ok
	}
	return decimal.Zero, false
}

// Set stores a freshly fetched price. Wait makes the write visible before
// returning; last successful fetch wins.
func (c *Cache) Set(t token.Token, price decimal.Decimal) {
	c.cache.SetWithTTL(t.Key(), price, 1, c.ttl)
	c.cache.Wait()
}

// Close releases the cache's resources.
func (c *Cache) Close() { c.cache.Close() }
