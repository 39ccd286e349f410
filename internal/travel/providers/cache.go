package providers

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/travel-viability/internal/travel"
)

// CachedRateProvider keeps the last live rate table for a while so that
// scheduled runs close together share a single upstream call. Fallback tables
// are never cached.
type CachedRateProvider struct {
	inner travel.RateProvider
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	table     travel.RateTable
	fetchedAt time.Time
	hits      uint64
	misses    uint64
}

var _ travel.RateProvider = (*CachedRateProvider)(nil)

// NewCachedRateProvider wraps inner. A non-positive ttl disables caching.
func NewCachedRateProvider(inner travel.RateProvider, ttl time.Duration) *CachedRateProvider {
	return &CachedRateProvider{inner: inner, ttl: ttl, now: time.Now}
}

func (c *CachedRateProvider) Name() string {
	return c.inner.Name()
}

func (c *CachedRateProvider) Rates(ctx context.Context) travel.RateTable {
	if c.ttl <= 0 {
		return c.inner.Rates(ctx)
	}

	c.mu.Lock()
	if c.table.Rates != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		c.hits++
		table := copyTable(c.table)
		c.mu.Unlock()
		return table
	}
	c.mu.Unlock()

	table := c.inner.Rates(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if table.Source == travel.SourceLive {
		c.table = copyTable(table)
		c.fetchedAt = c.now()
	}
	return table
}

// Stats returns cache hits and misses.
func (c *CachedRateProvider) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func copyTable(t travel.RateTable) travel.RateTable {
	out := t
	out.Rates = make(map[string]float64, len(t.Rates))
	for k, v := range t.Rates {
		out.Rates[k] = v
	}
	return out
}
