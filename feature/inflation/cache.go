package inflation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salary-tracker/core/bls"
	"salary-tracker/core/series"

	"golang.org/x/sync/singleflight"
)

// cacheEntry is one normalized series with its build time.
type cacheEntry struct {
	points []series.Point
	built  time.Time
	ttl    time.Duration
}

func (e *cacheEntry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return true
	}
	return now.Sub(e.built) > e.ttl
}

// seriesCache holds normalized series keyed by series and year range.
// Concurrent misses for one key share a single load.
type seriesCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	sf      singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

func newSeriesCache(ttl time.Duration) *seriesCache {
	return &seriesCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(seriesID string, years *bls.YearRange) string {
	if years == nil {
		return seriesID + ":latest"
	}
	return fmt.Sprintf("%s:%d-%d", seriesID, years.Start, years.End)
}

func (c *seriesCache) lookup(key string) ([]series.Point, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.points, true
}

// getOrLoad returns the cached points for key or runs load once for all
// concurrent callers. hit reports whether the cache answered.
func (c *seriesCache) getOrLoad(ctx context.Context, key string, load func(context.Context) ([]series.Point, error)) (points []series.Point, hit bool, err error) {
	if pts, ok := c.lookup(key); ok {
		return pts, true, nil
	}

	res, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if pts, ok := c.lookup(key); ok {
			return pts, nil
		}

		pts, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = &cacheEntry{points: pts, built: c.now(), ttl: c.ttl}
			c.mu.Unlock()
		}
		return pts, nil
	})
	if err != nil {
		return nil, false, err
	}
	return res.([]series.Point), false, nil
}

// invalidate drops every entry of seriesID.
func (c *seriesCache) invalidate(seriesID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	prefix := seriesID + ":"
	for key := range c.entries {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
			n++
		}
	}
	return n
}
