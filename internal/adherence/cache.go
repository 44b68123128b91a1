package adherence

import (
	"context"
	"sync"
	"time"

	"adherence-tracker/internal/compliance"
)

// CachedCalendar wraps a Calendar with a short-TTL in-memory cache keyed on
// (client, week). Caching is sound only because the underlying computation is
// deterministic for fixed inputs; the TTL bounds how stale a just-logged
// completion can look.
type CachedCalendar struct {
	real Calendar
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	result   *compliance.Result
	cachedAt time.Time
}

// NewCachedCalendar creates a new CachedCalendar.
func NewCachedCalendar(real Calendar, ttl time.Duration) *CachedCalendar {
	return &CachedCalendar{
		real:    real,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// WeekCalendar returns a cached result when fresh, delegating otherwise.
func (c *CachedCalendar) WeekCalendar(ctx context.Context, clientID, weekStart string) (*compliance.Result, error) {
	key := clientID + "|" + weekStart

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.cachedAt) < c.ttl {
		c.mu.Unlock()
		return entry.result, nil
	}
	c.mu.Unlock()

	result, err := c.real.WeekCalendar(ctx, clientID, weekStart)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, cachedAt: c.now()}
	c.mu.Unlock()
	return result, nil
}

// Invalidate drops the cached week for a client, typically right after a new
// completion is logged.
func (c *CachedCalendar) Invalidate(clientID, weekStart string) {
	c.mu.Lock()
	delete(c.entries, clientID+"|"+weekStart)
	c.mu.Unlock()
}
