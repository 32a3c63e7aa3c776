package probe

import (
	"context"
	"sync"
	"time"
)

// Prober abstracts the ffprobe-backed metadata lookup.
type Prober interface {
	Probe(ctx context.Context, path string) Result
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// CachingProber wraps another Prober with a TTL-based in-memory cache so the
// video-info endpoint does not re-run ffprobe on every request.
type CachingProber struct {
	base Prober
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProber returns a Prober that caches results for the provided TTL.
func NewCachingProber(base Prober, ttl time.Duration) *CachingProber {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProber{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Probe returns a cached result when available, otherwise it delegates to the
// underlying prober and stores the outcome. Degraded and failed results are
// not cached so a later retry can still succeed.
func (c *CachingProber) Probe(ctx context.Context, path string) Result {
	if c == nil || c.base == nil {
		return Result{Outcome: OutcomeDegraded}
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[path]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.result
	}

	result := c.base.Probe(ctx, path)
	if result.Outcome == OutcomeCompleted {
		c.mu.Lock()
		c.items[path] = cacheEntry{result: result, expires: now.Add(c.ttl)}
		c.mu.Unlock()
	}

	return result
}
