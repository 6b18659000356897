// Package querycache memoizes read queries keyed by entity tag and facets, with
// per-query staleness and retention windows, tag-based invalidation on writes and
// de-duplication of concurrent fetches for the same key.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Policy controls how long a cached result is served and kept.
type Policy struct {
	// StaleAfter is how long a result is served without refetching.
	StaleAfter time.Duration
	// RetainFor is how long an entry survives without being read. Never shorter than StaleAfter.
	RetainFor time.Duration
	// DependsOn lists further tags whose invalidation must also drop this entry.
	DependsOn []Tag
}

func (p Policy) normalized() Policy {
	if p.RetainFor < p.StaleAfter {
		p.RetainFor = p.StaleAfter
	}
	return p
}

// Stats are cumulative counters since the cache was created.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Fetches       uint64 `json:"fetches"`
	Evictions     uint64 `json:"evictions"`
	Invalidations uint64 `json:"invalidations"`
}

type entry struct {
	key        Key
	value      any
	policy     Policy
	fetchedAt  time.Time
	accessedAt time.Time
}

func (e *entry) tagged(tag Tag) bool {
	if e.key.tag == tag {
		return true
	}
	for _, t := range e.policy.DependsOn {
		if t == tag {
			return true
		}
	}
	return false
}

type flight struct {
	tags []Tag
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
	gens     map[Tag]uint64
	stats    Stats

	group singleflight.Group
	now   func() time.Time
	log   *zap.Logger

	janitorInterval time.Duration
	started         atomic.Bool
	stopOnce        sync.Once
	stop            chan struct{}
	done            chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l.Named("QueryCache") }
}

// WithJanitorInterval sets how often Start sweeps expired entries. Non-positive values
// keep the default.
func WithJanitorInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.janitorInterval = d
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]*entry),
		inflight:        make(map[string]*flight),
		gens:            make(map[Tag]uint64),
		now:             time.Now,
		log:             zap.NewNop(),
		janitorInterval: 15 * time.Second,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached value for key while it is fresh, otherwise runs fetch.
// Concurrent callers for the same key share one fetch. A fetch that fails is not cached,
// and a fetch overtaken by an invalidation of one of its tags is returned to its callers
// but not cached.
//
// The shared fetch is detached from the cancellation of whichever caller started it;
// each caller still stops waiting when its own ctx is done.
func GetOrFetch[T any](ctx context.Context, c *Cache, key Key, p Policy, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	ks := key.String()
	p = p.normalized()

	if v, ok := c.lookup(ks); ok {
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: cached value for %q has type %T", ks, v)
		}
		return typed, nil
	}

	tags := append([]Tag{key.tag}, p.DependsOn...)
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(ks, func() (any, error) {
		fl := c.beginFlight(ks, tags)
		defer c.endFlight(ks, fl)

		snap := c.generations(tags)
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(ks, key, v, p, snap)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: fetched value for %q has type %T", ks, res.Val)
		}
		return typed, nil
	}
}

func (c *Cache) lookup(ks string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ks]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	now := c.now()
	if now.Sub(e.accessedAt) >= e.policy.RetainFor {
		delete(c.entries, ks)
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}
	if now.Sub(e.fetchedAt) >= e.policy.StaleAfter {
		c.stats.Misses++
		return nil, false
	}
	e.accessedAt = now
	c.stats.Hits++
	return e.value, true
}

func (c *Cache) beginFlight(ks string, tags []Tag) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	fl := &flight{tags: tags}
	c.inflight[ks] = fl
	c.stats.Fetches++
	return fl
}

func (c *Cache) endFlight(ks string, fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[ks] == fl {
		delete(c.inflight, ks)
	}
}

func (c *Cache) generations(tags []Tag) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := make([]uint64, len(tags))
	for i, t := range tags {
		snap[i] = c.gens[t]
	}
	return snap
}

func (c *Cache) store(ks string, key Key, v any, p Policy, snap []uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tags := append([]Tag{key.tag}, p.DependsOn...)
	for i, t := range tags {
		if c.gens[t] != snap[i] {
			c.log.Debug("dropping result overtaken by invalidation", zap.String("key", ks), zap.String("tag", string(t)))
			return
		}
	}
	if p.RetainFor <= 0 {
		return
	}
	now := c.now()
	c.entries[ks] = &entry{
		key:        key,
		value:      v,
		policy:     p,
		fetchedAt:  now,
		accessedAt: now,
	}
}

// Invalidate drops every entry tagged with any of tags, either as its entity tag or as
// a dependency. Fetches already in flight for those tags will not be cached, and the next
// read starts a live fetch instead of joining them.
func (c *Cache) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for _, tag := range tags {
		c.gens[tag]++
		for ks, e := range c.entries {
			if e.tagged(tag) {
				delete(c.entries, ks)
				dropped++
			}
		}
		for ks, fl := range c.inflight {
			for _, t := range fl.tags {
				if t == tag {
					c.group.Forget(ks)
					break
				}
			}
		}
	}
	c.stats.Invalidations++
	c.log.Debug("invalidated", zap.Any("tags", tags), zap.Int("entries", dropped))
}

// Len reports the number of stored entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evictExpired removes entries that have not been read within their retention window.
func (c *Cache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for ks, e := range c.entries {
		if now.Sub(e.accessedAt) >= e.policy.RetainFor {
			delete(c.entries, ks)
			n++
		}
	}
	c.stats.Evictions += uint64(n)
	return n
}

// Start runs the retention janitor until ctx is done or Close is called.
func (c *Cache) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if n := c.evictExpired(); n > 0 {
					c.log.Debug("evicted expired entries", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the janitor started by Start and waits for it to exit.
func (c *Cache) Close() {
	if !c.started.Load() {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}
