// Package query implements the shared request/response cache that both the
// REST boundary and the event handlers go through. Entries are keyed by
// logical resource ("contacts:list:abc123", "contacts:stats") and
// invalidated by group pattern ("contacts:*"). The cache is the only owner
// of entry state; callers read through Read/Peek and never mutate entries.
package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/reachforge/reachforge-console/internal/pkg/metrics"
)

// Status is the fetch state of a cache entry.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusFetching Status = "fetching"
	StatusFresh    Status = "fresh"
	StatusStale    Status = "stale"
	StatusErrored  Status = "errored"
)

// Fetcher loads the value for a key from the backend.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a point-in-time view of one cache slot. Values are committed
// wholesale: an Entry never exposes a half-written value.
type Entry struct {
	Value     any
	Status    Status
	FetchedAt time.Time
	Err       error
}

type entry struct {
	value     any
	status    Status
	fetchedAt time.Time
	err       error
	hasValue  bool
}

// Options configures a Cache.
type Options struct {
	MaxEntries   int           // entry bound; 0 = 1024
	StaleAfter   time.Duration // freshness window; 0 = 30s
	RefetchLimit rate.Limit    // background refetch rate cap; 0 = 10/s
	RefetchBurst int           // token bucket burst; 0 = 20
	Logger       *slog.Logger
}

// Cache is the query cache coordinator. Concurrent identical reads share a
// single in-flight fetch; whichever fetch completes last wins the slot
// (documented source behavior, see DESIGN.md).
type Cache struct {
	mu        sync.Mutex
	entries   *lru.Cache[string, *entry]
	fetchers  map[string]Fetcher // last fetcher seen per key, for background refetch
	observers map[string]int     // mounted-reader refcount per key

	group      singleflight.Group
	staleAfter time.Duration
	limiter    *rate.Limiter
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCache constructs a cache with explicit lifecycle; call Close on
// application shutdown.
func NewCache(opts Options) (*Cache, error) {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1024
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Second
	}
	if opts.RefetchLimit <= 0 {
		opts.RefetchLimit = rate.Limit(10)
	}
	if opts.RefetchBurst <= 0 {
		opts.RefetchBurst = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetchers:   make(map[string]Fetcher),
		observers:  make(map[string]int),
		staleAfter: opts.StaleAfter,
		limiter:    rate.NewLimiter(opts.RefetchLimit, opts.RefetchBurst),
		log:        opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	// The eviction callback fires under c.mu (every Add happens inside it),
	// so it mutates the map directly rather than re-locking. Observer
	// refcounts are not pruned here: they are owned by the release funcs and
	// track mounted readers, not cached keys.
	store, err := lru.NewWithEvict[string, *entry](opts.MaxEntries, func(key string, _ *entry) {
		delete(c.fetchers, key)
	})
	if err != nil {
		cancel()
		return nil, err
	}
	c.entries = store
	return c, nil
}

// Read returns the cached value for key. Fresh entries are served without
// a network call. Stale entries are returned immediately while a refresh
// runs in the background. Absent or value-less entries block on the fetch;
// concurrent callers for the same key attach to the single in-flight
// request.
func (c *Cache) Read(ctx context.Context, key string, fetcher Fetcher) (any, error) {
	c.mu.Lock()
	c.fetchers[key] = fetcher
	if e, ok := c.entries.Get(key); ok && e.hasValue {
		if e.status == StatusFresh && time.Since(e.fetchedAt) < c.staleAfter {
			v := e.value
			c.mu.Unlock()
			metrics.CacheHitsTotal.Inc()
			return v, nil
		}
		// Known-but-stale: serve immediately, refresh behind the reader.
		v := e.value
		c.mu.Unlock()
		metrics.CacheHitsTotal.Inc()
		c.refetchAsync(key)
		return v, nil
	}
	c.mu.Unlock()

	metrics.CacheMissesTotal.Inc()
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.markFetching(key)
		v, err := fetcher(ctx)
		c.Commit(key, v, err)
		return v, err
	})
	if err != nil {
		// A failed fetch leaves any previously committed value in place.
		if e, ok := c.Peek(key); ok && e.Value != nil {
			return e.Value, err
		}
		return nil, err
	}
	return v, nil
}

// Peek returns the current entry state without triggering a fetch.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key)
	if !ok {
		return Entry{Status: StatusIdle}, false
	}
	out := Entry{Status: e.status, FetchedAt: e.fetchedAt, Err: e.err}
	if e.hasValue {
		out.Value = e.value
	}
	return out, true
}

// Observe marks key as read by a mounted component: invalidations of the
// key refetch it in the background instead of waiting for the next read.
// The returned release func must be called exactly once, on unmount.
func (c *Cache) Observe(key string) func() {
	c.mu.Lock()
	c.observers[key]++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if c.observers[key] > 1 {
				c.observers[key]--
			} else {
				delete(c.observers, key)
			}
			c.mu.Unlock()
		})
	}
}

// Invalidate marks every entry matching pattern as stale and returns the
// number of entries touched. A trailing "*" matches by prefix
// ("contacts:*"); anything else matches exactly. Observed keys are
// refetched in the background immediately.
func (c *Cache) Invalidate(pattern string) int {
	prefix, wildcard := strings.CutSuffix(pattern, "*")

	c.mu.Lock()
	var touched []string
	for _, key := range c.entries.Keys() {
		if wildcard && !strings.HasPrefix(key, prefix) {
			continue
		}
		if !wildcard && key != pattern {
			continue
		}
		if e, ok := c.entries.Get(key); ok {
			e.status = StatusStale
			touched = append(touched, key)
		}
	}
	var refetch []string
	for _, key := range touched {
		if c.observers[key] > 0 && c.fetchers[key] != nil {
			refetch = append(refetch, key)
		}
	}
	c.mu.Unlock()

	if len(touched) > 0 {
		metrics.CacheInvalidationsTotal.WithLabelValues(pattern).Add(float64(len(touched)))
	}
	for _, key := range refetch {
		c.refetchAsync(key)
	}
	return len(touched)
}

// Commit atomically replaces the slot for key. On error the previous value
// is kept and the error recorded; on success the entry becomes Fresh.
// Whichever of several racing fetches commits last wins.
func (c *Cache) Commit(key string, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.entries.Get(key)
	next := &entry{fetchedAt: time.Now()}
	if err != nil {
		next.status = StatusErrored
		next.err = err
		if ok && prev.hasValue {
			next.value = prev.value
			next.hasValue = true
			next.fetchedAt = prev.fetchedAt
		}
	} else {
		next.status = StatusFresh
		next.value = value
		next.hasValue = true
	}
	c.entries.Add(key, next)
}

// Close stops background refetches and drops all entries. Pending reads
// finish against the backend but their commits land in a purged cache.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.fetchers = make(map[string]Fetcher)
	c.observers = make(map[string]int)
}

func (c *Cache) markFetching(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries.Get(key); ok {
		e.status = StatusFetching
		return
	}
	c.entries.Add(key, &entry{status: StatusFetching})
}

// refetchAsync refreshes key in the background, rate limited so an
// invalidation storm cannot stampede the backend.
func (c *Cache) refetchAsync(key string) {
	c.mu.Lock()
	fetcher := c.fetchers[key]
	c.mu.Unlock()
	if fetcher == nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.limiter.Wait(c.ctx); err != nil {
			return // cache closed
		}
		metrics.CacheRefetchesTotal.Inc()
		_, err, _ := c.group.Do(key, func() (any, error) {
			c.markFetching(key)
			v, err := fetcher(c.ctx)
			c.Commit(key, v, err)
			return v, err
		})
		if err != nil && c.ctx.Err() == nil {
			c.log.Warn("background refetch failed", "key", key, "error", err)
		}
	}()
}
