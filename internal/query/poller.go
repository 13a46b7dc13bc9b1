package query

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Poller repeatedly fetches a key until a terminal value is observed or
// the poller is stopped. It is the explicit replacement for interval
// refetching tied to a UI render cycle: the stop condition is checked
// before every reschedule, and a response that lands after Stop is
// discarded rather than committed.
type Poller struct {
	cache    *Cache
	key      string
	fetcher  Fetcher
	terminal func(any) bool
	interval time.Duration
	log      *slog.Logger

	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller builds a poller for key. terminal is evaluated on every
// successful fetch; a true result ends polling. Run must be called to
// start it.
func NewPoller(cache *Cache, key string, fetcher Fetcher, terminal func(any) bool, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		cache:    cache,
		key:      key,
		fetcher:  fetcher,
		terminal: terminal,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls until the terminal condition, Stop, or ctx cancellation. It
// blocks; callers typically run it in a goroutine and keep the *Poller
// for Stop.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First poll happens immediately; the ticker drives the rest.
	if p.pollOnce(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if p.pollOnce(ctx) {
				return
			}
		}
	}
}

// Stop cancels future polls. The current in-flight request, if any, is not
// aborted; its result is discarded. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.stopCh)
	})
}

// Done is closed when the poll loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// pollOnce returns true when polling should end.
func (p *Poller) pollOnce(ctx context.Context) bool {
	if p.stopped.Load() {
		return true
	}
	v, err := p.fetcher(ctx)
	if p.stopped.Load() || ctx.Err() != nil {
		// Late response for a cancelled poll: never committed.
		return true
	}
	p.cache.Commit(p.key, v, err)
	if err != nil {
		p.log.Warn("status poll failed", "key", p.key, "error", err)
		return false
	}
	return p.terminal(v)
}
