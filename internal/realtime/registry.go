// Package realtime owns the persistent event-stream connection to the
// backend and the subscription registry that routes inbound events to
// domain handlers.
package realtime

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/pkg/metrics"
)

// Handler consumes one decoded event. Handlers run on the socket's read
// goroutine and must not block.
type Handler func(events.Event)

type subscription struct {
	id     string
	fn     Handler
	active atomic.Bool
}

// Registry maps event names to ordered handler lists. It exists
// independently of any live connection, so subscriptions made before the
// socket connects are held and serviced once frames start arriving.
type Registry struct {
	mu   sync.Mutex
	subs map[events.Name][]*subscription
	log  *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		subs: make(map[events.Name][]*subscription),
		log:  log,
	}
}

// Subscribe registers fn for the named event and returns the capability
// that removes exactly this registration. The unsubscribe is synchronous:
// once it returns, fn receives no further deliveries. Safe to call more
// than once.
func (r *Registry) Subscribe(name events.Name, fn Handler) func() {
	sub := &subscription{id: uuid.NewString(), fn: fn}
	sub.active.Store(true)

	r.mu.Lock()
	r.subs[name] = append(r.subs[name], sub)
	r.mu.Unlock()
	metrics.SubscriptionsActive.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			r.mu.Lock()
			list := r.subs[name]
			for i, s := range list {
				if s.id == sub.id {
					r.subs[name] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(r.subs[name]) == 0 {
				delete(r.subs, name)
			}
			r.mu.Unlock()
			metrics.SubscriptionsActive.Dec()
		})
	}
}

// Dispatch delivers ev to every live handler for its name, in insertion
// order. A panicking handler is logged and never prevents delivery to the
// handlers after it.
func (r *Registry) Dispatch(ev events.Event) {
	name := ev.EventName()

	r.mu.Lock()
	list := make([]*subscription, len(r.subs[name]))
	copy(list, r.subs[name])
	r.mu.Unlock()

	for _, sub := range list {
		if !sub.active.Load() {
			continue
		}
		r.invoke(name, sub, ev)
	}
}

func (r *Registry) invoke(name events.Name, sub *subscription, ev events.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("event handler panicked", "event", string(name), "panic", rec)
		}
	}()
	sub.fn(ev)
}

// Count returns the number of live registrations for name.
func (r *Registry) Count(name events.Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[name])
}
