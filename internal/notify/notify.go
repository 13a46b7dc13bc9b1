// Package notify implements the toast center: the single consumer of
// notification requests produced by the domain event handlers. Toasts stack
// in insertion order; a zero duration means sticky until dismissed.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reachforge/reachforge-console/internal/pkg/metrics"
)

// Severity is the user-facing weight of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Destructive reports whether the toast renders with the destructive
// (red) visual variant.
func (s Severity) Destructive() bool {
	return s == SeverityError || s == SeverityCritical
}

// Request is an ephemeral notification decision. It is consumed exactly
// once by Present and never stored.
type Request struct {
	Title    string
	Body     string
	Severity Severity
	Duration time.Duration // 0 = sticky until dismissed
}

// Toast is a presented notification with its identity and display state.
type Toast struct {
	ID        string
	Title     string
	Body      string
	Severity  Severity
	Sticky    bool
	CreatedAt time.Time
}

// Center holds the active toast stack. All methods are safe for
// concurrent use.
type Center struct {
	mu        sync.Mutex
	toasts    []Toast // insertion order, oldest first
	timers    map[string]*time.Timer
	listeners map[int]func()
	nextID    int
	closed    bool

	now func() time.Time
}

// NewCenter returns an empty toast center.
func NewCenter() *Center {
	return &Center{
		timers:    make(map[string]*time.Timer),
		listeners: make(map[int]func()),
		now:       time.Now,
	}
}

// Present enqueues a toast and returns its ID. Non-sticky toasts
// auto-dismiss after the request's duration.
func (c *Center) Present(req Request) string {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ""
	}

	id := uuid.NewString()
	toast := Toast{
		ID:        id,
		Title:     req.Title,
		Body:      req.Body,
		Severity:  req.Severity,
		Sticky:    req.Duration == 0,
		CreatedAt: c.now(),
	}
	c.toasts = append(c.toasts, toast)
	if req.Duration > 0 {
		c.timers[id] = time.AfterFunc(req.Duration, func() { c.Dismiss(id) })
	}
	c.mu.Unlock()

	metrics.ToastsPresentedTotal.WithLabelValues(string(req.Severity)).Inc()
	c.notify()
	return id
}

// Dismiss removes a toast by ID. Returns false if it was already gone.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, t := range c.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.toasts = append(c.toasts[:idx], c.toasts[idx+1:]...)
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	c.notify()
	return true
}

// Active returns the current stack in insertion order.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}

// OnChange registers a listener invoked after every stack change. The
// returned func removes the registration.
func (c *Center) OnChange(fn func()) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Close stops all expiry timers and drops the stack. Further Present calls
// are no-ops.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.toasts = nil
	c.listeners = map[int]func(){}
}

func (c *Center) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
