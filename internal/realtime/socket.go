package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// State is the connection lifecycle state shown by the UI's online
// indicator.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateErrored      State = "errored"
)

func (s State) gauge() float64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateErrored:
		return 3
	default:
		return 0
	}
}

// Connection is a snapshot of the transport state.
type Connection struct {
	State            State
	LastError        string
	ReconnectAttempt int
}

// SocketOptions configures a Socket.
type SocketOptions struct {
	URL               string // ws(s) endpoint derived from the REST base
	APIKey            string // optional; sent as an authenticate message on connect
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Registry          *Registry
	Logger            *slog.Logger
}

// authFrame is the one-time authentication message sent after connect.
type authFrame struct {
	Event   string `json:"event"`
	Payload struct {
		APIKey string `json:"apiKey"`
	} `json:"payload"`
}

// Socket owns the single persistent event-stream connection. At most one
// live transport exists at a time; Connect is idempotent and Disconnect
// guarantees that no event is delivered to subscribers after it returns.
type Socket struct {
	url            string
	apiKey         string
	dialTimeout    time.Duration
	maxReconnects  int
	reconnectDelay time.Duration
	registry       *Registry
	log            *slog.Logger

	mu           sync.Mutex
	conn         *websocket.Conn
	generation   uint64 // bumped on every detach; stale read loops stop delivering
	reconnecting bool   // a retry loop owns the next dial; Connect defers to it
	readDone     chan struct{}
	state        Connection
	listeners    map[int]func(Connection)
	nextID       int
	closed       bool
	writeMu      sync.Mutex
	stateCh      chan Connection // serializes listener notification in order

	// test seam
	dial func(url string, timeout time.Duration) (*websocket.Conn, error)
}

// NewSocket builds a socket manager. The connection is not opened until
// Connect.
func NewSocket(opts SocketOptions) *Socket {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Socket{
		url:            opts.URL,
		apiKey:         opts.APIKey,
		dialTimeout:    opts.DialTimeout,
		maxReconnects:  opts.ReconnectAttempts,
		reconnectDelay: opts.ReconnectDelay,
		registry:       opts.Registry,
		log:            opts.Logger,
		state:          Connection{State: StateDisconnected},
		listeners:      make(map[int]func(Connection)),
		stateCh:        make(chan Connection, 64),
	}
	go s.notifyLoop()
	s.dial = func(url string, timeout time.Duration) (*websocket.Conn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: timeout}
		conn, resp, err := dialer.Dial(url, http.Header{})
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return conn, err
	}
	return s
}

// Connect opens the transport. It is a no-op when a connection is already
// live, being established, or owned by an in-flight reconnect loop: calling
// it never produces a second transport or a duplicate connected transition.
func (s *Socket) Connect() error {
	s.mu.Lock()
	if s.conn != nil || s.state.State == StateConnecting || s.reconnecting {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.setStateLocked(Connection{State: StateConnecting})
	s.mu.Unlock()

	conn, err := s.dial(s.url, s.dialTimeout)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.setStateLocked(Connection{State: StateErrored, LastError: err.Error()})
		}
		s.mu.Unlock()
		return err
	}

	s.attach(conn, gen)
	return nil
}

// Disconnect tears down the active transport and joins the read loop: once
// it returns, no handler invocation is in flight and injecting frames
// through the old transport handle produces nothing. Must not be called
// from inside an event handler.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	s.generation++
	conn := s.conn
	done := s.readDone
	s.conn = nil
	s.readDone = nil
	s.setStateLocked(Connection{State: StateDisconnected})
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
}

// Close is Disconnect plus teardown of the notification goroutine. The
// socket cannot be reused afterwards. Safe to call more than once.
func (s *Socket) Close() {
	s.Disconnect()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.stateCh)
}

// State returns the current connection snapshot.
func (s *Socket) State() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStateChange registers a listener for connection state transitions and
// returns its removal func. Listeners receive snapshots in transition
// order, off the socket lock.
func (s *Socket) OnStateChange(fn func(Connection)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// attach installs conn as the live transport, authenticates, and starts
// the pumps. A Disconnect that raced the dial wins: the late connection is
// closed instead of installed. If another transport is somehow still live,
// it is retired first; two live transports never coexist.
func (s *Socket) attach(conn *websocket.Conn, gen uint64) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	if prev := s.conn; prev != nil {
		_ = prev.Close()
		s.generation++
		gen = s.generation
	}
	done := make(chan struct{})
	s.conn = conn
	s.readDone = done
	attempt := s.state.ReconnectAttempt
	s.setStateLocked(Connection{State: StateConnected, ReconnectAttempt: attempt})
	s.mu.Unlock()

	s.authenticate(conn)

	go s.readLoop(conn, gen, done)
	go s.pingLoop(conn, gen)
}

// authenticate sends the one-time credential frame. Failure is non-fatal:
// the server enforces auth on protected events, and the connection stays
// open either way.
func (s *Socket) authenticate(conn *websocket.Conn) {
	if s.apiKey == "" {
		return
	}
	frame := authFrame{Event: "authenticate"}
	frame.Payload.APIKey = s.apiKey

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		s.log.Warn("authenticate message failed", "error", err)
	}
}

// current reports whether gen is still the live generation.
func (s *Socket) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

func (s *Socket) readLoop(conn *websocket.Conn, gen uint64, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env events.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if !s.current(gen) {
				return // detached by Disconnect; already Disconnected
			}
			// The retry loop runs outside this goroutine so a Disconnect
			// joining on done never waits out the reconnect delays.
			go s.handleReadFailure(conn, gen, err)
			return
		}
		if !s.current(gen) {
			return
		}

		ev, err := events.Decode(env)
		if err != nil {
			// Malformed frames are dropped here and never reach handlers.
			metrics.EventsDroppedTotal.WithLabelValues(string(env.Event)).Inc()
			s.log.Warn("dropping malformed event", "event", string(env.Event), "error", err)
			continue
		}
		metrics.EventsReceivedTotal.WithLabelValues(string(env.Event)).Inc()

		if !s.current(gen) {
			return
		}
		s.registry.Dispatch(ev)
	}
}

func (s *Socket) pingLoop(conn *websocket.Conn, gen uint64) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if !s.current(gen) {
			return
		}
		s.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// handleReadFailure runs the bounded reconnect policy: up to maxReconnects
// attempts with a fixed delay between them. Attempts surface only as
// connection state, never as domain events.
func (s *Socket) handleReadFailure(conn *websocket.Conn, gen uint64, cause error) {
	_ = conn.Close()

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.generation++
	gen = s.generation
	s.reconnecting = true
	s.setStateLocked(Connection{State: StateErrored, LastError: cause.Error()})
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
	}()

	for attempt := 1; attempt <= s.maxReconnects; attempt++ {
		time.Sleep(s.reconnectDelay)
		if !s.current(gen) {
			return // Disconnect raced the retry loop
		}

		metrics.SocketReconnectsTotal.Inc()
		s.mu.Lock()
		s.setStateLocked(Connection{State: StateConnecting, ReconnectAttempt: attempt})
		s.mu.Unlock()

		next, err := s.dial(s.url, s.dialTimeout)
		if err != nil {
			s.log.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
			s.mu.Lock()
			s.setStateLocked(Connection{State: StateErrored, LastError: err.Error(), ReconnectAttempt: attempt})
			s.mu.Unlock()
			continue
		}
		s.attach(next, gen)
		return
	}

	s.mu.Lock()
	if s.generation == gen {
		s.setStateLocked(Connection{State: StateDisconnected, LastError: s.state.LastError})
	}
	s.mu.Unlock()
	s.log.Error("event stream offline: reconnect attempts exhausted", "attempts", s.maxReconnects)
}

// setStateLocked records a state transition and queues it for listener
// notification in transition order. Callers hold s.mu.
func (s *Socket) setStateLocked(next Connection) {
	s.state = next
	metrics.SocketState.Set(next.State.gauge())
	if s.closed {
		return
	}
	select {
	case s.stateCh <- next:
	default:
		// Listener backlog; coalescing is fine for a status indicator.
	}
}

// notifyLoop delivers state snapshots to listeners off the socket lock, so
// listeners may call State or Connect without deadlocking.
func (s *Socket) notifyLoop() {
	for snapshot := range s.stateCh {
		s.mu.Lock()
		fns := make([]func(Connection), 0, len(s.listeners))
		for _, fn := range s.listeners {
			fns = append(fns, fn)
		}
		s.mu.Unlock()
		for _, fn := range fns {
			fn(snapshot)
		}
	}
}
