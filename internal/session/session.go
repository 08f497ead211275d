// Package session owns the network connection lifecycle: listen or
// connect, the hello handshake, keepalive, message routing and teardown.
// One peer at a time; a newcomer on the host side evicts the incumbent.
package session

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
)

// Status is the session lifecycle state. Only the Manager mutates it.
type Status int

const (
	StatusDisconnected Status = iota
	StatusListening
	StatusConnecting
	StatusHandshaking
	StatusConnected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusListening:
		return "listening"
	case StatusConnecting:
		return "connecting"
	case StatusHandshaking:
		return "handshaking"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Role distinguishes the listening side from the dialing side.
type Role int

const (
	RoleHost Role = iota
	RoleClient
)

// Handler carries the callbacks a Manager invokes. Any field may be nil.
// Callbacks run on the manager's goroutines and are never invoked while
// the manager's lock is held.
type Handler struct {
	OnConnected    func(peerName string)
	OnDisconnected func()
	OnScreenInfo   func(screens.Layout)
	OnMessage      func(protocol.Message)
	OnStatus       func(status Status, reason string)
}

// Options tunes a Manager. Zero values fall back to defaults.
type Options struct {
	// Name is sent in the hello handshake; defaults to the hostname.
	Name string
	// PingInterval is the keepalive probe cadence. Default 5s.
	PingInterval time.Duration
	// IdleTimeout is the silence window after which the connection is
	// declared dead. Default 10s.
	IdleTimeout time.Duration
	// DialTimeout bounds outbound connection attempts. Default 5s.
	DialTimeout time.Duration
	// WriteTimeout bounds every write. Default 2s.
	WriteTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "unknown"
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 5 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 10 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Second
	}
}

// Manager runs one session. Create with New, drive with Listen or
// Connect, stop with Close.
type Manager struct {
	opts    Options
	handler Handler

	// writeMu serializes wire writes; ping, pong replies and event
	// forwarding all send on the same conn from different goroutines.
	writeMu sync.Mutex

	mu          sync.Mutex
	status      Status
	role        Role
	listener    net.Listener
	conn        net.Conn
	gen         int
	connDone    chan struct{}
	peerName    string
	peerLayout  screens.Layout
	gotLayout   bool
	localLayout screens.Layout
	closed      bool
}

// New creates a Manager. It does nothing until Listen or Connect.
func New(opts Options, handler Handler) *Manager {
	opts.applyDefaults()
	return &Manager{
		opts:    opts,
		handler: handler,
		status:  StatusDisconnected,
	}
}

// Status returns the published lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// PeerName returns the name the peer sent in its hello, if any.
func (m *Manager) PeerName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerName
}

// PeerLayout returns the peer's last announced screen layout.
func (m *Manager) PeerLayout() (screens.Layout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerLayout, m.gotLayout
}

// SetLocalLayout records the layout announced during the handshake. When
// already connected the update is pushed to the peer immediately.
func (m *Manager) SetLocalLayout(l screens.Layout) {
	m.mu.Lock()
	m.localLayout = l
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if connected {
		m.Send(protocol.ScreenInfo{Screens: l.Wire()})
	}
}

// Listen starts the host side on addr and accepts peers until Close.
func (m *Manager) Listen(addr string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("session manager is closed")
	}
	if m.listener != nil {
		m.mu.Unlock()
		return fmt.Errorf("already listening")
	}
	m.role = RoleHost
	m.mu.Unlock()

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		l.Close()
		return fmt.Errorf("session manager is closed")
	}
	m.listener = l
	m.mu.Unlock()

	m.setStatus(StatusListening, "")
	go m.acceptLoop(l)
	return nil
}

// Addr returns the listener address, useful when listening on port 0.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Connect dials the host at addr and runs the client handshake. The dial
// is bounded by DialTimeout; a failure leaves the manager Disconnected.
func (m *Manager) Connect(addr string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("session manager is closed")
	}
	m.role = RoleClient
	m.mu.Unlock()

	m.setStatus(StatusConnecting, "")
	conn, err := net.DialTimeout("tcp", addr, m.opts.DialTimeout)
	if err != nil {
		m.setStatus(StatusDisconnected, "")
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	m.attach(conn, RoleClient)
	return nil
}

// Send writes a message, fire-and-forget. A failed write is logged and
// schedules a disconnect; it never surfaces to the caller's control flow.
func (m *Manager) Send(msg protocol.Message) {
	raw, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("encode outbound message", "type", msg.MessageType(), "error", err)
		return
	}

	m.mu.Lock()
	conn := m.conn
	gen := m.gen
	m.mu.Unlock()
	if conn == nil {
		slog.Debug("dropping message, no connection", "type", msg.MessageType())
		return
	}

	m.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
	_, err = conn.Write(raw)
	m.writeMu.Unlock()
	if err != nil {
		slog.Warn("write failed, scheduling disconnect", "type", msg.MessageType(), "error", err)
		go m.fail(gen, fmt.Sprintf("write: %v", err))
	}
}

// Close stops listening, tears down any connection and releases the
// manager. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	l := m.listener
	m.listener = nil
	gen := m.gen
	m.mu.Unlock()

	if l != nil {
		l.Close()
	}
	m.teardown(gen, "", false)
	m.setStatus(StatusDisconnected, "")
}

func (m *Manager) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			m.mu.Lock()
			closed := m.closed
			m.mu.Unlock()
			if !closed {
				slog.Error("accept failed", "error", err)
			}
			return
		}
		slog.Info("peer connected", "remote", conn.RemoteAddr())
		m.attach(conn, RoleHost)
	}
}

// attach adopts a fresh connection, evicting any incumbent, and starts
// its reader and keepalive goroutines.
func (m *Manager) attach(conn net.Conn, role Role) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	evictGen := m.gen
	evict := m.conn != nil
	var evictAddr net.Addr
	if evict {
		evictAddr = m.conn.RemoteAddr()
	}
	m.mu.Unlock()

	// The incumbent gets the same teardown as any other disconnect, so an
	// established peer's loss is observed before the newcomer attaches.
	if evict {
		slog.Info("evicting previous peer", "remote", evictAddr)
		m.teardown(evictGen, "", false)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.gen++
	gen := m.gen
	m.conn = conn
	m.connDone = make(chan struct{})
	done := m.connDone
	m.peerName = ""
	m.gotLayout = false
	m.mu.Unlock()

	m.setStatus(StatusHandshaking, "")

	// The host opens the handshake.
	if role == RoleHost {
		m.Send(protocol.Hello{Version: protocol.Version, Name: m.opts.Name})
	}

	go m.readLoop(conn, gen)
	go m.pingLoop(gen, done)
}

func (m *Manager) readLoop(conn net.Conn, gen int) {
	var dec protocol.Decoder
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(m.opts.IdleTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			m.fail(gen, fmt.Sprintf("read: %v", err))
			return
		}
		for _, msg := range dec.Feed(buf[:n]) {
			m.handleMessage(msg, gen)
		}
	}
}

func (m *Manager) pingLoop(gen int, done <-chan struct{}) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.mu.Lock()
			stale := m.gen != gen || m.conn == nil
			m.mu.Unlock()
			if stale {
				return
			}
			m.Send(protocol.Ping{})
		}
	}
}

func (m *Manager) handleMessage(msg protocol.Message, gen int) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	role := m.role
	status := m.status
	m.mu.Unlock()

	switch v := msg.(type) {
	case protocol.Hello:
		m.mu.Lock()
		m.peerName = v.Name
		m.mu.Unlock()
		if role == RoleHost {
			// Host acknowledges and the session is up.
			m.Send(protocol.Connected{})
			m.becomeConnected(v.Name)
		} else {
			// Client answers with its own hello and screen layout.
			m.mu.Lock()
			local := m.localLayout
			m.mu.Unlock()
			m.Send(protocol.Hello{Version: protocol.Version, Name: m.opts.Name})
			m.Send(protocol.ScreenInfo{Screens: local.Wire()})
		}

	case protocol.Connected:
		if role != RoleClient {
			slog.Warn("unexpected connected message on host side")
			return
		}
		m.mu.Lock()
		name := m.peerName
		m.mu.Unlock()
		m.becomeConnected(name)

	case protocol.Ping:
		m.Send(protocol.Pong{})

	case protocol.Pong:
		// Keepalive traffic; the read deadline reset is the effect.

	case protocol.ScreenInfo:
		layout := screens.FromWire(v.Screens)
		m.mu.Lock()
		m.peerLayout = layout
		m.gotLayout = true
		m.mu.Unlock()
		if m.handler.OnScreenInfo != nil {
			m.handler.OnScreenInfo(layout)
		}

	case protocol.Error:
		slog.Warn("peer reported error", "message", v.Message)
		if m.handler.OnMessage != nil {
			m.handler.OnMessage(msg)
		}

	case protocol.Unknown:
		slog.Debug("ignoring unknown message type", "type", v.Type)

	default:
		if status != StatusConnected {
			slog.Warn("dropping message outside connected state",
				"type", msg.MessageType(), "status", status.String())
			return
		}
		if m.handler.OnMessage != nil {
			m.handler.OnMessage(msg)
		}
	}
}

func (m *Manager) becomeConnected(peerName string) {
	m.mu.Lock()
	already := m.status == StatusConnected
	role := m.role
	local := m.localLayout
	m.mu.Unlock()
	if already {
		return
	}
	m.setStatus(StatusConnected, "")
	slog.Info("session established", "peer", peerName)

	// The client announced its layout during the handshake; the host
	// answers in kind so neither side is stuck on the fallback bounds.
	if role == RoleHost {
		m.Send(protocol.ScreenInfo{Screens: local.Wire()})
	}

	if m.handler.OnConnected != nil {
		m.handler.OnConnected(peerName)
	}
}

// fail tears down the connection of generation gen with a Failed status
// on the way. A stale generation is a no-op.
func (m *Manager) fail(gen int, reason string) {
	m.teardown(gen, reason, true)
}

func (m *Manager) teardown(gen int, reason string, failed bool) {
	m.mu.Lock()
	if m.gen != gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	close(m.connDone)
	wasEstablished := m.status == StatusConnected || m.status == StatusHandshaking
	m.peerName = ""
	m.gotLayout = false
	m.peerLayout = screens.Layout{}
	listening := m.listener != nil && !m.closed
	m.mu.Unlock()

	conn.Close()

	if failed {
		slog.Warn("session failed", "reason", reason)
		m.setStatus(StatusFailed, reason)
	}
	if listening {
		m.setStatus(StatusListening, "")
	} else {
		m.setStatus(StatusDisconnected, "")
	}
	if wasEstablished && m.handler.OnDisconnected != nil {
		m.handler.OnDisconnected()
	}
}

func (m *Manager) setStatus(s Status, reason string) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	m.mu.Unlock()

	if m.handler.OnStatus != nil {
		m.handler.OnStatus(s, reason)
	}
}
