// Package api exposes engine events to front-end processes over a local
// WebSocket. The tray UI and settings window live outside this process
// and subscribe here instead of linking the engine directly.
package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/frank2889/MacWinControl/internal/engine"
	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/frank2889/MacWinControl/internal/session"
)

// Event is one JSON object pushed to every subscriber.
type Event struct {
	Type         string            `json:"type"`
	Peer         string            `json:"peer,omitempty"`
	Status       string            `json:"status,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	RemoteActive bool              `json:"remoteActive,omitempty"`
	Screens      []protocol.Screen `json:"screens,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// Feed is a broadcast-only WebSocket endpoint. Subscribers get every
// event published after they attach; there is no replay.
type Feed struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	server *http.Server
}

// NewFeed returns an empty feed. Attach it to a mux via ServeHTTP or
// start a standalone listener with Listen.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			// Local front-end only; skip origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until it
// disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()
	slog.Debug("feed subscriber attached", "remote", conn.RemoteAddr())

	// Subscribers never send anything meaningful; the read loop only
	// notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.drop(conn)
}

// Listen serves the feed on its own listener at /events.
func (f *Feed) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/events", f)

	f.mu.Lock()
	f.server = &http.Server{Handler: mux}
	server := f.server
	f.mu.Unlock()

	slog.Info("event feed listening", "addr", ln.Addr())
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("event feed server", "error", err)
		}
	}()
	return nil
}

// Publish sends an event to every subscriber. A subscriber whose write
// fails is dropped.
func (f *Feed) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encode feed event", "type", ev.Type, "error", err)
		return
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for c := range f.conns {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("feed subscriber gone", "error", err)
			f.drop(c)
		}
	}
}

// SubscriberCount reports attached front-ends.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// Close shuts the listener, if any, and every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	server := f.server
	f.server = nil
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for c := range f.conns {
		conns = append(conns, c)
	}
	f.conns = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	if server != nil {
		server.Close()
	}
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, present := f.conns[conn]
	delete(f.conns, conn)
	f.mu.Unlock()
	if present {
		conn.Close()
	}
}

// Observer adapts the feed into engine callbacks.
func (f *Feed) Observer() engine.Observer {
	return engine.Observer{
		OnConnected: func(peer string) {
			f.Publish(Event{Type: "connected", Peer: peer})
		},
		OnDisconnected: func() {
			f.Publish(Event{Type: "disconnected"})
		},
		OnModeChanged: func(remote bool) {
			f.Publish(Event{Type: "mode", RemoteActive: remote})
		},
		OnScreenInfo: func(l screens.Layout) {
			f.Publish(Event{Type: "screens", Screens: l.Wire()})
		},
		OnStatus: func(s session.Status, reason string) {
			f.Publish(Event{Type: "status", Status: s.String(), Reason: reason})
		},
		OnLog: func(msg string) {
			f.Publish(Event{Type: "log", Message: msg})
		},
	}
}
