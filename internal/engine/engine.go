// Package engine ties the ports together: it owns the session, the edge
// detector and the mode switcher, and runs the single event loop through
// which every context talks to them. OS hook callbacks, network readers
// and the detector only post messages; the loop goroutine is the sole
// writer of engine state.
package engine

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/frank2889/MacWinControl/internal/edge"
	"github.com/frank2889/MacWinControl/internal/input"
	"github.com/frank2889/MacWinControl/internal/keymap"
	"github.com/frank2889/MacWinControl/internal/mode"
	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/frank2889/MacWinControl/internal/session"
)

// Observer receives engine events for front-end code. Any field may be
// nil. Callbacks run on the engine's loop goroutine and must not call
// back into the engine.
type Observer struct {
	OnConnected    func(peerName string)
	OnDisconnected func()
	OnModeChanged  func(remoteActive bool)
	OnScreenInfo   func(screens.Layout)
	OnStatus       func(status session.Status, reason string)
	// OnLog carries human-readable status lines for display.
	OnLog func(msg string)
}

// Ports are the platform collaborators the engine drives.
type Ports struct {
	Capturer input.Capturer
	Injector input.Injector
	Screens  screens.Enumerator
	Keymap   *keymap.Translator
}

// Config sets up an engine run.
type Config struct {
	// Role picks listening or dialing; Addr is the listen or peer address.
	Role session.Role
	Addr string
	// SwitchEdge is the edge of the local desktop that hands input to the
	// peer when crossed.
	SwitchEdge screens.Edge
	Detector   edge.Config
	Session    session.Options
}

// posted message kinds for the event loop
type (
	rawEvent       struct{ ev input.RawEvent }
	edgeCrossed    struct{ hit edge.Hit }
	wireMessage    struct{ msg protocol.Message }
	peerConnected  struct{ name string }
	peerGone       struct{}
	peerScreens    struct{ layout screens.Layout }
	displayChanged struct{}
)

// Engine is the session engine. Create with New, then Start and Stop.
type Engine struct {
	cfg   Config
	ports Ports
	obs   Observer

	sess     *session.Manager
	switcher *mode.Switcher
	detector *edge.Detector

	// suppress is read on the OS hook context; it mirrors the switcher's
	// RemoteActive state without taking its lock there.
	suppress atomic.Bool

	events  chan any
	stopped chan struct{}
	done    chan struct{}

	mu          sync.Mutex
	localLayout screens.Layout
	started     bool
	running     bool
	closing     bool
}

// New wires an engine. Nothing runs until Start.
func New(cfg Config, ports Ports, obs Observer) *Engine {
	if ports.Keymap == nil {
		ports.Keymap = keymap.Native()
	}
	e := &Engine{
		cfg:     cfg,
		ports:   ports,
		obs:     obs,
		events:  make(chan any, 256),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	e.switcher = mode.NewSwitcher(nil)
	e.sess = session.New(cfg.Session, session.Handler{
		OnConnected:    func(name string) { e.post(peerConnected{name}) },
		OnDisconnected: func() { e.post(peerGone{}) },
		OnScreenInfo:   func(l screens.Layout) { e.post(peerScreens{l}) },
		OnMessage:      func(m protocol.Message) { e.post(wireMessage{m}) },
		OnStatus: func(s session.Status, reason string) {
			if obs.OnStatus != nil {
				obs.OnStatus(s, reason)
			}
		},
	})
	e.detector = edge.NewDetector(
		ports.Capturer,
		e.localBounds,
		func(h edge.Hit) { e.post(edgeCrossed{h}) },
		cfg.Detector,
	)
	return e
}

// Start brings the engine up: screen enumeration, capture hook, network,
// edge detection, event loop. A failure partway rolls back what already
// started so no detector or session outlives the error.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.mu.Unlock()

	e.refreshLayout()
	if n, ok := e.ports.Screens.(screens.ChangeNotifier); ok {
		n.OnDisplayChange(func() { e.post(displayChanged{}) })
	}

	if err := e.ports.Capturer.Start(e.onRaw); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	var err error
	if e.cfg.Role == session.RoleHost {
		err = e.sess.Listen(e.cfg.Addr)
	} else {
		err = e.sess.Connect(e.cfg.Addr)
	}
	if err != nil {
		e.ports.Capturer.Stop()
		return err
	}

	e.detector.Start()
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	go e.loop()
	return nil
}

// Stop unwinds in fixed order: network first, then mode state, then the
// capture hook, then cursor visibility. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running || e.closing {
		e.mu.Unlock()
		return
	}
	e.closing = true
	e.mu.Unlock()

	e.sess.Close()
	close(e.stopped)
	<-e.done

	e.switcher.ForceLocal()
	e.suppress.Store(false)
	e.detector.Stop()
	e.ports.Capturer.Stop()
	if err := e.ports.Injector.SetCursorVisible(true); err != nil {
		slog.Warn("restore cursor visibility", "error", err)
	}
}

// Addr returns the bound listen address when hosting, nil otherwise.
func (e *Engine) Addr() net.Addr {
	return e.sess.Addr()
}

// Mode returns the current mode state.
func (e *Engine) Mode() mode.State {
	return e.switcher.State()
}

// SessionStatus returns the session lifecycle state.
func (e *Engine) SessionStatus() session.Status {
	return e.sess.Status()
}

// LocalLayout returns the last enumerated local monitor layout.
func (e *Engine) LocalLayout() screens.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localLayout
}

// onRaw is the capture callback. Hook context: enqueue only, never block.
// Events are consumed from the local OS exactly while input is forwarded.
func (e *Engine) onRaw(ev input.RawEvent) bool {
	if !e.suppress.Load() {
		return false
	}
	select {
	case e.events <- rawEvent{ev}:
	default:
		// Loop is behind; dropping a sample beats stalling the hook.
	}
	return true
}

func (e *Engine) post(m any) {
	select {
	case e.events <- m:
	case <-e.stopped:
	}
}

func (e *Engine) loop() {
	defer close(e.done)
	for {
		select {
		case <-e.stopped:
			return
		case m := <-e.events:
			e.handle(m)
		}
	}
}

func (e *Engine) handle(m any) {
	switch v := m.(type) {
	case rawEvent:
		e.forward(v.ev)
	case edgeCrossed:
		e.handleEdge(v.hit)
	case wireMessage:
		e.handleWire(v.msg)
	case peerConnected:
		slog.Info("peer session up", "peer", v.name)
		e.logf("connected to " + v.name)
		if e.obs.OnConnected != nil {
			e.obs.OnConnected(v.name)
		}
	case peerGone:
		e.handleDisconnect()
	case peerScreens:
		e.switcher.SetPeerLayout(v.layout)
		if e.obs.OnScreenInfo != nil {
			e.obs.OnScreenInfo(v.layout)
		}
	case displayChanged:
		e.refreshLayout()
	}
}

// forward turns a captured raw event into wire messages while remote is
// active.
func (e *Engine) forward(ev input.RawEvent) {
	if e.switcher.State() != mode.RemoteActive {
		return
	}
	switch ev.Kind {
	case input.KindMouseMove:
		x, y, returned := e.switcher.Accumulate(ev.DX, ev.DY)
		e.sess.Send(protocol.MouseMove{X: x, Y: y, Timestamp: protocol.Now()})
		if returned {
			e.returnLocal(true)
		}
	case input.KindMouseButton:
		x, y, _ := e.switcher.Accumulate(0, 0)
		e.sess.Send(protocol.MouseButton{
			Button:    string(ev.Button),
			Action:    string(ev.Action),
			X:         x,
			Y:         y,
			Timestamp: protocol.Now(),
		})
	case input.KindMouseScroll:
		e.sess.Send(protocol.MouseScroll{
			DeltaX:    ev.WheelDX,
			DeltaY:    ev.WheelDY,
			Timestamp: protocol.Now(),
		})
	case input.KindKey:
		code := e.ports.Keymap.ToCanonical(ev.KeyCode)
		if ev.Action == input.ActionDown && mode.IsEscapeChord(code, ev.Modifiers) {
			e.returnLocal(true)
			return
		}
		e.sess.Send(protocol.Key{
			KeyCode:   code,
			Action:    string(ev.Action),
			Modifiers: ev.Modifiers,
			Timestamp: protocol.Now(),
		})
	}
}

func (e *Engine) handleEdge(hit edge.Hit) {
	if hit.Edge != e.cfg.SwitchEdge {
		return
	}
	if e.sess.Status() != session.StatusConnected {
		slog.Debug("edge hit without a connected peer", "edge", hit.Edge)
		return
	}
	// Injected moves from a controlling peer travel the same hook and
	// detector path; they must not steal control back.
	if e.switcher.PeerControls() {
		slog.Debug("ignoring edge hit while peer controls this machine", "edge", hit.Edge)
		return
	}
	if !e.switcher.ActivateRemote(hit.Edge, hit.X, hit.Y) {
		return
	}
	e.suppress.Store(true)
	e.detector.SetEnabled(false)
	e.sess.Send(protocol.ModeSwitch{Active: true})
	if err := e.ports.Injector.SetCursorVisible(false); err != nil {
		slog.Warn("hide cursor", "error", err)
	}
	e.logf("controlling " + e.sess.PeerName())
	if e.obs.OnModeChanged != nil {
		e.obs.OnModeChanged(true)
	}
}

// returnLocal hands control back to this machine. announce is false when
// the peer initiated the switch and needs no mode_switch echo.
func (e *Engine) returnLocal(announce bool) {
	if !e.switcher.Deactivate() {
		return
	}
	e.suppress.Store(false)
	if announce {
		e.sess.Send(protocol.ModeSwitch{Active: false})
	}
	if err := e.ports.Injector.SetCursorVisible(true); err != nil {
		slog.Warn("show cursor", "error", err)
	}
	x, y := e.switcher.ReparkPosition(e.localBounds())
	if err := e.ports.Injector.MoveMouse(x, y); err != nil {
		slog.Warn("repark cursor", "error", err)
	}
	e.detector.SetEnabled(true)
	e.logf("controlling this machine")
	if e.obs.OnModeChanged != nil {
		e.obs.OnModeChanged(false)
	}
}

func (e *Engine) handleWire(msg protocol.Message) {
	switch v := msg.(type) {
	case protocol.ModeSwitch:
		if v.Active {
			e.switcher.SetPeerControls(true)
		} else {
			if e.switcher.State() == mode.RemoteActive {
				// Peer pushed our forwarded cursor back over its edge from
				// its own side; release without echoing.
				e.returnLocal(false)
				return
			}
			e.switcher.SetPeerControls(false)
		}
	case protocol.MouseMove:
		if err := e.ports.Injector.MoveMouse(v.X, v.Y); err != nil {
			slog.Warn("inject mouse move", "error", err)
		}
	case protocol.MouseButton:
		if err := e.ports.Injector.MouseButton(input.Button(v.Button), input.Action(v.Action), v.X, v.Y); err != nil {
			slog.Warn("inject mouse button", "button", v.Button, "error", err)
		}
	case protocol.MouseScroll:
		if err := e.ports.Injector.Scroll(v.DeltaX, v.DeltaY); err != nil {
			slog.Warn("inject scroll", "error", err)
		}
	case protocol.Key:
		code := e.ports.Keymap.FromCanonical(v.KeyCode)
		if err := e.ports.Injector.Key(code, input.Action(v.Action), v.Modifiers); err != nil {
			slog.Warn("inject key", "keyCode", v.KeyCode, "error", err)
		}
	}
}

func (e *Engine) handleDisconnect() {
	wasRemote := e.switcher.State() == mode.RemoteActive
	e.switcher.ForceLocal()
	e.suppress.Store(false)
	e.detector.SetEnabled(true)
	if wasRemote {
		if err := e.ports.Injector.SetCursorVisible(true); err != nil {
			slog.Warn("show cursor", "error", err)
		}
	}
	e.logf("peer disconnected")
	if e.obs.OnDisconnected != nil {
		e.obs.OnDisconnected()
	}
	if e.obs.OnModeChanged != nil && wasRemote {
		e.obs.OnModeChanged(false)
	}
}

func (e *Engine) logf(msg string) {
	if e.obs.OnLog != nil {
		e.obs.OnLog(msg)
	}
}

func (e *Engine) refreshLayout() {
	rects, err := e.ports.Screens.Screens()
	if err != nil {
		slog.Warn("enumerate screens", "error", err)
		return
	}
	layout := screens.Layout{Screens: rects}
	e.mu.Lock()
	e.localLayout = layout
	e.mu.Unlock()
	e.sess.SetLocalLayout(layout)
	slog.Debug("local layout updated", "monitors", len(rects), "bounds", layout.Bounds())
}

func (e *Engine) localBounds() screens.Bounds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localLayout.Bounds()
}
