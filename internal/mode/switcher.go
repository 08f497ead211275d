// Package mode owns the state machine deciding which machine currently
// has the user's input. At most one side of a session forwards input at
// a time; the transition is always initiated by the forwarding side and
// announced to the peer with a mode_switch message.
package mode

import (
	"log/slog"
	"sync"

	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
)

// State is the local half of the mode machine. RemoteActive means this
// machine is forwarding its input to the peer.
type State int

const (
	LocalActive State = iota
	RemoteActive
)

func (s State) String() string {
	if s == RemoteActive {
		return "remote-active"
	}
	return "local-active"
}

const (
	// EscapeKeyCode is the canonical code of the escape chord's key.
	// Ctrl+Alt+M always hands control back to the local machine.
	EscapeKeyCode = 77

	// entryInset places the virtual cursor just inside the peer edge it
	// entered through, so the first few deltas do not bounce it back.
	entryInset = 5

	// returnMargin is how close the virtual cursor must get to the peer's
	// entry edge for control to return to the local machine.
	returnMargin = 2

	// ReparkInset is how far inside the crossed edge the real cursor is
	// placed when control comes back, clear of the detector's threshold.
	ReparkInset = 100
)

// Switcher tracks which side of the session is forwarding input and, while
// remote is active, the virtual cursor position on the peer's desktop. The
// local cursor is hidden in that state, so the peer position can only be
// tracked by accumulating relative deltas.
type Switcher struct {
	mu           sync.Mutex
	state        State
	peerControls bool

	peerBounds screens.Bounds
	crossed    screens.Edge
	entryX     int
	entryY     int
	vx, vy     int

	onChange func(State)
}

// NewSwitcher returns a switcher in LocalActive with the fallback peer
// bounds. onChange fires on every local state transition, outside the
// switcher's lock; it may be nil.
func NewSwitcher(onChange func(State)) *Switcher {
	return &Switcher{
		peerBounds: screens.Fallback().Bounds(),
		onChange:   onChange,
	}
}

// State returns the local half of the machine.
func (s *Switcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Suppressed reports whether local input events should be withheld from
// the local OS. True while this machine forwards to the peer.
func (s *Switcher) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == RemoteActive
}

// PeerControls reports whether the peer announced it is forwarding its
// input to us.
func (s *Switcher) PeerControls() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerControls
}

// SetPeerLayout records the peer's desktop bounds for virtual cursor
// clamping. An empty layout keeps the fallback.
func (s *Switcher) SetPeerLayout(layout screens.Layout) {
	b := layout.Bounds()
	if b.Empty() {
		return
	}
	s.mu.Lock()
	s.peerBounds = b
	s.mu.Unlock()
}

// ActivateRemote switches LocalActive to RemoteActive after the cursor
// crossed the given edge at (x, y). The virtual cursor starts just inside
// the peer edge facing the crossing, carrying over the perpendicular
// coordinate. Returns false, with a warning, if remote is already active.
func (s *Switcher) ActivateRemote(crossed screens.Edge, x, y int) bool {
	s.mu.Lock()
	if s.state == RemoteActive {
		s.mu.Unlock()
		slog.Warn("remote already active, ignoring edge hit", "edge", crossed)
		return false
	}
	s.state = RemoteActive
	s.crossed = crossed
	s.entryX, s.entryY = x, y

	w, h := s.peerBounds.Width(), s.peerBounds.Height()
	switch crossed {
	case screens.EdgeRight:
		s.vx, s.vy = entryInset, clamp(y, 0, h)
	case screens.EdgeLeft:
		s.vx, s.vy = w-entryInset, clamp(y, 0, h)
	case screens.EdgeBottom:
		s.vx, s.vy = clamp(x, 0, w), entryInset
	case screens.EdgeTop:
		s.vx, s.vy = clamp(x, 0, w), h-entryInset
	}
	s.mu.Unlock()

	slog.Info("input redirected to peer", "edge", crossed)
	s.notify(RemoteActive)
	return true
}

// Accumulate applies a relative mouse delta to the virtual cursor, clamped
// to the peer bounds, and reports the new position. returned is true when
// the cursor reached the peer edge it entered through, meaning control
// should come back to this machine.
func (s *Switcher) Accumulate(dx, dy int) (x, y int, returned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != RemoteActive {
		return s.vx, s.vy, false
	}
	w, h := s.peerBounds.Width(), s.peerBounds.Height()
	s.vx = clamp(s.vx+dx, 0, w)
	s.vy = clamp(s.vy+dy, 0, h)

	switch s.crossed {
	case screens.EdgeRight:
		returned = s.vx <= returnMargin
	case screens.EdgeLeft:
		returned = s.vx >= w-returnMargin
	case screens.EdgeBottom:
		returned = s.vy <= returnMargin
	case screens.EdgeTop:
		returned = s.vy >= h-returnMargin
	}
	return s.vx, s.vy, returned
}

// Deactivate switches RemoteActive back to LocalActive. Returns false,
// with a warning, if local was already active.
func (s *Switcher) Deactivate() bool {
	s.mu.Lock()
	if s.state != RemoteActive {
		s.mu.Unlock()
		slog.Warn("local already active, ignoring switch back")
		return false
	}
	s.state = LocalActive
	s.mu.Unlock()

	slog.Info("input returned to local machine")
	s.notify(LocalActive)
	return true
}

// ForceLocal unconditionally resets the machine. Used on disconnect,
// where no mode_switch can be delivered anymore.
func (s *Switcher) ForceLocal() {
	s.mu.Lock()
	wasRemote := s.state == RemoteActive
	s.state = LocalActive
	s.peerControls = false
	s.mu.Unlock()

	if wasRemote {
		s.notify(LocalActive)
	}
}

// SetPeerControls records an inbound mode_switch announcement. A peer
// claiming control while this side is itself forwarding is a protocol
// violation; it is logged and ignored.
func (s *Switcher) SetPeerControls(active bool) {
	s.mu.Lock()
	if active && s.state == RemoteActive {
		s.mu.Unlock()
		slog.Warn("peer claimed control while forwarding, ignoring")
		return
	}
	if s.peerControls == active {
		s.mu.Unlock()
		slog.Debug("redundant mode_switch from peer", "active", active)
		return
	}
	s.peerControls = active
	s.mu.Unlock()
	slog.Info("peer mode changed", "peerControls", active)
}

// ReparkPosition is where the real cursor should be placed when control
// returns: inside the crossed edge, at the height or width it left at.
func (s *Switcher) ReparkPosition(local screens.Bounds) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.crossed {
	case screens.EdgeRight:
		return local.MaxX - ReparkInset, s.entryY
	case screens.EdgeLeft:
		return local.MinX + ReparkInset, s.entryY
	case screens.EdgeBottom:
		return s.entryX, local.MaxY - ReparkInset
	case screens.EdgeTop:
		return s.entryX, local.MinY + ReparkInset
	default:
		return local.MinX + (local.MaxX-local.MinX)/2, local.MinY + (local.MaxY-local.MinY)/2
	}
}

// IsEscapeChord reports whether a key event is the reserved Ctrl+Alt+M
// chord that hands control back regardless of cursor position.
func IsEscapeChord(code int, m protocol.Modifiers) bool {
	return code == EscapeKeyCode && m.Control && m.Alt && !m.Shift && !m.Meta
}

func (s *Switcher) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
