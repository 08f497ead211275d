package protocol

import "time"

// Message type discriminators. Every wire message is a single JSON object
// with a "type" field holding one of these.
const (
	TypeHello       = "hello"
	TypeConnected   = "connected"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeModeSwitch  = "mode_switch"
	TypeMouseMove   = "mouse_move"
	TypeMouseButton = "mouse_button"
	TypeMouseScroll = "mouse_scroll"
	TypeKey         = "key"
	TypeScreenInfo  = "screen_info"
	TypeError       = "error"
)

// Version is the protocol version exchanged in hello messages.
const Version = "1.0"

// Mouse button names and key/button actions used on the wire.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"

	ActionDown = "down"
	ActionUp   = "up"
)

// Message is implemented by every wire message variant.
type Message interface {
	MessageType() string
}

// Modifiers is the modifier-key state attached to key events.
type Modifiers struct {
	Shift   bool `json:"shift"`
	Control bool `json:"control"`
	Alt     bool `json:"alt"`
	Meta    bool `json:"meta"`
}

// Screen describes one monitor rectangle in the sender's virtual desktop.
type Screen struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Primary bool `json:"isPrimary,omitempty"`
}

// Hello opens the handshake from either side.
type Hello struct {
	Version string `json:"version"`
	Name    string `json:"name,omitempty"`
}

// Connected is the host's acknowledgment that the handshake completed.
type Connected struct{}

// Ping is a keepalive probe; the receiver answers with Pong immediately.
type Ping struct{}

// Pong answers a Ping.
type Pong struct{}

// ModeSwitch transfers input ownership. Active true means the sender is now
// forwarding its input to the receiver.
type ModeSwitch struct {
	Active bool `json:"active"`
}

// MouseMove carries an absolute position in the receiver's own virtual
// desktop space.
type MouseMove struct {
	X         int   `json:"x"`
	Y         int   `json:"y"`
	Timestamp int64 `json:"timestamp"`
}

// MouseButton carries a button press or release at the given position.
type MouseButton struct {
	Button    string `json:"button"`
	Action    string `json:"action"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Timestamp int64  `json:"timestamp"`
}

// MouseScroll carries wheel deltas in detent units (multiples of 120).
type MouseScroll struct {
	DeltaX    int   `json:"deltaX"`
	DeltaY    int   `json:"deltaY"`
	Timestamp int64 `json:"timestamp"`
}

// Key carries a key press or release. KeyCode is in the canonical
// (Windows virtual-key) code space.
type Key struct {
	KeyCode   int       `json:"keyCode"`
	Action    string    `json:"action"`
	Modifiers Modifiers `json:"modifiers"`
	Timestamp int64     `json:"timestamp"`
}

// ScreenInfo announces the sender's monitor layout.
type ScreenInfo struct {
	Screens []Screen `json:"screens"`
}

// Error reports a human-readable problem to the peer.
type Error struct {
	Message string `json:"message"`
}

// Unknown preserves a message whose type this build does not recognize.
// Unknown messages are dropped by callers, never treated as fatal.
type Unknown struct {
	Type string `json:"-"`
}

func (Hello) MessageType() string       { return TypeHello }
func (Connected) MessageType() string   { return TypeConnected }
func (Ping) MessageType() string        { return TypePing }
func (Pong) MessageType() string        { return TypePong }
func (ModeSwitch) MessageType() string  { return TypeModeSwitch }
func (MouseMove) MessageType() string   { return TypeMouseMove }
func (MouseButton) MessageType() string { return TypeMouseButton }
func (MouseScroll) MessageType() string { return TypeMouseScroll }
func (Key) MessageType() string         { return TypeKey }
func (ScreenInfo) MessageType() string  { return TypeScreenInfo }
func (Error) MessageType() string       { return TypeError }
func (u Unknown) MessageType() string   { return u.Type }

// Now returns the current time as milliseconds since epoch, the timestamp
// unit used by all wire messages.
func Now() int64 {
	return time.Now().UnixMilli()
}
