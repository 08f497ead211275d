package input

import "github.com/frank2889/MacWinControl/internal/protocol"

// Kind identifies the kind of raw input event delivered by a Capturer.
type Kind int

const (
	KindMouseMove Kind = iota
	KindMouseButton
	KindMouseScroll
	KindKey
)

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = protocol.ButtonLeft
	ButtonRight  Button = protocol.ButtonRight
	ButtonMiddle Button = protocol.ButtonMiddle
)

// Action is a press or release.
type Action string

const (
	ActionDown Action = protocol.ActionDown
	ActionUp   Action = protocol.ActionUp
)

// RawEvent is one event from the local input devices. Mouse movement is
// relative (DX/DY); key codes are platform-local and pass through the
// keymap before hitting the wire. Scroll deltas are in detent units
// (multiples of 120) on every platform.
type RawEvent struct {
	Kind      Kind
	DX, DY    int
	Button    Button
	Action    Action
	KeyCode   int
	Modifiers protocol.Modifiers
	WheelDX   int
	WheelDY   int
}
