// Package input defines the two ports between the session engine and the
// OS input devices: a Capturer that taps local events and an Injector that
// replays remote ones. Each platform implements both in files guarded by
// build tags; the engine itself never touches an OS API.
package input

import (
	"errors"

	"github.com/frank2889/MacWinControl/internal/protocol"
)

// ErrUnsupported is returned by the portable stubs on platforms without a
// native capture or injection backend.
var ErrUnsupported = errors.New("input capture not supported on this platform")

// Handler receives every captured raw event. It runs on the OS hook
// context: it must return quickly and must not block on I/O or locks held
// elsewhere. Returning true consumes the event, withholding it from the
// local OS.
type Handler func(RawEvent) bool

// Capturer taps the local mouse and keyboard.
type Capturer interface {
	// Start installs the OS hook and begins delivering events. It fails
	// with a permission error where the platform gates low-level hooks.
	Start(Handler) error
	// Stop removes the hook. Safe to call more than once.
	Stop()
	// CursorPosition reports the last known local cursor position. ok is
	// false before the first sample or when the platform cannot say.
	CursorPosition() (x, y int, ok bool)
}

// Injector replays events on the local devices.
type Injector interface {
	// MoveMouse warps the cursor to absolute local coordinates.
	MoveMouse(x, y int) error
	// MouseButton presses or releases a button at the given position.
	MouseButton(button Button, action Action, x, y int) error
	// Scroll scrolls by wheel deltas in detent units.
	Scroll(dx, dy int) error
	// Key presses or releases a key given by its local key code.
	Key(code int, action Action, modifiers protocol.Modifiers) error
	// SetCursorVisible shows or hides the local cursor.
	SetCursorVisible(visible bool) error
}
