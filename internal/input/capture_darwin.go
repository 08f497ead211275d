//go:build darwin && cgo

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
extern int createTap(void);
extern void runTap(void);
extern void stopTap(void);
extern void currentCursorPosition(double *x, double *y);
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/frank2889/MacWinControl/internal/permissions"
	"github.com/frank2889/MacWinControl/internal/protocol"
)

// CGEvent type values delivered to the tap callback.
const (
	cgLeftMouseDown     = 1
	cgLeftMouseUp       = 2
	cgRightMouseDown    = 3
	cgRightMouseUp      = 4
	cgMouseMoved        = 5
	cgLeftMouseDragged  = 6
	cgRightMouseDragged = 7
	cgKeyDown           = 10
	cgKeyUp             = 11
	cgFlagsChanged      = 12
	cgScrollWheel       = 22
	cgOtherMouseDown    = 25
	cgOtherMouseUp      = 26
	cgOtherMouseDragged = 27
)

const (
	cgFlagShift   = 0x00020000
	cgFlagControl = 0x00040000
	cgFlagAlt     = 0x00080000
	cgFlagCommand = 0x00100000
)

// CGTapCapturer taps the session event stream through a CGEventTap. Only
// one tap can be active per process.
type CGTapCapturer struct {
	mu        sync.Mutex
	handler   Handler
	running   bool
	lastFlags uint64
	cursorX   int
	cursorY   int
	haveCur   bool
	stopped   chan struct{}
}

var (
	activeTapMu sync.Mutex
	activeTap   *CGTapCapturer
)

// NewCapturer returns the CGEventTap capturer.
func NewCapturer() Capturer {
	return &CGTapCapturer{}
}

func (c *CGTapCapturer) Start(h Handler) error {
	if err := permissions.EnsureCapture(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.handler = h
	c.running = true
	c.stopped = make(chan struct{})
	c.mu.Unlock()

	activeTapMu.Lock()
	activeTap = c
	activeTapMu.Unlock()

	// Tap creation happens on the goroutine that will run its loop, so
	// the failure has to travel back before Start may report success.
	startErr := make(chan error, 1)
	go func() {
		// The tap's run loop must stay on one OS thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if C.createTap() == 0 {
			startErr <- fmt.Errorf("create event tap: %w", permissions.ErrCaptureDenied)
			close(c.stopped)
			return
		}
		startErr <- nil
		C.runTap()
		close(c.stopped)
	}()

	if err := <-startErr; err != nil {
		c.mu.Lock()
		c.running = false
		c.handler = nil
		c.mu.Unlock()

		activeTapMu.Lock()
		if activeTap == c {
			activeTap = nil
		}
		activeTapMu.Unlock()
		return err
	}
	return nil
}

func (c *CGTapCapturer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopped := c.stopped
	c.mu.Unlock()

	C.stopTap()
	<-stopped

	activeTapMu.Lock()
	if activeTap == c {
		activeTap = nil
	}
	activeTapMu.Unlock()
}

func (c *CGTapCapturer) CursorPosition() (int, int, bool) {
	c.mu.Lock()
	if c.haveCur {
		x, y := c.cursorX, c.cursorY
		c.mu.Unlock()
		return x, y, true
	}
	c.mu.Unlock()

	var x, y C.double
	C.currentCursorPosition(&x, &y)
	return int(x), int(y), true
}

//export goTapEvent
func goTapEvent(evType, dx, dy C.int, x, y C.double, button, keyCode C.int,
	flags C.ulonglong, wheelDX, wheelDY C.int) C.int {
	activeTapMu.Lock()
	c := activeTap
	activeTapMu.Unlock()
	if c == nil {
		return 0
	}
	if c.dispatch(int(evType), int(dx), int(dy), float64(x), float64(y),
		int(button), int(keyCode), uint64(flags), int(wheelDX), int(wheelDY)) {
		return 1
	}
	return 0
}

func (c *CGTapCapturer) dispatch(evType, dx, dy int, x, y float64,
	button, keyCode int, flags uint64, wheelDX, wheelDY int) bool {
	c.mu.Lock()
	h := c.handler
	if evType == cgMouseMoved || evType == cgLeftMouseDragged ||
		evType == cgRightMouseDragged || evType == cgOtherMouseDragged {
		c.cursorX, c.cursorY = int(x), int(y)
		c.haveCur = true
	}
	prevFlags := c.lastFlags
	if evType == cgFlagsChanged {
		c.lastFlags = flags
	}
	c.mu.Unlock()

	if h == nil {
		return false
	}

	mods := flagsToModifiers(flags)

	switch evType {
	case cgMouseMoved, cgLeftMouseDragged, cgRightMouseDragged, cgOtherMouseDragged:
		return h(RawEvent{Kind: KindMouseMove, DX: dx, DY: dy, Modifiers: mods})
	case cgLeftMouseDown:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonLeft, Action: ActionDown, Modifiers: mods})
	case cgLeftMouseUp:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonLeft, Action: ActionUp, Modifiers: mods})
	case cgRightMouseDown:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonRight, Action: ActionDown, Modifiers: mods})
	case cgRightMouseUp:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonRight, Action: ActionUp, Modifiers: mods})
	case cgOtherMouseDown, cgOtherMouseUp:
		action := ActionDown
		if evType == cgOtherMouseUp {
			action = ActionUp
		}
		b := ButtonMiddle
		if button != 2 {
			b = ButtonLeft
		}
		return h(RawEvent{Kind: KindMouseButton, Button: b, Action: action, Modifiers: mods})
	case cgScrollWheel:
		// Line deltas → detent units.
		return h(RawEvent{Kind: KindMouseScroll, WheelDX: wheelDX * 120, WheelDY: wheelDY * 120, Modifiers: mods})
	case cgKeyDown:
		return h(RawEvent{Kind: KindKey, KeyCode: keyCode, Action: ActionDown, Modifiers: mods})
	case cgKeyUp:
		return h(RawEvent{Kind: KindKey, KeyCode: keyCode, Action: ActionUp, Modifiers: mods})
	case cgFlagsChanged:
		// Modifier keys arrive as flag transitions, not key events. The
		// changed bit's direction decides press versus release.
		mask := modifierMaskFor(keyCode)
		action := ActionUp
		if flags&mask != 0 && prevFlags&mask == 0 {
			action = ActionDown
		}
		return h(RawEvent{Kind: KindKey, KeyCode: keyCode, Action: action, Modifiers: mods})
	}
	return false
}

func modifierMaskFor(keyCode int) uint64 {
	switch keyCode {
	case 56, 60:
		return cgFlagShift
	case 59, 62:
		return cgFlagControl
	case 58, 61:
		return cgFlagAlt
	case 55, 54:
		return cgFlagCommand
	default:
		return 0
	}
}

func flagsToModifiers(flags uint64) protocol.Modifiers {
	return protocol.Modifiers{
		Shift:   flags&cgFlagShift != 0,
		Control: flags&cgFlagControl != 0,
		Alt:     flags&cgFlagAlt != 0,
		Meta:    flags&cgFlagCommand != 0,
	}
}
