//go:build darwin && cgo

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>

static void moveMouse(double x, double y) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved,
        CGPointMake(x, y), kCGMouseButtonLeft);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void mouseButton(double x, double y, int button, int down) {
    CGEventType type;
    CGMouseButton btn;
    switch (button) {
        case 1:  type = down ? kCGEventRightMouseDown : kCGEventRightMouseUp;
                 btn = kCGMouseButtonRight;  break;
        case 2:  type = down ? kCGEventOtherMouseDown : kCGEventOtherMouseUp;
                 btn = kCGMouseButtonCenter; break;
        default: type = down ? kCGEventLeftMouseDown : kCGEventLeftMouseUp;
                 btn = kCGMouseButtonLeft;   break;
    }
    CGEventRef event = CGEventCreateMouseEvent(NULL, type, CGPointMake(x, y), btn);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void mouseScroll(int dx, int dy) {
    CGEventRef event = CGEventCreateScrollWheelEvent(NULL,
        kCGScrollEventUnitLine, 2, dy, dx);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void keyEvent(CGKeyCode keyCode, int down, CGEventFlags flags) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, down != 0);
    if (flags) {
        CGEventSetFlags(event, flags);
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

static void setCursorVisible(int visible) {
    if (visible) {
        CGDisplayShowCursor(kCGDirectMainDisplay);
    } else {
        CGDisplayHideCursor(kCGDirectMainDisplay);
    }
}
*/
import "C"

import "github.com/frank2889/MacWinControl/internal/protocol"

// CGEventInjector replays events through the CoreGraphics CGEvent APIs.
type CGEventInjector struct{}

// NewInjector returns the CoreGraphics injector.
func NewInjector() Injector {
	return &CGEventInjector{}
}

func (inj *CGEventInjector) MoveMouse(x, y int) error {
	C.moveMouse(C.double(x), C.double(y))
	return nil
}

func (inj *CGEventInjector) MouseButton(button Button, action Action, x, y int) error {
	C.mouseButton(C.double(x), C.double(y), C.int(buttonIndex(button)), C.int(downFlag(action)))
	return nil
}

func (inj *CGEventInjector) Scroll(dx, dy int) error {
	// Wire deltas are detent units; CGEvent line units are one per detent.
	C.mouseScroll(C.int(dx/120), C.int(dy/120))
	return nil
}

func (inj *CGEventInjector) Key(code int, action Action, mods protocol.Modifiers) error {
	C.keyEvent(C.CGKeyCode(code), C.int(downFlag(action)), C.CGEventFlags(modifierFlags(mods)))
	return nil
}

func (inj *CGEventInjector) SetCursorVisible(visible bool) error {
	v := 0
	if visible {
		v = 1
	}
	C.setCursorVisible(C.int(v))
	return nil
}

func buttonIndex(b Button) int {
	switch b {
	case ButtonRight:
		return 1
	case ButtonMiddle:
		return 2
	default:
		return 0
	}
}

func downFlag(a Action) int {
	if a == ActionDown {
		return 1
	}
	return 0
}

func modifierFlags(m protocol.Modifiers) uint64 {
	var flags uint64
	if m.Shift {
		flags |= 0x00020000 // kCGEventFlagMaskShift
	}
	if m.Control {
		flags |= 0x00040000 // kCGEventFlagMaskControl
	}
	if m.Alt {
		flags |= 0x00080000 // kCGEventFlagMaskAlternate
	}
	if m.Meta {
		flags |= 0x00100000 // kCGEventFlagMaskCommand
	}
	return flags
}
