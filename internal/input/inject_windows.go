//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/frank2889/MacWinControl/internal/protocol"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
	procSendInput    = user32.NewProc("SendInput")
	procShowCursor   = user32.NewProc("ShowCursor")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000

	keyeventfKeyUp = 0x0002

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
)

type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// winInput matches the Win32 INPUT struct; the union is sized by the
// larger MOUSEINPUT member.
type winInput struct {
	Type uint32
	_    uint32 // alignment padding on amd64
	Mi   mouseInput
}

// SendInputInjector replays events through the Win32 SendInput API.
type SendInputInjector struct{}

// NewInjector returns the SendInput injector.
func NewInjector() Injector {
	return &SendInputInjector{}
}

func (inj *SendInputInjector) MoveMouse(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func (inj *SendInputInjector) MouseButton(button Button, action Action, x, y int) error {
	if err := inj.MoveMouse(x, y); err != nil {
		return err
	}

	var flags uint32
	switch button {
	case ButtonRight:
		flags = mouseeventfRightDown
		if action == ActionUp {
			flags = mouseeventfRightUp
		}
	case ButtonMiddle:
		flags = mouseeventfMiddleDown
		if action == ActionUp {
			flags = mouseeventfMiddleUp
		}
	default:
		flags = mouseeventfLeftDown
		if action == ActionUp {
			flags = mouseeventfLeftUp
		}
	}
	return sendMouse(mouseInput{Flags: flags})
}

func (inj *SendInputInjector) Scroll(dx, dy int) error {
	if dy != 0 {
		if err := sendMouse(mouseInput{Flags: mouseeventfWheel, MouseData: uint32(int32(dy))}); err != nil {
			return err
		}
	}
	if dx != 0 {
		return sendMouse(mouseInput{Flags: mouseeventfHWheel, MouseData: uint32(int32(dx))})
	}
	return nil
}

func (inj *SendInputInjector) Key(code int, action Action, mods protocol.Modifiers) error {
	var flags uint32
	if action == ActionUp {
		flags = keyeventfKeyUp
	}
	return sendKey(keybdInput{Vk: uint16(code), Flags: flags})
}

func (inj *SendInputInjector) SetCursorVisible(visible bool) error {
	show := uintptr(0)
	if visible {
		show = 1
	}
	procShowCursor.Call(show)
	return nil
}

func sendMouse(mi mouseInput) error {
	in := winInput{Type: inputMouse, Mi: mi}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret == 0 {
		return fmt.Errorf("SendInput mouse: %w", err)
	}
	return nil
}

func sendKey(ki keybdInput) error {
	in := winInput{Type: inputKeyboard}
	*(*keybdInput)(unsafe.Pointer(&in.Mi)) = ki
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret == 0 {
		return fmt.Errorf("SendInput keyboard: %w", err)
	}
	return nil
}
