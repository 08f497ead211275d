//go:build windows

package input

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/frank2889/MacWinControl/internal/protocol"
)

var (
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetKeyState         = user32.NewProc("GetAsyncKeyState")

	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmMouseHWheel = 0x020E
)

type msllHookStruct struct {
	Pt        struct{ X, Y int32 }
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// HookCapturer taps input through Win32 low-level hooks. The hook thread
// owns both hooks and pumps its own message queue.
type HookCapturer struct {
	mu       sync.Mutex
	handler  Handler
	running  bool
	threadID uint32
	lastX    int32
	lastY    int32
	haveCur  bool
	haveLast bool
	stopped  chan struct{}
	startErr chan error
}

var (
	activeHookMu sync.Mutex
	activeHook   *HookCapturer
)

// NewCapturer returns the low-level-hook capturer.
func NewCapturer() Capturer {
	return &HookCapturer{}
}

func (c *HookCapturer) Start(h Handler) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.handler = h
	c.running = true
	c.stopped = make(chan struct{})
	c.startErr = make(chan error, 1)
	c.mu.Unlock()

	activeHookMu.Lock()
	activeHook = c
	activeHookMu.Unlock()

	go c.hookLoop()
	return <-c.startErr
}

func (c *HookCapturer) hookLoop() {
	// Low-level hooks are delivered to the installing thread's message
	// queue; the thread must stay fixed and must keep pumping.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.stopped)

	tid, _, _ := procGetCurrentThreadID.Call()
	c.mu.Lock()
	c.threadID = uint32(tid)
	c.mu.Unlock()

	mouseProc := windows.NewCallback(func(code int32, wparam, lparam uintptr) uintptr {
		if code >= 0 && c.onMouse(uint32(wparam), (*msllHookStruct)(unsafe.Pointer(lparam))) {
			return 1
		}
		ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wparam, lparam)
		return ret
	})
	keyProc := windows.NewCallback(func(code int32, wparam, lparam uintptr) uintptr {
		if code >= 0 && c.onKey(uint32(wparam), (*kbdllHookStruct)(unsafe.Pointer(lparam))) {
			return 1
		}
		ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wparam, lparam)
		return ret
	})

	mouseHook, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseProc, 0, 0)
	if mouseHook == 0 {
		c.startErr <- fmt.Errorf("SetWindowsHookEx(WH_MOUSE_LL): %w", err)
		return
	}
	keyHook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyProc, 0, 0)
	if keyHook == 0 {
		procUnhookWindowsHookEx.Call(mouseHook)
		c.startErr <- fmt.Errorf("SetWindowsHookEx(WH_KEYBOARD_LL): %w", err)
		return
	}
	c.startErr <- nil

	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 || msg.Message == wmQuit {
			break
		}
	}

	procUnhookWindowsHookEx.Call(mouseHook)
	procUnhookWindowsHookEx.Call(keyHook)
}

func (c *HookCapturer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	tid := c.threadID
	stopped := c.stopped
	c.mu.Unlock()

	if tid != 0 {
		procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
		<-stopped
	}

	activeHookMu.Lock()
	if activeHook == c {
		activeHook = nil
	}
	activeHookMu.Unlock()
}

func (c *HookCapturer) CursorPosition() (int, int, bool) {
	c.mu.Lock()
	if c.haveCur {
		x, y := int(c.lastX), int(c.lastY)
		c.mu.Unlock()
		return x, y, true
	}
	c.mu.Unlock()

	var pt struct{ X, Y int32 }
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, false
	}
	return int(pt.X), int(pt.Y), true
}

func (c *HookCapturer) onMouse(msg uint32, info *msllHookStruct) bool {
	c.mu.Lock()
	h := c.handler
	var dx, dy int
	if c.haveLast {
		dx = int(info.Pt.X - c.lastX)
		dy = int(info.Pt.Y - c.lastY)
	}
	c.lastX, c.lastY = info.Pt.X, info.Pt.Y
	c.haveCur = true
	c.haveLast = true
	c.mu.Unlock()

	if h == nil {
		return false
	}

	mods := currentModifiers()
	switch msg {
	case wmMouseMove:
		return h(RawEvent{Kind: KindMouseMove, DX: dx, DY: dy, Modifiers: mods})
	case wmLButtonDown:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonLeft, Action: ActionDown, Modifiers: mods})
	case wmLButtonUp:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonLeft, Action: ActionUp, Modifiers: mods})
	case wmRButtonDown:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonRight, Action: ActionDown, Modifiers: mods})
	case wmRButtonUp:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonRight, Action: ActionUp, Modifiers: mods})
	case wmMButtonDown:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonMiddle, Action: ActionDown, Modifiers: mods})
	case wmMButtonUp:
		return h(RawEvent{Kind: KindMouseButton, Button: ButtonMiddle, Action: ActionUp, Modifiers: mods})
	case wmMouseWheel:
		delta := int(int16(uint16(info.MouseData >> 16)))
		return h(RawEvent{Kind: KindMouseScroll, WheelDY: delta, Modifiers: mods})
	case wmMouseHWheel:
		delta := int(int16(uint16(info.MouseData >> 16)))
		return h(RawEvent{Kind: KindMouseScroll, WheelDX: delta, Modifiers: mods})
	}
	return false
}

func (c *HookCapturer) onKey(msg uint32, info *kbdllHookStruct) bool {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		return false
	}

	action := ActionDown
	if msg == wmKeyUp || msg == wmSysKeyUp {
		action = ActionUp
	}
	return h(RawEvent{
		Kind:      KindKey,
		KeyCode:   int(info.VkCode),
		Action:    action,
		Modifiers: currentModifiers(),
	})
}

func currentModifiers() protocol.Modifiers {
	down := func(vk uintptr) bool {
		ret, _, _ := procGetKeyState.Call(vk)
		return uint16(ret)&0x8000 != 0
	}
	return protocol.Modifiers{
		Shift:   down(vkShift),
		Control: down(vkControl),
		Alt:     down(vkMenu),
		Meta:    down(vkLWin),
	}
}
