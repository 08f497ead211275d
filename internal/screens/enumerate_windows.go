//go:build windows

package screens

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

const monitorinfofPrimary = 0x1

type winRect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfo struct {
	Size    uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
}

type winEnumerator struct{}

// NewEnumerator returns the Win32 display enumerator.
func NewEnumerator() Enumerator {
	return winEnumerator{}
}

func (winEnumerator) Screens() ([]Rect, error) {
	var rects []Rect

	cb := windows.NewCallback(func(hMonitor, hdc uintptr, rect *winRect, lparam uintptr) uintptr {
		mi := monitorInfo{Size: uint32(unsafe.Sizeof(monitorInfo{}))}
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret == 0 {
			return 1 // keep enumerating
		}
		rects = append(rects, Rect{
			X:       int(mi.Monitor.Left),
			Y:       int(mi.Monitor.Top),
			Width:   int(mi.Monitor.Right - mi.Monitor.Left),
			Height:  int(mi.Monitor.Bottom - mi.Monitor.Top),
			Primary: mi.Flags&monitorinfofPrimary != 0,
		})
		return 1
	})

	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return rects, nil
}
