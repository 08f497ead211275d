//go:build darwin && cgo

package screens

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>
*/
import "C"

import "fmt"

const maxDisplays = 16

type cgEnumerator struct{}

// NewEnumerator returns the CoreGraphics display enumerator.
func NewEnumerator() Enumerator {
	return cgEnumerator{}
}

func (cgEnumerator) Screens() ([]Rect, error) {
	var ids [maxDisplays]C.CGDirectDisplayID
	var count C.uint32_t
	if err := C.CGGetActiveDisplayList(maxDisplays, &ids[0], &count); err != C.kCGErrorSuccess {
		return nil, fmt.Errorf("CGGetActiveDisplayList: error %d", int(err))
	}

	main := C.CGMainDisplayID()
	rects := make([]Rect, 0, int(count))
	for i := 0; i < int(count); i++ {
		b := C.CGDisplayBounds(ids[i])
		rects = append(rects, Rect{
			X:       int(b.origin.x),
			Y:       int(b.origin.y),
			Width:   int(b.size.width),
			Height:  int(b.size.height),
			Primary: ids[i] == main,
		})
	}
	return rects, nil
}
