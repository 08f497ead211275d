// Package screens models the local virtual desktop: the monitor list, the
// combined bounding rectangle, and edge classification for switch triggers.
package screens

import (
	"fmt"

	"github.com/frank2889/MacWinControl/internal/protocol"
)

// Rect is one monitor rectangle in local pixel space.
type Rect struct {
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Edge identifies one side of the combined bounds.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeLeft
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	default:
		return "none"
	}
}

// ParseEdge converts a config string to an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "left":
		return EdgeLeft, nil
	case "right":
		return EdgeRight, nil
	case "top":
		return EdgeTop, nil
	case "bottom":
		return EdgeBottom, nil
	default:
		return EdgeNone, fmt.Errorf("unknown edge %q (want left, right, top or bottom)", s)
	}
}

// Opposite returns the facing edge. Crossing it on the remote side hands
// control back.
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeLeft:
		return EdgeRight
	case EdgeRight:
		return EdgeLeft
	case EdgeTop:
		return EdgeBottom
	case EdgeBottom:
		return EdgeTop
	default:
		return EdgeNone
	}
}

// Bounds is the minimal axis-aligned rectangle enclosing a monitor set.
type Bounds struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

// Empty reports whether the bounds enclose no area. Empty bounds never
// classify any edge.
func (b Bounds) Empty() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

func (b Bounds) Width() int  { return b.MaxX - b.MinX }
func (b Bounds) Height() int { return b.MaxY - b.MinY }

// CombinedBounds folds a monitor list into its bounding rectangle. An empty
// list yields the zero rectangle rather than an error.
func CombinedBounds(rects []Rect) Bounds {
	if len(rects) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: rects[0].X,
		MinY: rects[0].Y,
		MaxX: rects[0].X + rects[0].Width,
		MaxY: rects[0].Y + rects[0].Height,
	}
	for _, r := range rects[1:] {
		b.MinX = min(b.MinX, r.X)
		b.MinY = min(b.MinY, r.Y)
		b.MaxX = max(b.MaxX, r.X+r.Width)
		b.MaxY = max(b.MaxY, r.Y+r.Height)
	}
	return b
}

// ClassifyEdge reports which edge of the bounds the point is pressing
// against, within threshold pixels. Left and right are checked before top
// and bottom; the first match wins, so a corner classifies horizontally.
func ClassifyEdge(x, y int, b Bounds, threshold int) Edge {
	if b.Empty() {
		return EdgeNone
	}
	switch {
	case x <= b.MinX+threshold:
		return EdgeLeft
	case x >= b.MaxX-threshold:
		return EdgeRight
	case y <= b.MinY+threshold:
		return EdgeTop
	case y >= b.MaxY-threshold:
		return EdgeBottom
	default:
		return EdgeNone
	}
}

// Layout is an immutable snapshot of one machine's monitors.
type Layout struct {
	Screens []Rect
}

// Bounds returns the combined bounding rectangle of the layout.
func (l Layout) Bounds() Bounds {
	return CombinedBounds(l.Screens)
}

// Fallback is the layout assumed for a peer before it has announced its
// screens.
func Fallback() Layout {
	return Layout{Screens: []Rect{{Width: 1920, Height: 1080, Primary: true}}}
}

// Wire converts the layout to its wire representation.
func (l Layout) Wire() []protocol.Screen {
	out := make([]protocol.Screen, 0, len(l.Screens))
	for _, r := range l.Screens {
		out = append(out, protocol.Screen{
			X:       r.X,
			Y:       r.Y,
			Width:   r.Width,
			Height:  r.Height,
			Primary: r.Primary,
		})
	}
	return out
}

// FromWire builds a layout from a screen_info payload.
func FromWire(ws []protocol.Screen) Layout {
	rects := make([]Rect, 0, len(ws))
	for _, s := range ws {
		rects = append(rects, Rect{
			X:       s.X,
			Y:       s.Y,
			Width:   s.Width,
			Height:  s.Height,
			Primary: s.Primary,
		})
	}
	return Layout{Screens: rects}
}

// Enumerator lists the monitors attached to this machine.
type Enumerator interface {
	Screens() ([]Rect, error)
}

// ChangeNotifier is implemented by enumerators that can report display
// reconfiguration. The callback may fire on any goroutine.
type ChangeNotifier interface {
	OnDisplayChange(func())
}

// Static is an Enumerator over a fixed monitor list, used for tests and as
// the portable fallback.
type Static struct {
	Rects []Rect
}

func (s Static) Screens() ([]Rect, error) {
	return s.Rects, nil
}
