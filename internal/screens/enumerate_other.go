//go:build !windows && (!darwin || !cgo)

package screens

// NewEnumerator returns a fixed single-monitor fallback on platforms
// without a native display enumerator.
func NewEnumerator() Enumerator {
	return Static{Rects: Fallback().Screens}
}
