//go:build !darwin || !cgo

package permissions

// Windows gates low-level hooks on process integrity rather than a grant
// dialog; hook installation itself reports the failure. Nothing to check
// up front.
func ensureCapture() bool {
	return true
}
