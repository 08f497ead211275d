// Package permissions surfaces the OS grants that input capture depends
// on. A denied grant is a distinct, non-retryable state requiring user
// action in system settings, never something to retry in a loop.
package permissions

import "errors"

// ErrCaptureDenied marks a missing input-capture grant.
var ErrCaptureDenied = errors.New("input capture permission not granted")

// EnsureCapture verifies the capture grant, prompting the user once where
// the platform supports it. Returns ErrCaptureDenied when absent.
func EnsureCapture() error {
	if ensureCapture() {
		return nil
	}
	return ErrCaptureDenied
}
