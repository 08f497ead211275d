//go:build darwin && cgo

package permissions

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>

// axTrusted queries the Accessibility grant that event taps depend on.
// With prompt != 0, a missing grant also opens the System Settings pane.
static int axTrusted(int prompt) {
    CFMutableDictionaryRef opts = CFDictionaryCreateMutable(NULL, 0, NULL, NULL);
    CFDictionarySetValue(opts, kAXTrustedCheckOptionPrompt,
                         prompt ? kCFBooleanTrue : kCFBooleanFalse);
    Boolean trusted = AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
    return trusted ? 1 : 0;
}
*/
import "C"

// HasAccessibility reports whether the process holds the Accessibility
// grant, without prompting.
func HasAccessibility() bool {
	return C.axTrusted(0) != 0
}

// RequestAccessibility prompts for the Accessibility grant when it is
// missing and reports the current state. The grant only takes effect
// after the user acts in System Settings, so a false return here is
// final for this run.
func RequestAccessibility() bool {
	return C.axTrusted(1) != 0
}

func ensureCapture() bool {
	if HasAccessibility() {
		return true
	}
	return RequestAccessibility()
}
