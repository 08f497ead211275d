//go:build !darwin

package keymap

// Native returns the translator for this machine's key codes. Windows and
// the portable fallback already speak the canonical space.
func Native() *Translator {
	return Identity()
}
