//go:build darwin

package keymap

// Native returns the translator for this machine's key codes.
func Native() *Translator {
	return Darwin()
}
