// Package keymap translates platform key codes to and from the canonical
// code space used on the wire. The canonical space is the Windows
// virtual-key numbering, the most widely reused target.
package keymap

// Translator maps platform-local key codes to canonical codes and back.
// Codes absent from the table pass through unchanged; an unmapped code is
// a fallback, not an error.
type Translator struct {
	toCanonical   map[int]int
	fromCanonical map[int]int
}

// ToCanonical converts a local code to the canonical space.
func (t *Translator) ToCanonical(local int) int {
	if c, ok := t.toCanonical[local]; ok {
		return c
	}
	return local
}

// FromCanonical converts a canonical code to the local space. Where several
// local codes collapse onto one canonical code (left and right Shift both
// map to VK_SHIFT), the left-hand variant is returned; the result is
// behaviorally equivalent, not necessarily the original.
func (t *Translator) FromCanonical(canonical int) int {
	if l, ok := t.fromCanonical[canonical]; ok {
		return l
	}
	return canonical
}

// Identity is the translator for platforms whose native codes already are
// the canonical space.
func Identity() *Translator {
	return &Translator{}
}

func invert(forward map[int]int, preferred map[int]int) map[int]int {
	inv := make(map[int]int, len(forward))
	for local, canonical := range forward {
		if p, ok := preferred[canonical]; ok {
			inv[canonical] = p
			continue
		}
		if _, ok := inv[canonical]; !ok {
			inv[canonical] = local
		}
	}
	return inv
}
