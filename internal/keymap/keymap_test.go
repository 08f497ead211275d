package keymap_test

import (
	"testing"

	"github.com/frank2889/MacWinControl/internal/keymap"
	"github.com/stretchr/testify/assert"
)

func TestDarwinToCanonical(t *testing.T) {
	tr := keymap.Darwin()

	testCases := []struct {
		name  string
		local int
		want  int
	}{
		{"A key", 0, 65},
		{"M key", 46, 77},
		{"digit 1", 18, '1'},
		{"return", 36, 13},
		{"space", 49, 32},
		{"left shift", 56, 0x10},
		{"right shift", 60, 0x10},
		{"command", 55, 0x5B},
		{"arrow left", 123, 0x25},
		{"f12", 111, 0x7B},
	}

	for _, item := range testCases {
		t.Run(item.name, func(t *testing.T) {
			assert.Equal(t, item.want, tr.ToCanonical(item.local))
		})
	}
}

func TestRoundTripUniqueMappings(t *testing.T) {
	tr := keymap.Darwin()

	// Codes with a unique (non-colliding) mapping must survive the round
	// trip exactly.
	for _, local := range []int{0, 12, 18, 36, 49, 55, 54, 123, 126, 111} {
		canonical := tr.ToCanonical(local)
		assert.Equal(t, local, tr.FromCanonical(canonical), "local code %d", local)
	}
}

func TestCollidingMappingsReturnLeftVariant(t *testing.T) {
	tr := keymap.Darwin()

	// Right Shift collides with left Shift on VK_SHIFT; the inverse picks
	// the behaviorally equivalent left variant.
	assert.Equal(t, 56, tr.FromCanonical(tr.ToCanonical(60)))
	assert.Equal(t, 59, tr.FromCanonical(tr.ToCanonical(62)))
	assert.Equal(t, 58, tr.FromCanonical(tr.ToCanonical(61)))
}

func TestUnmappedCodesPassThrough(t *testing.T) {
	tr := keymap.Darwin()
	assert.Equal(t, 0x1000, tr.ToCanonical(0x1000))
	assert.Equal(t, 0x1000, tr.FromCanonical(0x1000))

	id := keymap.Identity()
	assert.Equal(t, 65, id.ToCanonical(65))
	assert.Equal(t, 65, id.FromCanonical(65))
}
