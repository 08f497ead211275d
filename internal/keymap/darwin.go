package keymap

// macOS virtual key codes (CGKeyCode) to Windows virtual-key codes. The
// table is not build-tagged so the translation stays testable everywhere.
var darwinToVK = map[int]int{
	// Letters. CGKeyCodes follow the ANSI layout, not alphabet order.
	0: 'A', 1: 'S', 2: 'D', 3: 'F', 4: 'H', 5: 'G',
	6: 'Z', 7: 'X', 8: 'C', 9: 'V', 11: 'B',
	12: 'Q', 13: 'W', 14: 'E', 15: 'R', 16: 'Y', 17: 'T',
	31: 'O', 32: 'U', 34: 'I', 35: 'P',
	37: 'L', 38: 'J', 40: 'K',
	45: 'N', 46: 'M',

	// Digit row.
	18: '1', 19: '2', 20: '3', 21: '4', 23: '5',
	22: '6', 26: '7', 28: '8', 25: '9', 29: '0',

	// Punctuation → VK_OEM_*.
	24: 0xBB, // =
	27: 0xBD, // -
	30: 0xDD, // ]
	33: 0xDB, // [
	39: 0xDE, // '
	41: 0xBA, // ;
	42: 0xDC, // backslash
	43: 0xBC, // ,
	44: 0xBF, // /
	47: 0xBE, // .
	50: 0xC0, // `

	// Control keys.
	36: 0x0D, // Return
	48: 0x09, // Tab
	49: 0x20, // Space
	51: 0x08, // Delete → Backspace
	53: 0x1B, // Escape
	57: 0x14, // Caps Lock

	// Modifiers. Left and right Shift, Control and Option collapse onto
	// the single canonical code; Command keeps its sided VK codes.
	55: 0x5B, // Command → VK_LWIN
	54: 0x5C, // Right Command → VK_RWIN
	56: 0x10, // Shift
	60: 0x10, // Right Shift
	59: 0x11, // Control
	62: 0x11, // Right Control
	58: 0x12, // Option → VK_MENU
	61: 0x12, // Right Option

	// Navigation block.
	114: 0x2D, // Help → Insert
	115: 0x24, // Home
	116: 0x21, // Page Up
	117: 0x2E, // Forward Delete → Delete
	119: 0x23, // End
	121: 0x22, // Page Down
	123: 0x25, // Left
	124: 0x27, // Right
	125: 0x28, // Down
	126: 0x26, // Up

	// Function row.
	122: 0x70, 120: 0x71, 99: 0x72, 118: 0x73,
	96: 0x74, 97: 0x75, 98: 0x76, 100: 0x77,
	101: 0x78, 109: 0x79, 103: 0x7A, 111: 0x7B,
}

// Collapsed modifiers invert to their left-hand variant.
var darwinPreferred = map[int]int{
	0x10: 56, // VK_SHIFT → left Shift
	0x11: 59, // VK_CONTROL → left Control
	0x12: 58, // VK_MENU → left Option
}

// Darwin returns the macOS translator.
func Darwin() *Translator {
	return &Translator{
		toCanonical:   darwinToVK,
		fromCanonical: invert(darwinToVK, darwinPreferred),
	}
}
