// Package xkb compiles keymaps in the xkb_v1 text format and resolves
// scancodes to keysyms through them.
//
// Only the subset of the format that compositors actually send is
// handled: the xkb_keycodes and xkb_symbols sections, including key
// aliases and modifier_map entries. The types and compatibility
// sections are skipped; level selection is driven directly by the
// Shift and Lock modifiers.
package xkb

import (
	"fmt"
	"strconv"
	"unicode"
)

// EvdevOffset is the difference between kernel evdev scancodes and
// xkb keycodes. Keyboard events carry evdev codes; add this before
// any keymap lookup.
const EvdevOffset = 8

// Keycode is an xkb keycode, already offset from the evdev scancode.
type Keycode uint32

// Keysym is an X keysym value.
type Keysym uint32

// NoSymbol is returned for keycodes the keymap doesn't resolve.
const NoSymbol Keysym = 0

const (
	KeysymBackSpace  Keysym = 0xff08
	KeysymTab        Keysym = 0xff09
	KeysymReturn     Keysym = 0xff0d
	KeysymPause      Keysym = 0xff13
	KeysymScrollLock Keysym = 0xff14
	KeysymEscape     Keysym = 0xff1b
	KeysymDelete     Keysym = 0xffff

	KeysymHome     Keysym = 0xff50
	KeysymLeft     Keysym = 0xff51
	KeysymUp       Keysym = 0xff52
	KeysymRight    Keysym = 0xff53
	KeysymDown     Keysym = 0xff54
	KeysymPageUp   Keysym = 0xff55
	KeysymPageDown Keysym = 0xff56
	KeysymEnd      Keysym = 0xff57
	KeysymInsert   Keysym = 0xff63
	KeysymNumLock  Keysym = 0xff7f

	KeysymF1  Keysym = 0xffbe
	KeysymF2  Keysym = 0xffbf
	KeysymF3  Keysym = 0xffc0
	KeysymF4  Keysym = 0xffc1
	KeysymF5  Keysym = 0xffc2
	KeysymF6  Keysym = 0xffc3
	KeysymF7  Keysym = 0xffc4
	KeysymF8  Keysym = 0xffc5
	KeysymF9  Keysym = 0xffc6
	KeysymF10 Keysym = 0xffc7
	KeysymF11 Keysym = 0xffc8
	KeysymF12 Keysym = 0xffc9

	KeysymShiftL   Keysym = 0xffe1
	KeysymShiftR   Keysym = 0xffe2
	KeysymControlL Keysym = 0xffe3
	KeysymControlR Keysym = 0xffe4
	KeysymCapsLock Keysym = 0xffe5
	KeysymMetaL    Keysym = 0xffe7
	KeysymMetaR    Keysym = 0xffe8
	KeysymAltL     Keysym = 0xffe9
	KeysymAltR     Keysym = 0xffea
	KeysymSuperL   Keysym = 0xffeb
	KeysymSuperR   Keysym = 0xffec

	KeysymSpace Keysym = 0x20
)

// keysymNames maps the named keysyms the parser understands to their
// values. Single-character names resolve to the character itself and
// are not listed here.
var keysymNames = map[string]Keysym{
	"NoSymbol":   NoSymbol,
	"VoidSymbol": 0xffffff,

	"BackSpace":   KeysymBackSpace,
	"Tab":         KeysymTab,
	"Return":      KeysymReturn,
	"Pause":       KeysymPause,
	"Scroll_Lock": KeysymScrollLock,
	"Escape":      KeysymEscape,
	"Delete":      KeysymDelete,

	"Home":      KeysymHome,
	"Left":      KeysymLeft,
	"Up":        KeysymUp,
	"Right":     KeysymRight,
	"Down":      KeysymDown,
	"Prior":     KeysymPageUp,
	"Page_Up":   KeysymPageUp,
	"Next":      KeysymPageDown,
	"Page_Down": KeysymPageDown,
	"End":       KeysymEnd,
	"Insert":    KeysymInsert,

	"Num_Lock": KeysymNumLock,

	"F1":  KeysymF1,
	"F2":  KeysymF2,
	"F3":  KeysymF3,
	"F4":  KeysymF4,
	"F5":  KeysymF5,
	"F6":  KeysymF6,
	"F7":  KeysymF7,
	"F8":  KeysymF8,
	"F9":  KeysymF9,
	"F10": KeysymF10,
	"F11": KeysymF11,
	"F12": KeysymF12,

	"Shift_L":   KeysymShiftL,
	"Shift_R":   KeysymShiftR,
	"Control_L": KeysymControlL,
	"Control_R": KeysymControlR,
	"Caps_Lock": KeysymCapsLock,
	"Meta_L":    KeysymMetaL,
	"Meta_R":    KeysymMetaR,
	"Alt_L":     KeysymAltL,
	"Alt_R":     KeysymAltR,
	"Super_L":   KeysymSuperL,
	"Super_R":   KeysymSuperR,

	"space":        KeysymSpace,
	"exclam":       0x21,
	"quotedbl":     0x22,
	"numbersign":   0x23,
	"dollar":       0x24,
	"percent":      0x25,
	"ampersand":    0x26,
	"apostrophe":   0x27,
	"parenleft":    0x28,
	"parenright":   0x29,
	"asterisk":     0x2a,
	"plus":         0x2b,
	"comma":        0x2c,
	"minus":        0x2d,
	"period":       0x2e,
	"slash":        0x2f,
	"colon":        0x3a,
	"semicolon":    0x3b,
	"less":         0x3c,
	"equal":        0x3d,
	"greater":      0x3e,
	"question":     0x3f,
	"at":           0x40,
	"bracketleft":  0x5b,
	"backslash":    0x5c,
	"bracketright": 0x5d,
	"asciicircum":  0x5e,
	"underscore":   0x5f,
	"grave":        0x60,
	"braceleft":    0x7b,
	"bar":          0x7c,
	"braceright":   0x7d,
	"asciitilde":   0x7e,
}

// ParseKeysym resolves a keysym name as it appears in an xkb_symbols
// section. Besides the named table it accepts single-character names,
// hexadecimal values, and Unicode names of the form U+XXXX or UXXXX.
func ParseKeysym(name string) (Keysym, bool) {
	if sym, ok := keysymNames[name]; ok {
		return sym, true
	}

	r := []rune(name)
	if len(r) == 1 && (r[0] >= 0x20) && (r[0] < 0x7f) {
		return Keysym(r[0]), true
	}

	if len(name) > 2 && (name[:2] == "0x") {
		v, err := strconv.ParseUint(name[2:], 16, 32)
		if err == nil {
			return Keysym(v), true
		}
		return NoSymbol, false
	}

	if len(name) > 1 && (name[0] == 'U') {
		hex := name[1:]
		if len(hex) > 1 && (hex[0] == '+') {
			hex = hex[1:]
		}
		v, err := strconv.ParseUint(hex, 16, 21)
		if err == nil {
			return 0x01000000 | Keysym(v), true
		}
	}

	return NoSymbol, false
}

// Rune returns the character a keysym represents, or -1 if it has no
// direct character interpretation.
func (sym Keysym) Rune() rune {
	switch {
	case (sym >= 0x20) && (sym < 0x7f):
		return rune(sym)
	case (sym >= 0xa0) && (sym <= 0xff):
		return rune(sym)
	case (sym & 0xff000000) == 0x01000000:
		return rune(sym &^ 0x01000000)
	}
	return -1
}

func (sym Keysym) String() string {
	for name, v := range keysymNames {
		if v == sym {
			return name
		}
	}
	if r := sym.Rune(); r >= 0 {
		return string(r)
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}

// toUpper and toLower implement the letter case mapping used for the
// Lock modifier.
func toUpper(sym Keysym) Keysym {
	if r := sym.Rune(); r >= 0 {
		u := unicode.ToUpper(r)
		if u != r {
			if s, ok := runeKeysym(u); ok {
				return s
			}
		}
	}
	return sym
}

func toLower(sym Keysym) Keysym {
	if r := sym.Rune(); r >= 0 {
		l := unicode.ToLower(r)
		if l != r {
			if s, ok := runeKeysym(l); ok {
				return s
			}
		}
	}
	return sym
}

func runeKeysym(r rune) (Keysym, bool) {
	switch {
	case (r >= 0x20) && (r < 0x7f):
		return Keysym(r), true
	case (r >= 0xa0) && (r <= 0xff):
		return Keysym(r), true
	case r <= unicode.MaxRune:
		return 0x01000000 | Keysym(r), true
	}
	return NoSymbol, false
}
