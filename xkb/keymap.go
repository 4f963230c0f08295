package xkb

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ModMask is a bitmask of real modifiers, in the order the protocol
// serializes them.
type ModMask uint32

const (
	ModShift ModMask = 1 << iota
	ModLock
	ModControl
	Mod1
	Mod2
	Mod3
	Mod4
	Mod5
)

// realMods maps the modifier names an xkb_symbols modifier_map
// statement may use to their mask bits.
var realMods = map[string]ModMask{
	"Shift":   ModShift,
	"Lock":    ModLock,
	"Control": ModControl,
	"Mod1":    Mod1,
	"Mod2":    Mod2,
	"Mod3":    Mod3,
	"Mod4":    Mod4,
	"Mod5":    Mod5,
}

// Keymap maps keycodes to the keysyms they produce at each shift
// level. A compiled keymap is immutable.
type Keymap struct {
	syms map[Keycode][]Keysym
	mods map[Keycode]ModMask
}

var (
	keycodeRe = regexp.MustCompile(`<([^>]+)>\s*=\s*(\d+)\s*;`)
	aliasRe   = regexp.MustCompile(`alias\s*<([^>]+)>\s*=\s*<([^>]+)>\s*;`)
	keyRe     = regexp.MustCompile(`key\s*<([^>]+)>\s*\{([^}]*)\}`)
	modMapRe  = regexp.MustCompile(`modifier_map\s+(\w+)\s*\{([^}]*)\}`)
	symListRe = regexp.MustCompile(`\[([^\]]*)\]`)
)

// Compile parses a keymap in the xkb_v1 text format. The data may
// carry a trailing NUL, as keymaps received over the wire do.
func Compile(data []byte) (*Keymap, error) {
	src := string(bytes.TrimRight(data, "\x00"))

	keycodes, err := section(src, "xkb_keycodes")
	if err != nil {
		return nil, err
	}
	symbols, err := section(src, "xkb_symbols")
	if err != nil {
		return nil, err
	}

	names := make(map[string]Keycode)
	for _, m := range keycodeRe.FindAllStringSubmatch(keycodes, -1) {
		code, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("keycode <%v>: %w", m[1], err)
		}
		names[m[1]] = Keycode(code)
	}
	for _, m := range aliasRe.FindAllStringSubmatch(keycodes, -1) {
		if code, ok := names[m[2]]; ok {
			names[m[1]] = code
		}
	}
	if len(names) == 0 {
		return nil, errors.New("xkb_keycodes defines no keycodes")
	}

	km := Keymap{
		syms: make(map[Keycode][]Keysym),
		mods: make(map[Keycode]ModMask),
	}

	for _, m := range keyRe.FindAllStringSubmatch(symbols, -1) {
		code, ok := names[m[1]]
		if !ok {
			continue
		}

		list := symListRe.FindStringSubmatch(m[2])
		if list == nil {
			continue
		}

		var levels []Keysym
		for _, name := range strings.Split(list[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			sym, ok := ParseKeysym(name)
			if !ok {
				sym = NoSymbol
			}
			levels = append(levels, sym)
		}
		if len(levels) > 0 {
			km.syms[code] = levels
		}
	}

	for _, m := range modMapRe.FindAllStringSubmatch(symbols, -1) {
		mask, ok := realMods[m[1]]
		if !ok {
			continue
		}
		for _, entry := range strings.Split(m[2], ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if strings.HasPrefix(entry, "<") && strings.HasSuffix(entry, ">") {
				if code, ok := names[entry[1:len(entry)-1]]; ok {
					km.mods[code] |= mask
				}
				continue
			}
			if sym, ok := ParseKeysym(entry); ok {
				if code, ok := km.keycodeOf(sym); ok {
					km.mods[code] |= mask
				}
			}
		}
	}

	return &km, nil
}

// section extracts the brace-balanced body of the named section from
// the keymap source.
func section(src, name string) (string, error) {
	i := strings.Index(src, name)
	if i < 0 {
		return "", fmt.Errorf("keymap has no %v section", name)
	}
	open := strings.IndexByte(src[i:], '{')
	if open < 0 {
		return "", fmt.Errorf("%v section has no body", name)
	}
	start := i + open + 1

	depth := 1
	for j := start; j < len(src); j++ {
		switch src[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[start:j], nil
			}
		case '"':
			for j++; j < len(src) && (src[j] != '"'); j++ {
			}
		}
	}
	return "", fmt.Errorf("%v section is unterminated", name)
}

// keycodeOf finds the keycode whose first level produces sym.
func (km *Keymap) keycodeOf(sym Keysym) (Keycode, bool) {
	for code, levels := range km.syms {
		if (len(levels) > 0) && (levels[0] == sym) {
			return code, true
		}
	}
	return 0, false
}

// Levels returns the keysyms a keycode produces, one per shift level.
func (km *Keymap) Levels(code Keycode) []Keysym {
	return km.syms[code]
}

// Modifiers returns the real modifiers a keycode is mapped to.
func (km *Keymap) Modifiers(code Keycode) ModMask {
	return km.mods[code]
}
