package xkb

// State tracks the modifier and group state of a keyboard against a
// compiled keymap. The compositor owns the state; it is updated
// wholesale from modifier events rather than derived from key events.
type State struct {
	keymap *Keymap

	depressed ModMask
	latched   ModMask
	locked    ModMask
	group     uint32
}

func NewState(keymap *Keymap) *State {
	return &State{keymap: keymap}
}

func (s *State) Keymap() *Keymap {
	return s.keymap
}

// UpdateMask replaces the modifier and group state with the values
// from a modifiers event.
func (s *State) UpdateMask(depressed, latched, locked ModMask, baseGroup, latchedGroup, lockedGroup uint32) {
	s.depressed = depressed
	s.latched = latched
	s.locked = locked
	s.group = baseGroup + latchedGroup + lockedGroup
}

// Effective returns the combined modifier mask.
func (s *State) Effective() ModMask {
	return s.depressed | s.latched | s.locked
}

// KeyGetOneSym resolves a keycode to a single keysym under the current
// modifier state. Shift selects the second level; Lock applies the
// letter case mapping on top, cancelling out against Shift the way
// Caps Lock does.
func (s *State) KeyGetOneSym(code Keycode) Keysym {
	levels := s.keymap.Levels(code)
	if len(levels) == 0 {
		return NoSymbol
	}

	effective := s.Effective()
	shift := (effective & ModShift) != 0
	caps := (effective & ModLock) != 0

	level := 0
	if shift && (len(levels) > 1) {
		level = 1
	}
	sym := levels[level]

	if caps {
		if shift {
			sym = toLower(sym)
		} else {
			sym = toUpper(sym)
		}
	}

	return sym
}
