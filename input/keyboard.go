// Package input translates seat keyboard events into keysym events.
package input

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	wl "waywin/client"
	"waywin/internal/bin"
	"waywin/internal/set"
	"waywin/shm"
	"waywin/xkb"
)

// Event is a single translated key event.
type Event struct {
	Sym     xkb.Keysym
	Pressed bool
}

// Keyboard listens to a seat and turns its raw keyboard events into
// keysym events. It tracks three stages of readiness: no keyboard
// capability yet, keyboard bound but no keymap received, and fully
// ready. Events arriving before a keymap is available are dropped.
//
// All methods and callbacks run on the client's dispatch goroutine.
type Keyboard struct {
	// OnKey, if set, is called for every translated key press and
	// release, including the synthetic ones generated around focus
	// changes.
	OnKey func(ev Event)

	// OnRepeatInfo, if set, is called when the compositor announces
	// its key repeat parameters.
	OnRepeatInfo func(rate, delay int32)

	seat     *wl.Seat
	keyboard *wl.Keyboard

	keymap *xkb.Keymap
	state  *xkb.State
	held   set.Set[xkb.Keycode]

	repeatRate  int32
	repeatDelay int32
}

// NewKeyboard attaches a translator to the seat. The seat's listener
// is replaced; capability changes are handled from then on.
func NewKeyboard(seat *wl.Seat) *Keyboard {
	kb := Keyboard{
		seat: seat,
		held: set.New[xkb.Keycode](),
	}
	seat.Listener = (*seatListener)(&kb)
	return &kb
}

// Ready reports whether key events can currently be translated.
func (kb *Keyboard) Ready() bool {
	return kb.state != nil
}

// RepeatInfo returns the compositor's key repeat rate and delay, or
// zeros if none were announced.
func (kb *Keyboard) RepeatInfo() (rate, delay int32) {
	return kb.repeatRate, kb.repeatDelay
}

// Release tears the translator down, releasing the keyboard proxy if
// one is bound.
func (kb *Keyboard) Release() {
	if kb.keyboard != nil {
		kb.keyboard.Release()
		kb.keyboard = nil
	}
	kb.keymap = nil
	kb.state = nil
	clear(kb.held)
}

type seatListener Keyboard

func (lis *seatListener) Capabilities(caps wl.SeatCapability) {
	kb := (*Keyboard)(lis)

	has := caps&wl.SeatCapabilityKeyboard != 0
	switch {
	case has && (kb.keyboard == nil):
		kb.keyboard = kb.seat.GetKeyboard()
		kb.keyboard.Listener = (*keyboardListener)(kb)

	case !has && (kb.keyboard != nil):
		kb.releaseHeld()
		kb.keyboard.Release()
		kb.keyboard = nil
		kb.keymap = nil
		kb.state = nil
	}
}

func (lis *seatListener) Name(name string) {
	log.Debug("seat name", "name", name)
}

type keyboardListener Keyboard

func (lis *keyboardListener) Keymap(format wl.KeyboardKeymapFormat, file *os.File, size uint32) {
	kb := (*Keyboard)(lis)
	defer file.Close()

	if format != wl.KeyboardKeymapFormatXkbV1 {
		log.Warn("unsupported keymap format", "format", format)
		return
	}

	keymap, err := compileKeymapFile(file, size)
	if err != nil {
		// Keep translating with the previous keymap rather than going
		// silent on a bad one.
		log.Warn("compile keymap", "err", err)
		return
	}

	kb.keymap = keymap
	kb.state = xkb.NewState(keymap)
}

func (lis *keyboardListener) Enter(serial uint32, surface uint32, keys []byte) {
	kb := (*Keyboard)(lis)

	for i := 0; i+4 <= len(keys); i += 4 {
		scancode := bin.Value[uint32]([4]byte(keys[i : i+4]))
		kb.key(scancode, true)
	}
}

func (lis *keyboardListener) Leave(serial uint32, surface uint32) {
	(*Keyboard)(lis).releaseHeld()
}

func (lis *keyboardListener) Key(serial, time, key uint32, state wl.KeyboardKeyState) {
	(*Keyboard)(lis).key(key, state == wl.KeyboardKeyStatePressed)
}

func (lis *keyboardListener) Modifiers(serial, modsDepressed, modsLatched, modsLocked, group uint32) {
	kb := (*Keyboard)(lis)
	if kb.state == nil {
		return
	}

	kb.state.UpdateMask(
		xkb.ModMask(modsDepressed),
		xkb.ModMask(modsLatched),
		xkb.ModMask(modsLocked),
		0,
		0,
		group,
	)
}

func (lis *keyboardListener) RepeatInfo(rate, delay int32) {
	kb := (*Keyboard)(lis)
	kb.repeatRate = rate
	kb.repeatDelay = delay

	if kb.OnRepeatInfo != nil {
		kb.OnRepeatInfo(rate, delay)
	}
}

// key translates a single evdev scancode and emits the result.
func (kb *Keyboard) key(scancode uint32, pressed bool) {
	if kb.state == nil {
		return
	}

	code := xkb.Keycode(scancode + xkb.EvdevOffset)
	if pressed {
		kb.held.Add(code)
	} else {
		kb.held.Remove(code)
	}

	sym := kb.state.KeyGetOneSym(code)
	if sym == xkb.NoSymbol {
		log.Debug("keycode not in keymap", "keycode", code)
		return
	}

	if kb.OnKey != nil {
		kb.OnKey(Event{Sym: sym, Pressed: pressed})
	}
}

// releaseHeld emits synthetic release events for every key still held,
// so that focus loss never strands a key in the pressed state.
func (kb *Keyboard) releaseHeld() {
	if kb.state == nil {
		clear(kb.held)
		return
	}

	for code := range kb.held {
		sym := kb.state.KeyGetOneSym(code)
		if (sym != xkb.NoSymbol) && (kb.OnKey != nil) {
			kb.OnKey(Event{Sym: sym, Pressed: false})
		}
	}
	clear(kb.held)
}

// compileKeymapFile maps the keymap descriptor read-only and compiles
// it. The mapping is private; the descriptor may be sealed.
func compileKeymapFile(file *os.File, size uint32) (*xkb.Keymap, error) {
	mmap, err := shm.MapPrivate(file, int(size), unix.PROT_READ)
	if err != nil {
		return nil, fmt.Errorf("mmap keymap: %w", err)
	}
	defer mmap.Unmap()

	return xkb.Compile(mmap)
}
