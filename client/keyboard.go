package wl

import (
	"fmt"
	"os"

	"waywin/wire"
)

const (
	KeyboardInterface = "wl_keyboard"
	KeyboardVersion   = 7
)

const (
	keyboardRelease = 0

	keyboardEvtKeymap     = 0
	keyboardEvtEnter      = 1
	keyboardEvtLeave      = 2
	keyboardEvtKey        = 3
	keyboardEvtModifiers  = 4
	keyboardEvtRepeatInfo = 5
)

// KeyboardKeymapFormat identifies the format of the keymap passed in
// a keymap event.
type KeyboardKeymapFormat uint32

const (
	KeyboardKeymapFormatNoKeymap KeyboardKeymapFormat = 0
	KeyboardKeymapFormatXkbV1    KeyboardKeymapFormat = 1
)

// KeyboardKeyState is the physical state of a key in a key event.
type KeyboardKeyState uint32

const (
	KeyboardKeyStateReleased KeyboardKeyState = 0
	KeyboardKeyStatePressed  KeyboardKeyState = 1
)

type KeyboardListener interface {
	// Keymap delivers a compiled keymap description through a
	// read-only file descriptor. The receiver owns the file and must
	// close it.
	Keymap(format KeyboardKeymapFormat, file *os.File, size uint32)

	// Enter reports that the surface gained keyboard focus. keys is
	// the raw scancode array of keys held at the time of entry, packed
	// as native-endian 32-bit values.
	Enter(serial uint32, surface uint32, keys []byte)

	// Leave reports that the surface lost keyboard focus.
	Leave(serial uint32, surface uint32)

	Key(serial, time, key uint32, state KeyboardKeyState)

	Modifiers(serial, modsDepressed, modsLatched, modsLocked, group uint32)

	RepeatInfo(rate, delay int32)
}

// Keyboard is a wl_keyboard, the per-seat source of key and keymap
// events.
type Keyboard struct {
	Listener KeyboardListener

	object
	client *Client
}

func (kb *Keyboard) String() string {
	return fmt.Sprintf("wl_keyboard@%v", kb.id)
}

func (kb *Keyboard) MethodName(op uint16) string {
	switch op {
	case keyboardEvtKeymap:
		return "keymap"
	case keyboardEvtEnter:
		return "enter"
	case keyboardEvtLeave:
		return "leave"
	case keyboardEvtKey:
		return "key"
	case keyboardEvtModifiers:
		return "modifiers"
	case keyboardEvtRepeatInfo:
		return "repeat_info"
	}
	return "unknown"
}

func (kb *Keyboard) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case keyboardEvtKeymap:
		format := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener == nil {
			file.Close()
			return nil
		}
		kb.Listener.Keymap(KeyboardKeymapFormat(format), file, size)
		return nil

	case keyboardEvtEnter:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		keys := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Enter(serial, surface, keys)
		}
		return nil

	case keyboardEvtLeave:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Leave(serial, surface)
		}
		return nil

	case keyboardEvtKey:
		serial := msg.ReadUint()
		time := msg.ReadUint()
		key := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Key(serial, time, key, KeyboardKeyState(state))
		}
		return nil

	case keyboardEvtModifiers:
		serial := msg.ReadUint()
		modsDepressed := msg.ReadUint()
		modsLatched := msg.ReadUint()
		modsLocked := msg.ReadUint()
		group := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Modifiers(serial, modsDepressed, modsLatched, modsLocked, group)
		}
		return nil

	case keyboardEvtRepeatInfo:
		rate := msg.ReadInt()
		delay := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.RepeatInfo(rate, delay)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: KeyboardInterface, Type: "event", Op: msg.Op()}
}

// Release destroys the keyboard object. It should be called when the
// seat withdraws the keyboard capability.
func (kb *Keyboard) Release() {
	msg := wire.NewMessage(kb, keyboardRelease)
	msg.Method = "release"
	kb.client.Enqueue(msg)
	kb.client.Delete(kb.id)
}
