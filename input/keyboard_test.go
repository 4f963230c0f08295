package input

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wl "waywin/client"
	"waywin/internal/bin"
	"waywin/internal/set"
	"waywin/xkb"
)

const testKeymap = `xkb_keymap {
	xkb_keycodes "test" {
		<ESC>  = 9;
		<AD01> = 24;
		<AC01> = 38;
		<LFSH> = 50;
	};
	xkb_types "test" { };
	xkb_compat "test" { };
	xkb_symbols "test" {
		key <ESC>  { [ Escape ] };
		key <AD01> { [ q, Q ] };
		key <AC01> { [ a, A ] };
		key <LFSH> { [ Shift_L ] };
		modifier_map Shift { <LFSH> };
	};
};`

// Evdev scancodes for the keys in the test keymap, 8 less than their
// keycodes.
const (
	scanEsc   = 1
	scanQ     = 16
	scanA     = 30
	scanShift = 42
)

func newTestKeyboard(t *testing.T) (*Keyboard, *[]Event) {
	t.Helper()

	kb := &Keyboard{held: set.New[xkb.Keycode]()}
	events := new([]Event)
	kb.OnKey = func(ev Event) { *events = append(*events, ev) }
	return kb, events
}

func sendKeymap(t *testing.T, kb *Keyboard, text string) {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), "keymap")
	require.NoError(t, err)
	_, err = file.WriteString(text)
	require.NoError(t, err)

	(*keyboardListener)(kb).Keymap(wl.KeyboardKeymapFormatXkbV1, file, uint32(len(text)))
}

func TestTranslateKey(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)
	require.True(t, kb.Ready())

	lis := (*keyboardListener)(kb)
	lis.Key(1, 0, scanQ, wl.KeyboardKeyStatePressed)
	lis.Key(2, 0, scanQ, wl.KeyboardKeyStateReleased)

	assert.Equal(t, []Event{
		{Sym: 'q', Pressed: true},
		{Sym: 'q', Pressed: false},
	}, *events)
}

func TestTranslateWithModifiers(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)

	lis := (*keyboardListener)(kb)
	lis.Modifiers(1, uint32(xkb.ModShift), 0, 0, 0)
	lis.Key(2, 0, scanQ, wl.KeyboardKeyStatePressed)
	lis.Modifiers(3, 0, 0, 0, 0)
	lis.Key(4, 0, scanA, wl.KeyboardKeyStatePressed)

	assert.Equal(t, []Event{
		{Sym: 'Q', Pressed: true},
		{Sym: 'a', Pressed: true},
	}, *events)
}

func TestEnterPressesHeldKeys(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)

	keys := make([]byte, 0, 8)
	for _, scan := range []uint32{scanQ, scanA} {
		b := bin.Bytes(scan)
		keys = append(keys, b[:]...)
	}
	(*keyboardListener)(kb).Enter(1, 5, keys)

	assert.Equal(t, []Event{
		{Sym: 'q', Pressed: true},
		{Sym: 'a', Pressed: true},
	}, *events)
}

func TestLeaveReleasesHeldKeys(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)

	lis := (*keyboardListener)(kb)
	lis.Key(1, 0, scanQ, wl.KeyboardKeyStatePressed)
	lis.Key(2, 0, scanA, wl.KeyboardKeyStatePressed)
	*events = nil

	lis.Leave(3, 5)
	assert.ElementsMatch(t, []Event{
		{Sym: 'q', Pressed: false},
		{Sym: 'a', Pressed: false},
	}, *events)

	// A second leave has nothing left to release.
	*events = nil
	lis.Leave(4, 5)
	assert.Empty(t, *events)
}

func TestUnknownScancodeSkipped(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)

	(*keyboardListener)(kb).Key(1, 0, 90, wl.KeyboardKeyStatePressed)
	assert.Empty(t, *events)
}

func TestEventsBeforeKeymapDropped(t *testing.T) {
	kb, events := newTestKeyboard(t)
	require.False(t, kb.Ready())

	lis := (*keyboardListener)(kb)
	lis.Key(1, 0, scanQ, wl.KeyboardKeyStatePressed)
	lis.Modifiers(2, uint32(xkb.ModShift), 0, 0, 0)
	lis.Leave(3, 5)

	assert.Empty(t, *events)
}

func TestBadKeymapKeepsPrevious(t *testing.T) {
	kb, events := newTestKeyboard(t)
	sendKeymap(t, kb, testKeymap)
	require.True(t, kb.Ready())

	sendKeymap(t, kb, "this is not a keymap")
	require.True(t, kb.Ready())

	(*keyboardListener)(kb).Key(1, 0, scanQ, wl.KeyboardKeyStatePressed)
	assert.Equal(t, []Event{{Sym: 'q', Pressed: true}}, *events)
}

func TestUnsupportedKeymapFormat(t *testing.T) {
	kb, _ := newTestKeyboard(t)

	file, err := os.CreateTemp(t.TempDir(), "keymap")
	require.NoError(t, err)
	(*keyboardListener)(kb).Keymap(wl.KeyboardKeymapFormatNoKeymap, file, 0)

	assert.False(t, kb.Ready())
}

func TestRepeatInfo(t *testing.T) {
	kb, _ := newTestKeyboard(t)

	var gotRate, gotDelay int32
	kb.OnRepeatInfo = func(rate, delay int32) { gotRate, gotDelay = rate, delay }

	(*keyboardListener)(kb).RepeatInfo(25, 600)

	rate, delay := kb.RepeatInfo()
	assert.Equal(t, int32(25), rate)
	assert.Equal(t, int32(600), delay)
	assert.Equal(t, int32(25), gotRate)
	assert.Equal(t, int32(600), gotDelay)
}
