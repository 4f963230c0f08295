package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	SeatInterface = "wl_seat"
	SeatVersion   = 7

	// seatMinVersion is the oldest seat this package can drive. The
	// newest request it sends is release, added in version 5.
	seatMinVersion = 5
)

const (
	seatGetPointer  = 0
	seatGetKeyboard = 1
	seatGetTouch    = 2
	seatRelease     = 3

	seatEvtCapabilities = 0
	seatEvtName         = 1
)

// SeatCapability is the bitmask of input devices a seat offers.
type SeatCapability uint32

const (
	SeatCapabilityPointer  SeatCapability = 1 << 0
	SeatCapabilityKeyboard SeatCapability = 1 << 1
	SeatCapabilityTouch    SeatCapability = 1 << 2
)

type SeatListener interface {
	// Capabilities reports the seat's current device bitmask. It can
	// arrive multiple times over a session's life as devices come and
	// go.
	Capabilities(caps SeatCapability)
	Name(name string)
}

// Seat is a wl_seat global, a group of input devices.
type Seat struct {
	Listener SeatListener

	object
	client *Client
}

func IsSeat(i Interface) bool {
	return i.Is(SeatInterface, seatMinVersion)
}

func BindSeat(client *Client, registry *Registry, name, version uint32) *Seat {
	seat := Seat{client: client}
	client.Add(&seat)
	registry.Bind(name, SeatInterface, version, seat.id)

	return &seat
}

func (s *Seat) String() string {
	return fmt.Sprintf("wl_seat@%v", s.id)
}

func (s *Seat) MethodName(op uint16) string {
	switch op {
	case seatEvtCapabilities:
		return "capabilities"
	case seatEvtName:
		return "name"
	}
	return "unknown"
}

func (s *Seat) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case seatEvtCapabilities:
		caps := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Capabilities(SeatCapability(caps))
		}
		return nil

	case seatEvtName:
		name := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Name(name)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: SeatInterface, Type: "event", Op: msg.Op()}
}

// GetKeyboard returns a keyboard object for the seat. The seat must
// currently advertise the keyboard capability.
func (s *Seat) GetKeyboard() *Keyboard {
	kb := Keyboard{client: s.client}
	s.client.Add(&kb)

	msg := wire.NewMessage(s, seatGetKeyboard)
	msg.Method = "get_keyboard"
	msg.Args = []any{kb.id}
	msg.WriteUint(kb.id)
	s.client.Enqueue(msg)

	return &kb
}

func (s *Seat) Release() {
	msg := wire.NewMessage(s, seatRelease)
	msg.Method = "release"
	s.client.Enqueue(msg)
	s.client.Delete(s.id)
}
