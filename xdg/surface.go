package xdg

import (
	"fmt"

	wl "waywin/client"
	"waywin/wire"
)

const (
	SurfaceInterface = "xdg_surface"
	SurfaceVersion   = 1
)

const (
	surfaceDestroy           = 0
	surfaceGetToplevel       = 1
	surfaceGetPopup          = 2
	surfaceSetWindowGeometry = 3
	surfaceAckConfigure      = 4

	surfaceEvtConfigure = 0
)

type SurfaceListener interface {
	// Configure delivers a configuration serial. The receiver must
	// acknowledge it with AckConfigure before the next commit for the
	// configuration to take effect; never acknowledging stalls the
	// handshake indefinitely.
	Configure(serial uint32)
}

// Surface is an xdg_surface, the window-management wrapper around a
// wl_surface.
type Surface struct {
	Listener SurfaceListener

	object
	client *wl.Client
}

func (s *Surface) String() string {
	return fmt.Sprintf("xdg_surface@%v", s.id)
}

func (s *Surface) MethodName(op uint16) string {
	if op == surfaceEvtConfigure {
		return "configure"
	}
	return "unknown"
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceEvtConfigure:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Configure(serial)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: SurfaceInterface, Type: "event", Op: msg.Op()}
}

// GetToplevel assigns the surface the toplevel role.
func (s *Surface) GetToplevel() *Toplevel {
	toplevel := Toplevel{client: s.client}
	s.client.Add(&toplevel)

	msg := wire.NewMessage(s, surfaceGetToplevel)
	msg.Method = "get_toplevel"
	msg.Args = []any{toplevel.id}
	msg.WriteUint(toplevel.id)
	s.client.Enqueue(msg)

	return &toplevel
}

// AckConfigure acknowledges a configure event's serial.
func (s *Surface) AckConfigure(serial uint32) {
	msg := wire.NewMessage(s, surfaceAckConfigure)
	msg.Method = "ack_configure"
	msg.Args = []any{serial}
	msg.WriteUint(serial)
	s.client.Enqueue(msg)
}

func (s *Surface) Destroy() {
	msg := wire.NewMessage(s, surfaceDestroy)
	msg.Method = "destroy"
	s.client.Enqueue(msg)
	s.client.Delete(s.id)
}
