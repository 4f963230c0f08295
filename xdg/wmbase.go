// Package xdg implements the client side of the xdg-shell
// window-management protocol, plus the xdg-decoration extension.
package xdg

import (
	"fmt"

	wl "waywin/client"
	"waywin/wire"
)

const (
	WmBaseInterface = "xdg_wm_base"
	WmBaseVersion   = 1
)

const (
	wmBaseDestroy          = 0
	wmBaseCreatePositioner = 1
	wmBaseGetXdgSurface    = 2
	wmBasePong             = 3

	wmBaseEvtPing = 0
)

type WmBaseListener interface {
	// Ping is a liveness probe. Every ping must be answered with a
	// Pong carrying the same serial or the compositor may deem the
	// client unresponsive.
	Ping(serial uint32)
}

// WmBase is the xdg_wm_base global, the entry point to the
// window-management protocol.
type WmBase struct {
	Listener WmBaseListener

	object
	client *wl.Client
}

func IsWmBase(i wl.Interface) bool {
	return i.Is(WmBaseInterface, WmBaseVersion)
}

func BindWmBase(client *wl.Client, registry *wl.Registry, name, version uint32) *WmBase {
	wmBase := WmBase{client: client}
	client.Add(&wmBase)
	registry.Bind(name, WmBaseInterface, version, wmBase.ID())

	return &wmBase
}

func (wm *WmBase) String() string {
	return fmt.Sprintf("xdg_wm_base@%v", wm.ID())
}

func (wm *WmBase) MethodName(op uint16) string {
	if op == wmBaseEvtPing {
		return "ping"
	}
	return "unknown"
}

func (wm *WmBase) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case wmBaseEvtPing:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if wm.Listener != nil {
			wm.Listener.Ping(serial)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: WmBaseInterface, Type: "event", Op: msg.Op()}
}

// GetXdgSurface wraps a wl_surface in an xdg_surface, giving it a
// role in the window-management protocol.
func (wm *WmBase) GetXdgSurface(surface *wl.Surface) *Surface {
	s := Surface{client: wm.client}
	wm.client.Add(&s)

	msg := wire.NewMessage(wm, wmBaseGetXdgSurface)
	msg.Method = "get_xdg_surface"
	msg.Args = []any{s.ID(), surface}
	msg.WriteUint(s.ID())
	msg.WriteObject(surface)
	wm.client.Enqueue(msg)

	return &s
}

// Pong answers a ping event.
func (wm *WmBase) Pong(serial uint32) {
	msg := wire.NewMessage(wm, wmBasePong)
	msg.Method = "pong"
	msg.Args = []any{serial}
	msg.WriteUint(serial)
	wm.client.Enqueue(msg)
}

func (wm *WmBase) Destroy() {
	msg := wire.NewMessage(wm, wmBaseDestroy)
	msg.Method = "destroy"
	wm.client.Enqueue(msg)
	wm.client.Delete(wm.ID())
}
