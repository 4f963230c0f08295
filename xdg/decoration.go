package xdg

import (
	"fmt"

	wl "waywin/client"
	"waywin/wire"
)

const (
	DecorationManagerInterface = "zxdg_decoration_manager_v1"
	DecorationManagerVersion   = 1

	ToplevelDecorationInterface = "zxdg_toplevel_decoration_v1"
)

const (
	decorationManagerDestroy               = 0
	decorationManagerGetToplevelDecoration = 1

	toplevelDecorationDestroy   = 0
	toplevelDecorationSetMode   = 1
	toplevelDecorationUnsetMode = 2

	toplevelDecorationEvtConfigure = 0
)

// DecorationMode selects who draws window decorations.
type DecorationMode uint32

const (
	DecorationModeClientSide DecorationMode = 1
	DecorationModeServerSide DecorationMode = 2
)

func (m DecorationMode) String() string {
	switch m {
	case DecorationModeClientSide:
		return "client-side"
	case DecorationModeServerSide:
		return "server-side"
	}
	return fmt.Sprintf("unknown(%v)", uint32(m))
}

// DecorationManager is the zxdg_decoration_manager_v1 global. It is
// an optional capability; compositors that don't advertise it leave
// decoration to the client.
type DecorationManager struct {
	object
	client *wl.Client
}

func IsDecorationManager(i wl.Interface) bool {
	return i.Is(DecorationManagerInterface, DecorationManagerVersion)
}

func BindDecorationManager(client *wl.Client, registry *wl.Registry, name, version uint32) *DecorationManager {
	manager := DecorationManager{client: client}
	client.Add(&manager)
	registry.Bind(name, DecorationManagerInterface, version, manager.id)

	return &manager
}

func (m *DecorationManager) String() string {
	return fmt.Sprintf("zxdg_decoration_manager_v1@%v", m.id)
}

func (m *DecorationManager) MethodName(op uint16) string {
	return "unknown"
}

func (m *DecorationManager) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: DecorationManagerInterface, Type: "event", Op: msg.Op()}
}

// GetToplevelDecoration creates a decoration object for the toplevel
// through which the decoration mode can be negotiated.
func (m *DecorationManager) GetToplevelDecoration(toplevel *Toplevel) *ToplevelDecoration {
	deco := ToplevelDecoration{client: m.client}
	m.client.Add(&deco)

	msg := wire.NewMessage(m, decorationManagerGetToplevelDecoration)
	msg.Method = "get_toplevel_decoration"
	msg.Args = []any{deco.id, toplevel}
	msg.WriteUint(deco.id)
	msg.WriteObject(toplevel)
	m.client.Enqueue(msg)

	return &deco
}

func (m *DecorationManager) Destroy() {
	msg := wire.NewMessage(m, decorationManagerDestroy)
	msg.Method = "destroy"
	m.client.Enqueue(msg)
	m.client.Delete(m.id)
}

type ToplevelDecorationListener interface {
	// Configure reports the decoration mode the server settled on,
	// which may differ from the requested one.
	Configure(mode DecorationMode)
}

// ToplevelDecoration is a zxdg_toplevel_decoration_v1 object bound to
// a single toplevel.
type ToplevelDecoration struct {
	Listener ToplevelDecorationListener

	object
	client *wl.Client
}

func (d *ToplevelDecoration) String() string {
	return fmt.Sprintf("zxdg_toplevel_decoration_v1@%v", d.id)
}

func (d *ToplevelDecoration) MethodName(op uint16) string {
	if op == toplevelDecorationEvtConfigure {
		return "configure"
	}
	return "unknown"
}

func (d *ToplevelDecoration) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case toplevelDecorationEvtConfigure:
		mode := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if d.Listener != nil {
			d.Listener.Configure(DecorationMode(mode))
		}
		return nil
	}

	return wire.UnknownOpError{Interface: ToplevelDecorationInterface, Type: "event", Op: msg.Op()}
}

// SetMode asks the server to use the given decoration mode. The
// request is best-effort; the configure event reports the outcome.
func (d *ToplevelDecoration) SetMode(mode DecorationMode) {
	msg := wire.NewMessage(d, toplevelDecorationSetMode)
	msg.Method = "set_mode"
	msg.Args = []any{mode}
	msg.WriteUint(uint32(mode))
	d.client.Enqueue(msg)
}

func (d *ToplevelDecoration) Destroy() {
	msg := wire.NewMessage(d, toplevelDecorationDestroy)
	msg.Method = "destroy"
	d.client.Enqueue(msg)
	d.client.Delete(d.id)
}
