package xdg

import (
	"fmt"

	wl "waywin/client"
	"waywin/wire"
)

const (
	ToplevelInterface = "xdg_toplevel"
	ToplevelVersion   = 1
)

const (
	toplevelDestroy      = 0
	toplevelSetParent    = 1
	toplevelSetTitle     = 2
	toplevelSetAppID     = 3
	toplevelSetMinimized = 13

	toplevelEvtConfigure       = 0
	toplevelEvtClose           = 1
	toplevelEvtConfigureBounds = 2
	toplevelEvtWmCapabilities  = 3
)

type ToplevelListener interface {
	// Configure proposes a new size for the window. A width or height
	// of zero means the client is free to pick its own dimension.
	Configure(width, height int32, states []byte)

	// Close indicates that the user wants the window gone. It is a
	// request, not a notification of destruction.
	Close()

	ConfigureBounds(width, height int32)

	WmCapabilities(capabilities []byte)
}

// Toplevel is an xdg_toplevel, the role object for an independently
// movable and resizable window.
type Toplevel struct {
	Listener ToplevelListener

	object
	client *wl.Client
}

func (t *Toplevel) String() string {
	return fmt.Sprintf("xdg_toplevel@%v", t.id)
}

func (t *Toplevel) MethodName(op uint16) string {
	switch op {
	case toplevelEvtConfigure:
		return "configure"
	case toplevelEvtClose:
		return "close"
	case toplevelEvtConfigureBounds:
		return "configure_bounds"
	case toplevelEvtWmCapabilities:
		return "wm_capabilities"
	}
	return "unknown"
}

func (t *Toplevel) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case toplevelEvtConfigure:
		width := msg.ReadInt()
		height := msg.ReadInt()
		states := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Listener != nil {
			t.Listener.Configure(width, height, states)
		}
		return nil

	case toplevelEvtClose:
		if t.Listener != nil {
			t.Listener.Close()
		}
		return nil

	case toplevelEvtConfigureBounds:
		width := msg.ReadInt()
		height := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Listener != nil {
			t.Listener.ConfigureBounds(width, height)
		}
		return nil

	case toplevelEvtWmCapabilities:
		capabilities := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Listener != nil {
			t.Listener.WmCapabilities(capabilities)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: ToplevelInterface, Type: "event", Op: msg.Op()}
}

func (t *Toplevel) SetTitle(title string) {
	msg := wire.NewMessage(t, toplevelSetTitle)
	msg.Method = "set_title"
	msg.Args = []any{title}
	msg.WriteString(title)
	t.client.Enqueue(msg)
}

func (t *Toplevel) SetAppID(appID string) {
	msg := wire.NewMessage(t, toplevelSetAppID)
	msg.Method = "set_app_id"
	msg.Args = []any{appID}
	msg.WriteString(appID)
	t.client.Enqueue(msg)
}

func (t *Toplevel) SetMinimized() {
	msg := wire.NewMessage(t, toplevelSetMinimized)
	msg.Method = "set_minimized"
	t.client.Enqueue(msg)
}

func (t *Toplevel) Destroy() {
	msg := wire.NewMessage(t, toplevelDestroy)
	msg.Method = "destroy"
	t.client.Enqueue(msg)
	t.client.Delete(t.id)
}
