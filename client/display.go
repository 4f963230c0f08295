package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	DisplayInterface = "wl_display"
	DisplayVersion   = 1
)

const (
	displaySync        = 0
	displayGetRegistry = 1

	displayEvtError    = 0
	displayEvtDeleteID = 1
)

type DisplayListener interface {
	// Error indicates a fatal protocol error. The connection is
	// unusable afterwards.
	Error(objectID, code uint32, message string)
}

// Display is the wl_display singleton through which the connection's
// synchronization and object-lifetime events flow.
type Display struct {
	Listener DisplayListener

	object
	client   *Client
	registry *Registry
}

func (d *Display) String() string {
	return fmt.Sprintf("wl_display@%v", d.id)
}

func (d *Display) MethodName(op uint16) string {
	switch op {
	case displayEvtError:
		return "error"
	case displayEvtDeleteID:
		return "delete_id"
	}
	return "unknown"
}

func (d *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displayEvtError:
		objectID := msg.ReadUint()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if d.Listener != nil {
			d.Listener.Error(objectID, code, message)
			return nil
		}
		return fmt.Errorf("display error: object %v, code %v: %v", objectID, code, message)

	case displayEvtDeleteID:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		d.client.Delete(id)
		return nil
	}

	return wire.UnknownOpError{Interface: DisplayInterface, Type: "event", Op: msg.Op()}
}

// Sync asks the server to confirm that it has processed every request
// sent so far. The returned callback fires once that confirmation
// arrives.
func (d *Display) Sync() *Callback {
	callback := Callback{client: d.client}
	d.client.Add(&callback)

	msg := wire.NewMessage(d, displaySync)
	msg.Method = "sync"
	msg.Args = []any{callback.id}
	msg.WriteUint(callback.id)
	d.client.Enqueue(msg)

	return &callback
}

// GetRegistry returns the connection's capability registry, creating
// it on first call.
func (d *Display) GetRegistry() *Registry {
	if d.registry != nil {
		return d.registry
	}

	registry := Registry{
		client:  d.client,
		globals: make(map[uint32]Interface),
	}
	d.client.Add(&registry)

	msg := wire.NewMessage(d, displayGetRegistry)
	msg.Method = "get_registry"
	msg.Args = []any{registry.id}
	msg.WriteUint(registry.id)
	d.client.Enqueue(msg)

	d.registry = &registry
	return &registry
}
