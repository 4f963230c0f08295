package wl

import (
	"fmt"

	"golang.org/x/exp/maps"
	"waywin/wire"
)

const (
	RegistryInterface = "wl_registry"
	RegistryVersion   = 1
)

const (
	registryBind = 0

	registryEvtGlobal       = 0
	registryEvtGlobalRemove = 1
)

type RegistryListener interface {
	// Global announces a capability available for binding. Globals
	// arrive in server-chosen order.
	Global(name uint32, inter string, version uint32)

	// GlobalRemove announces that a previously advertised capability
	// is no longer available.
	GlobalRemove(name uint32)
}

// Registry is the wl_registry, the channel over which the server
// advertises its global capabilities.
type Registry struct {
	Listener RegistryListener

	object
	client  *Client
	globals map[uint32]Interface
}

// Globals returns a copy of the currently advertised global table,
// keyed by registry name.
func (r *Registry) Globals() map[uint32]Interface {
	return maps.Clone(r.globals)
}

func (r *Registry) String() string {
	return fmt.Sprintf("wl_registry@%v", r.id)
}

func (r *Registry) MethodName(op uint16) string {
	switch op {
	case registryEvtGlobal:
		return "global"
	case registryEvtGlobalRemove:
		return "global_remove"
	}
	return "unknown"
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case registryEvtGlobal:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		r.globals[name] = Interface{Name: inter, Version: version}
		if r.Listener != nil {
			r.Listener.Global(name, inter, version)
		}
		return nil

	case registryEvtGlobalRemove:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(r.globals, name)
		if r.Listener != nil {
			r.Listener.GlobalRemove(name)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: RegistryInterface, Type: "event", Op: msg.Op()}
}

// Bind binds the global with the given registry name to the object
// with the given ID. It is usually called through one of the
// interface-specific Bind functions rather than directly.
func (r *Registry) Bind(name uint32, inter string, version, id uint32) {
	msg := wire.NewMessage(r, registryBind)
	msg.Method = "bind"
	msg.Args = []any{name, inter, version, id}
	msg.WriteUint(name)
	msg.WriteNewID(wire.NewID{Interface: inter, Version: version, ID: id})
	r.client.Enqueue(msg)
}
