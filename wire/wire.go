// Package wire defines types for dealing with the Wayland wire
// protocol. It is primarily intended for usage by the protocol object
// implementations in the client and xdg packages.
package wire

// Object represents a Wayland protocol object.
type Object interface {
	// ID is the object's ID in the connection's object table, or 0 if
	// the object has not been added to one yet.
	ID() uint32

	// SetID is called by the object table when the object is added to
	// it.
	SetID(id uint32)

	// Delete is called when the object is removed from the object
	// table.
	Delete()

	// Dispatch performs the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// MethodName returns the name of the event with the given opcode.
	// It is included purely for debugging purposes.
	MethodName(op uint16) string
}

// NewID is the wire representation of an object created via a request
// on an interface that isn't known statically, such as
// wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// padding returns the number of bytes necessary to pad n out to a
// 32-bit boundary.
func padding(n uint32) uint32 {
	return (4 - (n % 4)) % 4
}
