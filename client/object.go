package wl

// object is the common part of every protocol object proxy. It
// satisfies the identity-related portion of wire.Object.
type object struct {
	id uint32
}

func (obj *object) ID() uint32 {
	return obj.id
}

func (obj *object) SetID(id uint32) {
	obj.id = id
}

func (obj *object) Delete() {}

// Interface identifies a global advertised by the registry.
type Interface struct {
	Name    string
	Version uint32
}

// Is reports whether the advertised interface can satisfy a binding
// of the named interface at the given minimum version.
func (i Interface) Is(name string, version uint32) bool {
	return (i.Name == name) && (i.Version >= version)
}
