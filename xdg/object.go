package xdg

// object is the common identity part of every xdg protocol object
// proxy.
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
