package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	RegionInterface = "wl_region"
	RegionVersion   = 1
)

const (
	regionDestroy  = 0
	regionAdd      = 1
	regionSubtract = 2
)

// Region is a wl_region, an area built up from rectangles for use
// with surface requests such as set_opaque_region.
type Region struct {
	object
	client *Client
}

func (r *Region) String() string {
	return fmt.Sprintf("wl_region@%v", r.id)
}

func (r *Region) MethodName(op uint16) string {
	return "unknown"
}

func (r *Region) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: RegionInterface, Type: "event", Op: msg.Op()}
}

func (r *Region) Add(x, y, width, height int32) {
	msg := wire.NewMessage(r, regionAdd)
	msg.Method = "add"
	msg.Args = []any{x, y, width, height}
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	r.client.Enqueue(msg)
}

func (r *Region) Subtract(x, y, width, height int32) {
	msg := wire.NewMessage(r, regionSubtract)
	msg.Method = "subtract"
	msg.Args = []any{x, y, width, height}
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	r.client.Enqueue(msg)
}

func (r *Region) Destroy() {
	msg := wire.NewMessage(r, regionDestroy)
	msg.Method = "destroy"
	r.client.Enqueue(msg)
	r.client.Delete(r.id)
}
