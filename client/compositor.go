package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	CompositorInterface = "wl_compositor"
	CompositorVersion   = 1
)

const (
	compositorCreateSurface = 0
	compositorCreateRegion  = 1
)

// Compositor is the wl_compositor global, the factory for drawable
// surfaces and regions.
type Compositor struct {
	object
	client *Client
}

func IsCompositor(i Interface) bool {
	return i.Is(CompositorInterface, CompositorVersion)
}

func BindCompositor(client *Client, registry *Registry, name, version uint32) *Compositor {
	compositor := Compositor{client: client}
	client.Add(&compositor)
	registry.Bind(name, CompositorInterface, version, compositor.id)

	return &compositor
}

func (c *Compositor) String() string {
	return fmt.Sprintf("wl_compositor@%v", c.id)
}

func (c *Compositor) MethodName(op uint16) string {
	return "unknown"
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: CompositorInterface, Type: "event", Op: msg.Op()}
}

func (c *Compositor) CreateSurface() *Surface {
	s := Surface{client: c.client}
	c.client.Add(&s)

	msg := wire.NewMessage(c, compositorCreateSurface)
	msg.Method = "create_surface"
	msg.Args = []any{s.id}
	msg.WriteUint(s.id)
	c.client.Enqueue(msg)

	return &s
}

func (c *Compositor) CreateRegion() *Region {
	r := Region{client: c.client}
	c.client.Add(&r)

	msg := wire.NewMessage(c, compositorCreateRegion)
	msg.Method = "create_region"
	msg.Args = []any{r.id}
	msg.WriteUint(r.id)
	c.client.Enqueue(msg)

	return &r
}
