package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	SurfaceInterface = "wl_surface"
	SurfaceVersion   = 1
)

const (
	surfaceDestroy         = 0
	surfaceAttach          = 1
	surfaceDamage          = 2
	surfaceFrame           = 3
	surfaceSetOpaqueRegion = 4
	surfaceCommit          = 6

	surfaceEvtEnter = 0
	surfaceEvtLeave = 1
)

type SurfaceListener interface {
	// Enter and Leave report which outputs the surface overlaps,
	// identified by object ID.
	Enter(output uint32)
	Leave(output uint32)
}

// Surface is a wl_surface, a drawable region that content can be
// attached to and committed for presentation.
type Surface struct {
	Listener SurfaceListener

	object
	client *Client
}

func (s *Surface) String() string {
	return fmt.Sprintf("wl_surface@%v", s.id)
}

func (s *Surface) MethodName(op uint16) string {
	switch op {
	case surfaceEvtEnter:
		return "enter"
	case surfaceEvtLeave:
		return "leave"
	}
	return "unknown"
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case surfaceEvtEnter:
		output := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Enter(output)
		}
		return nil

	case surfaceEvtLeave:
		output := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener != nil {
			s.Listener.Leave(output)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: SurfaceInterface, Type: "event", Op: msg.Op()}
}

// Attach sets the surface's pending buffer. The contents do not
// become visible until the next Commit.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	msg := wire.NewMessage(s, surfaceAttach)
	msg.Method = "attach"
	msg.Args = []any{buf, x, y}
	msg.WriteObject(buf)
	msg.WriteInt(x)
	msg.WriteInt(y)
	s.client.Enqueue(msg)
}

// Damage marks a region of the surface as needing redisplay on the
// next commit.
func (s *Surface) Damage(x, y, width, height int32) {
	msg := wire.NewMessage(s, surfaceDamage)
	msg.Method = "damage"
	msg.Args = []any{x, y, width, height}
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.client.Enqueue(msg)
}

// Frame requests a callback that fires when it is a good time to draw
// the next frame.
func (s *Surface) Frame() *Callback {
	callback := Callback{client: s.client}
	s.client.Add(&callback)

	msg := wire.NewMessage(s, surfaceFrame)
	msg.Method = "frame"
	msg.Args = []any{callback.id}
	msg.WriteUint(callback.id)
	s.client.Enqueue(msg)

	return &callback
}

// SetOpaqueRegion declares the part of the surface that is fully
// opaque, letting the compositor skip blending beneath it. A nil
// region marks the whole surface as potentially transparent.
func (s *Surface) SetOpaqueRegion(region *Region) {
	msg := wire.NewMessage(s, surfaceSetOpaqueRegion)
	msg.Method = "set_opaque_region"
	msg.Args = []any{region}
	msg.WriteObject(region)
	s.client.Enqueue(msg)
}

// Commit atomically applies all pending surface state.
func (s *Surface) Commit() {
	msg := wire.NewMessage(s, surfaceCommit)
	msg.Method = "commit"
	s.client.Enqueue(msg)
}

func (s *Surface) Destroy() {
	msg := wire.NewMessage(s, surfaceDestroy)
	msg.Method = "destroy"
	s.client.Enqueue(msg)
	s.client.Delete(s.id)
}
