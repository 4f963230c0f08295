package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	CallbackInterface = "wl_callback"
	CallbackVersion   = 1
)

const callbackEvtDone = 0

type CallbackListener interface {
	Done(data uint32)
}

// Callback is a wl_callback. It fires exactly once and is deleted by
// the server afterwards.
type Callback struct {
	Listener CallbackListener

	object
	client *Client
}

// Then registers f to be called when the callback fires.
func (c *Callback) Then(f func(uint32)) {
	c.Listener = callbackFunc(f)
}

func (c *Callback) String() string {
	return fmt.Sprintf("wl_callback@%v", c.id)
}

func (c *Callback) MethodName(op uint16) string {
	if op == callbackEvtDone {
		return "done"
	}
	return "unknown"
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case callbackEvtDone:
		data := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if c.Listener != nil {
			c.Listener.Done(data)
		}
		return nil
	}

	return wire.UnknownOpError{Interface: CallbackInterface, Type: "event", Op: msg.Op()}
}

type callbackFunc func(uint32)

func (f callbackFunc) Done(data uint32) {
	f(data)
}
