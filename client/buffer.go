package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	BufferInterface = "wl_buffer"
	BufferVersion   = 1
)

const (
	bufferDestroy = 0

	bufferEvtRelease = 0
)

type BufferListener interface {
	// Release signals that the server is done reading from the buffer
	// and the client may reuse its memory.
	Release()
}

// Buffer is a wl_buffer backed by a region of a ShmPool.
type Buffer struct {
	Listener BufferListener

	object
	client *Client
}

func (buf *Buffer) String() string {
	return fmt.Sprintf("wl_buffer@%v", buf.id)
}

func (buf *Buffer) MethodName(op uint16) string {
	if op == bufferEvtRelease {
		return "release"
	}
	return "unknown"
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case bufferEvtRelease:
		if buf.Listener != nil {
			buf.Listener.Release()
		}
		return nil
	}

	return wire.UnknownOpError{Interface: BufferInterface, Type: "event", Op: msg.Op()}
}

func (buf *Buffer) Destroy() {
	msg := wire.NewMessage(buf, bufferDestroy)
	msg.Method = "destroy"
	buf.client.Enqueue(msg)
	buf.client.Delete(buf.id)
}
