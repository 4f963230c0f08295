package wl

import (
	"fmt"

	"waywin/wire"
)

const (
	ShmPoolInterface = "wl_shm_pool"
	ShmPoolVersion   = 1
)

const (
	shmPoolCreateBuffer = 0
	shmPoolDestroy      = 1
	shmPoolResize       = 2
)

// ShmPool is a wl_shm_pool, a slab of shared memory that buffers are
// carved out of.
type ShmPool struct {
	object
	client *Client
}

func (pool *ShmPool) String() string {
	return fmt.Sprintf("wl_shm_pool@%v", pool.id)
}

func (pool *ShmPool) MethodName(op uint16) string {
	return "unknown"
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: ShmPoolInterface, Type: "event", Op: msg.Op()}
}

func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	buf := Buffer{client: pool.client}
	pool.client.Add(&buf)

	msg := wire.NewMessage(pool, shmPoolCreateBuffer)
	msg.Method = "create_buffer"
	msg.Args = []any{buf.id, offset, width, height, stride, format}
	msg.WriteUint(buf.id)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(uint32(format))
	pool.client.Enqueue(msg)

	return &buf
}

// Resize grows the pool. The underlying file must already have been
// enlarged to at least the new size.
func (pool *ShmPool) Resize(size int32) {
	msg := wire.NewMessage(pool, shmPoolResize)
	msg.Method = "resize"
	msg.Args = []any{size}
	msg.WriteInt(size)
	pool.client.Enqueue(msg)
}

func (pool *ShmPool) Destroy() {
	msg := wire.NewMessage(pool, shmPoolDestroy)
	msg.Method = "destroy"
	pool.client.Enqueue(msg)
	pool.client.Delete(pool.id)
}
