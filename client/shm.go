package wl

import (
	"fmt"
	"os"

	"waywin/wire"
)

const (
	ShmInterface = "wl_shm"
	ShmVersion   = 1
)

const (
	shmCreatePool = 0

	shmEvtFormat = 0
)

// ShmFormat is a pixel format supported for shared-memory buffers.
type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = 0
	ShmFormatXrgb8888 ShmFormat = 1
)

func (f ShmFormat) String() string {
	switch f {
	case ShmFormatArgb8888:
		return "argb8888"
	case ShmFormatXrgb8888:
		return "xrgb8888"
	}
	return fmt.Sprintf("0x%08x", uint32(f))
}

type ShmListener interface {
	Format(format ShmFormat)
}

// Shm is the wl_shm global, the shared-memory buffer factory.
type Shm struct {
	Listener ShmListener

	object
	client  *Client
	formats []ShmFormat
}

func IsShm(i Interface) bool {
	return i.Is(ShmInterface, ShmVersion)
}

func BindShm(client *Client, registry *Registry, name, version uint32) *Shm {
	shm := Shm{client: client}
	client.Add(&shm)
	registry.Bind(name, ShmInterface, version, shm.id)

	return &shm
}

// Formats returns the pixel formats the server has advertised so far.
// The full set is known after the first round trip following the
// bind.
func (shm *Shm) Formats() []ShmFormat {
	return append([]ShmFormat(nil), shm.formats...)
}

func (shm *Shm) String() string {
	return fmt.Sprintf("wl_shm@%v", shm.id)
}

func (shm *Shm) MethodName(op uint16) string {
	if op == shmEvtFormat {
		return "format"
	}
	return "unknown"
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case shmEvtFormat:
		format := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		shm.formats = append(shm.formats, ShmFormat(format))
		if shm.Listener != nil {
			shm.Listener.Format(ShmFormat(format))
		}
		return nil
	}

	return wire.UnknownOpError{Interface: ShmInterface, Type: "event", Op: msg.Op()}
}

// CreatePool shares size bytes of file with the server as a buffer
// pool.
func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	pool := ShmPool{client: shm.client}
	shm.client.Add(&pool)

	msg := wire.NewMessage(shm, shmCreatePool)
	msg.Method = "create_pool"
	msg.Args = []any{pool.id, file, size}
	msg.WriteUint(pool.id)
	msg.WriteFile(file)
	msg.WriteInt(size)
	shm.client.Enqueue(msg)

	return &pool
}
