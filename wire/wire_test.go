package wire_test

import (
	"io"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"waywin/wire"
)

type testObject uint32

func (o testObject) ID() uint32                         { return uint32(o) }
func (o testObject) SetID(uint32)                       {}
func (o testObject) Delete()                            {}
func (o testObject) Dispatch(*wire.MessageBuffer) error { return nil }
func (o testObject) MethodName(uint16) string           { return "test" }

func connPair(t *testing.T) (*wire.Conn, *wire.Conn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	a := wrapFD(t, fds[0])
	b := wrapFD(t, fds[1])
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func wrapFD(t *testing.T, fd int) *wire.Conn {
	t.Helper()

	file := os.NewFile(uintptr(fd), "socketpair")
	defer file.Close()

	c, err := net.FileConn(file)
	require.NoError(t, err)
	return wire.NewConn(c.(*net.UnixConn))
}

func TestMessageRoundTrip(t *testing.T) {
	a, b := connPair(t)

	builder := wire.NewMessage(testObject(3), 7)
	builder.WriteInt(-5)
	builder.WriteUint(42)
	builder.WriteString("hello")
	builder.WriteArray([]byte{1, 2, 3})
	builder.WriteFixed(wire.FixedInt(12))
	require.NoError(t, builder.Build(a))

	msg, err := wire.ReadMessage(b)
	require.NoError(t, err)

	assert.EqualValues(t, 3, msg.Sender())
	assert.EqualValues(t, 7, msg.Op())

	assert.Equal(t, int32(-5), msg.ReadInt())
	assert.Equal(t, uint32(42), msg.ReadUint())
	assert.Equal(t, "hello", msg.ReadString())
	assert.Equal(t, []byte{1, 2, 3}, msg.ReadArray())
	assert.Equal(t, wire.FixedInt(12), msg.ReadFixed())
	require.NoError(t, msg.Err())
}

func TestMessageSizePadding(t *testing.T) {
	a, b := connPair(t)

	// "hi" plus its NUL takes 3 bytes, padded out to 4, plus the
	// 4-byte length prefix.
	builder := wire.NewMessage(testObject(1), 0)
	builder.WriteString("hi")
	require.NoError(t, builder.Build(a))

	msg, err := wire.ReadMessage(b)
	require.NoError(t, err)
	assert.EqualValues(t, 8+8, msg.Size())
	assert.Equal(t, "hi", msg.ReadString())
	require.NoError(t, msg.Err())
}

func TestMessageNullString(t *testing.T) {
	a, b := connPair(t)

	// A null string is a bare zero length with no data or padding.
	builder := wire.NewMessage(testObject(1), 0)
	builder.WriteUint(0)
	require.NoError(t, builder.Build(a))

	msg, err := wire.ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, "", msg.ReadString())
	require.NoError(t, msg.Err())
}

func TestMessageNewID(t *testing.T) {
	a, b := connPair(t)

	id := wire.NewID{Interface: "wl_compositor", Version: 4, ID: 9}
	builder := wire.NewMessage(testObject(2), 0)
	builder.WriteNewID(id)
	require.NoError(t, builder.Build(a))

	msg, err := wire.ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, id, msg.ReadNewID())
	require.NoError(t, msg.Err())
}

func TestMessageFile(t *testing.T) {
	a, b := connPair(t)

	file, err := os.CreateTemp(t.TempDir(), "wiretest")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.WriteString("fd contents")
	require.NoError(t, err)
	_, err = file.Seek(0, io.SeekStart)
	require.NoError(t, err)

	builder := wire.NewMessage(testObject(1), 0)
	builder.WriteFile(file)
	builder.WriteUint(11)
	require.NoError(t, builder.Build(a))

	msg, err := wire.ReadMessage(b)
	require.NoError(t, err)

	received := msg.ReadFile()
	require.NoError(t, msg.Err())
	defer received.Close()

	size := msg.ReadUint()
	data := make([]byte, size)
	_, err = io.ReadFull(received, data)
	require.NoError(t, err)
	assert.Equal(t, "fd contents", string(data))
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1234")

	t.Setenv("WAYLAND_DISPLAY", "wayland-7")
	assert.Equal(t, "/run/user/1234/wayland-7", wire.SocketPath())

	t.Setenv("WAYLAND_DISPLAY", "/tmp/some-socket")
	assert.Equal(t, "/tmp/some-socket", wire.SocketPath())
}

func TestFixed(t *testing.T) {
	assert.Equal(t, 12, wire.FixedInt(12).Int())
	assert.Equal(t, 12.0, wire.FixedInt(12).Float())
	assert.Equal(t, 1.5, wire.FixedFloat(1.5).Float())
	assert.Equal(t, "12", wire.FixedInt(12).String())
}
