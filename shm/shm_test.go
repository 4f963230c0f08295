package shm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	wl "waywin/client"
	"waywin/internal/wltest"
	"waywin/shm"
)

func TestCreateAndMap(t *testing.T) {
	file, err := shm.Create()
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, file.Truncate(4096))

	mmap, err := shm.MapShared(file, 4096, unix.PROT_READ|unix.PROT_WRITE)
	require.NoError(t, err)
	copy(mmap, "hello")
	require.NoError(t, mmap.Unmap())

	// The mapping was shared, so the write is visible through the
	// file.
	buf := make([]byte, 5)
	_, err = file.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestMapPrivate(t *testing.T) {
	file, err := shm.Create()
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, file.Truncate(16))
	_, err = file.WriteAt([]byte("keymap data"), 0)
	require.NoError(t, err)

	mmap, err := shm.MapPrivate(file, 16, unix.PROT_READ)
	require.NoError(t, err)
	defer mmap.Unmap()

	assert.Equal(t, "keymap data", string(mmap[:11]))
}

func bindShm(t *testing.T) (*wltest.Server, *wl.Client, *wl.Shm) {
	t.Helper()

	srv, conn := wltest.New(t, wltest.Global{Name: 1, Interface: "wl_shm", Version: 1})
	client := wl.New(conn)
	t.Cleanup(func() { client.Close() })

	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	var s *wl.Shm
	for name, inter := range registry.Globals() {
		if wl.IsShm(inter) {
			s = wl.BindShm(client, registry, name, wl.ShmVersion)
		}
	}
	require.NotNil(t, s)
	require.NoError(t, client.RoundTrip())

	return srv, client, s
}

func TestImageBuffer(t *testing.T) {
	srv, client, s := bindShm(t)

	buf, err := shm.NewImageBuffer(s, 4, 3, wl.ShmFormatArgb8888)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.EqualValues(t, 16, buf.Stride())
	assert.EqualValues(t, 48, buf.Len())
	assert.Equal(t, wl.ShmFormatArgb8888, buf.Format())
	require.NotNil(t, buf.Buffer())

	img := buf.Image()
	assert.Equal(t, buf.Bounds(), img.Bounds())

	require.NoError(t, client.RoundTrip())
	assert.Equal(t, 1, srv.CountRequests("wl_shm", "create_pool"))
	assert.Equal(t, 1, srv.CountRequests("wl_shm_pool", "create_buffer"))
}

func TestImageBufferResize(t *testing.T) {
	srv, client, s := bindShm(t)

	buf, err := shm.NewImageBuffer(s, 4, 4, wl.ShmFormatXrgb8888)
	require.NoError(t, err)
	defer buf.Destroy()

	// Shrinking reuses the existing pool.
	require.NoError(t, buf.Resize(2, 2))
	assert.EqualValues(t, 16, buf.Len())
	assert.EqualValues(t, 64, buf.Cap())

	// Growing extends the file and the pool.
	require.NoError(t, buf.Resize(8, 8))
	assert.EqualValues(t, 256, buf.Len())
	assert.Equal(t, buf.Len(), buf.Cap())

	// Resizing to the current size does nothing.
	require.NoError(t, buf.Resize(8, 8))

	require.NoError(t, client.RoundTrip())
	assert.Equal(t, 3, srv.CountRequests("wl_shm_pool", "create_buffer"))
	assert.Equal(t, 1, srv.CountRequests("wl_shm_pool", "resize"))
}
