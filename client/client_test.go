package wl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wl "waywin/client"
	"waywin/internal/wltest"
)

func TestRegistryGlobals(t *testing.T) {
	_, conn := wltest.New(t,
		wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4},
		wltest.Global{Name: 2, Interface: "wl_shm", Version: 1},
	)
	client := wl.New(conn)
	defer client.Close()

	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	globals := registry.Globals()
	assert.Equal(t, wl.Interface{Name: "wl_compositor", Version: 4}, globals[1])
	assert.Equal(t, wl.Interface{Name: "wl_shm", Version: 1}, globals[2])
}

type globalRecorder struct {
	added   []string
	removed []uint32
}

func (r *globalRecorder) Global(name uint32, inter string, version uint32) {
	r.added = append(r.added, inter)
}

func (r *globalRecorder) GlobalRemove(name uint32) {
	r.removed = append(r.removed, name)
}

func TestRegistryListener(t *testing.T) {
	_, conn := wltest.New(t,
		wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4},
		wltest.Global{Name: 2, Interface: "wl_seat", Version: 7},
	)
	client := wl.New(conn)
	defer client.Close()

	var rec globalRecorder
	client.Display().GetRegistry().Listener = &rec
	require.NoError(t, client.RoundTrip())

	assert.Equal(t, []string{"wl_compositor", "wl_seat"}, rec.added)
}

func TestBind(t *testing.T) {
	srv, conn := wltest.New(t, wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4})
	client := wl.New(conn)
	defer client.Close()

	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	var compositor *wl.Compositor
	for name, inter := range registry.Globals() {
		if wl.IsCompositor(inter) {
			compositor = wl.BindCompositor(client, registry, name, wl.CompositorVersion)
		}
	}
	require.NotNil(t, compositor)

	surface := compositor.CreateSurface()
	require.NotNil(t, surface)
	require.NoError(t, client.RoundTrip())

	assert.Equal(t, 1, srv.CountRequests("wl_registry", "bind"))
	assert.Equal(t, 1, srv.CountRequests("wl_compositor", "create_surface"))
	assert.Equal(t, surface.ID(), srv.ObjectID("wl_surface"))
}

func TestSyncCallback(t *testing.T) {
	_, conn := wltest.New(t)
	client := wl.New(conn)
	defer client.Close()

	var done bool
	client.Display().Sync().Then(func(uint32) { done = true })
	require.NoError(t, client.RoundTrip())

	assert.True(t, done)
}

func TestShmFormats(t *testing.T) {
	_, conn := wltest.New(t, wltest.Global{Name: 1, Interface: "wl_shm", Version: 1})
	client := wl.New(conn)
	defer client.Close()

	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	var shm *wl.Shm
	for name, inter := range registry.Globals() {
		if wl.IsShm(inter) {
			shm = wl.BindShm(client, registry, name, wl.ShmVersion)
		}
	}
	require.NotNil(t, shm)
	require.NoError(t, client.RoundTrip())

	assert.ElementsMatch(t, []wl.ShmFormat{wl.ShmFormatArgb8888, wl.ShmFormatXrgb8888}, shm.Formats())
}
