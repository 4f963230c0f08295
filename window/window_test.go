package window

import (
	"errors"
	"image"
	"image/draw"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	wl "waywin/client"
	"waywin/input"
	"waywin/internal/wltest"
	"waywin/wire"
	"waywin/xkb"
)

const testKeymap = `xkb_keymap {
	xkb_keycodes "test" {
		<AD01> = 24;
	};
	xkb_types "test" { };
	xkb_compat "test" { };
	xkb_symbols "test" {
		key <AD01> { [ q, Q ] };
	};
};`

func allGlobals() []wltest.Global {
	return []wltest.Global{
		{Name: 1, Interface: "wl_compositor", Version: 4},
		{Name: 2, Interface: "wl_shm", Version: 1},
		{Name: 3, Interface: "wl_seat", Version: 7},
		{Name: 4, Interface: "xdg_wm_base", Version: 2},
		{Name: 5, Interface: "zxdg_decoration_manager_v1", Version: 1},
	}
}

func startServer(t *testing.T, globals ...wltest.Global) *wltest.Server {
	t.Helper()

	srv, conn := wltest.New(t, globals...)
	old := dial
	dial = func() (*wl.Client, error) { return wl.New(conn), nil }
	t.Cleanup(func() { dial = old })
	return srv
}

type fakeGraphics struct {
	current   bool
	resizes   [][2]int32
	swaps     int
	destroyed bool
	img       draw.Image
}

func (g *fakeGraphics) MakeCurrent() error { g.current = true; return nil }

func (g *fakeGraphics) Resize(width, height int32) error {
	g.resizes = append(g.resizes, [2]int32{width, height})
	return nil
}

func (g *fakeGraphics) SwapBuffers() error { g.swaps++; return nil }
func (g *fakeGraphics) Image() draw.Image  { return g.img }
func (g *fakeGraphics) Destroy()           { g.destroyed = true }

func useFakeGraphics(t *testing.T) *fakeGraphics {
	t.Helper()

	g := fakeGraphics{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	old := newGraphics
	newGraphics = func(*wl.Shm, *wl.Surface, int32, int32) (graphics, error) { return &g, nil }
	t.Cleanup(func() { newGraphics = old })
	return &g
}

// pump runs the window's event handling until cond holds.
func pump(t *testing.T, w *Window, cond func() bool) {
	t.Helper()

	require.Eventually(t, func() bool {
		if err := w.Update(); err != nil {
			return false
		}
		return cond()
	}, time.Second, 2*time.Millisecond)
}

// pumpErr runs the window's event handling until Update fails.
func pumpErr(t *testing.T, w *Window) error {
	t.Helper()

	var err error
	require.Eventually(t, func() bool {
		err = w.Update()
		return err != nil
	}, time.Second, 2*time.Millisecond)
	return err
}

func requestsOf(srv *wltest.Server, inter, method string) []wltest.Request {
	var out []wltest.Request
	for _, req := range srv.Requests() {
		if (req.Interface == inter) && (req.Method == method) {
			out = append(out, req)
		}
	}
	return out
}

func reqIndex(reqs []wltest.Request, inter, method string) int {
	for i, req := range reqs {
		if (req.Interface == inter) && (req.Method == method) {
			return i
		}
	}
	return -1
}

func TestNew(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	assert.EqualValues(t, 800, w.Width())
	assert.EqualValues(t, 600, w.Height())
	assert.NotNil(t, w.Keyboard())
	assert.False(t, w.WantsClose())

	titles := requestsOf(srv, "xdg_toplevel", "set_title")
	require.Len(t, titles, 1)
	assert.Equal(t, "waywin", titles[0].Args[0])

	modes := requestsOf(srv, "zxdg_toplevel_decoration_v1", "set_mode")
	require.Len(t, modes, 1)
	assert.Equal(t, uint32(2), modes[0].Args[0])

	assert.Equal(t, 1, srv.CountRequests("wl_surface", "set_opaque_region"))
	assert.Equal(t, 1, srv.CountRequests("wl_surface", "commit"))
}

func TestNewGlobalOrder(t *testing.T) {
	globals := allGlobals()
	for i, j := 0, len(globals)-1; i < j; i, j = i+1, j-1 {
		globals[i], globals[j] = globals[j], globals[i]
	}

	startServer(t, globals...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	assert.NotNil(t, w.Keyboard())
}

func TestNewConfigDimensions(t *testing.T) {
	startServer(t, allGlobals()...)
	useFakeGraphics(t)

	w, err := New(Config{Title: "custom", Width: 320, Height: 240})
	require.NoError(t, err)
	defer w.Destroy()

	assert.EqualValues(t, 320, w.Width())
	assert.EqualValues(t, 240, w.Height())
}

func TestNewMissingWmBase(t *testing.T) {
	srv := startServer(t,
		wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4},
		wltest.Global{Name: 2, Interface: "wl_shm", Version: 1},
		wltest.Global{Name: 3, Interface: "wl_seat", Version: 7},
	)

	w, err := New(Config{})
	require.Nil(t, w)

	var missing MissingCapabilityError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "xdg_wm_base", missing.Interface)

	// The seat bound during the handshake is released on the way out.
	require.Eventually(t, func() bool {
		return srv.CountRequests("wl_seat", "release") == 1
	}, time.Second, 2*time.Millisecond)
}

func TestNewMissingCompositor(t *testing.T) {
	srv := startServer(t,
		wltest.Global{Name: 1, Interface: "wl_shm", Version: 1},
		wltest.Global{Name: 2, Interface: "xdg_wm_base", Version: 1},
	)

	w, err := New(Config{})
	require.Nil(t, w)

	var missing MissingCapabilityError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "wl_compositor", missing.Interface)

	require.Eventually(t, func() bool {
		return srv.CountRequests("xdg_wm_base", "destroy") == 1
	}, time.Second, 2*time.Millisecond)
}

func TestNewMissingShm(t *testing.T) {
	startServer(t,
		wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4},
		wltest.Global{Name: 2, Interface: "xdg_wm_base", Version: 1},
	)

	w, err := New(Config{})
	require.Nil(t, w)

	var gfxErr GraphicsInitError
	require.ErrorAs(t, err, &gfxErr)
}

func TestNewWithoutOptionalGlobals(t *testing.T) {
	srv := startServer(t,
		wltest.Global{Name: 1, Interface: "wl_compositor", Version: 4},
		wltest.Global{Name: 2, Interface: "wl_shm", Version: 1},
		wltest.Global{Name: 3, Interface: "xdg_wm_base", Version: 1},
	)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	assert.Nil(t, w.Keyboard())
	assert.Zero(t, srv.CountRequests("zxdg_decoration_manager_v1", "get_toplevel_decoration"))
}

func TestSeatVersionNegotiation(t *testing.T) {
	globals := allGlobals()
	globals[2].Version = 5
	srv := startServer(t, globals...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	// An older seat is still bound, at the advertised version rather
	// than the newest one the client knows.
	require.NotNil(t, w.Keyboard())

	binds := requestsOf(srv, "wl_registry", "bind")
	var bound uint32
	for _, req := range binds {
		if req.Args[1] == "wl_seat" {
			bound = req.Args[2].(uint32)
		}
	}
	assert.EqualValues(t, 5, bound)
}

func TestNewDialError(t *testing.T) {
	old := dial
	dial = func() (*wl.Client, error) { return nil, errors.New("no display") }
	t.Cleanup(func() { dial = old })

	w, err := New(Config{})
	require.Nil(t, w)

	var connErr ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestNewHandshakeTimeout(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	// The server end stays open but never answers.
	server := os.NewFile(uintptr(fds[0]), "server")
	t.Cleanup(func() { server.Close() })

	file := os.NewFile(uintptr(fds[1]), "client")
	c, err := net.FileConn(file)
	file.Close()
	require.NoError(t, err)

	old := dial
	dial = func() (*wl.Client, error) { return wl.New(wire.NewConn(c.(*net.UnixConn))), nil }
	t.Cleanup(func() { dial = old })

	w, err := New(Config{HandshakeTimeout: 50 * time.Millisecond})
	require.Nil(t, w)

	var timeout HandshakeTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 50*time.Millisecond, timeout.Timeout)
}

func TestResize(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	g := useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	serial := srv.SendConfigure(1024, 768)
	pump(t, w, func() bool {
		return (w.Width() == 1024) && (srv.CountRequests("xdg_surface", "ack_configure") == 1)
	})

	assert.EqualValues(t, 768, w.Height())
	assert.Equal(t, [][2]int32{{1024, 768}}, g.resizes)

	acks := requestsOf(srv, "xdg_surface", "ack_configure")
	require.Len(t, acks, 1)
	assert.Equal(t, serial, acks[0].Args[0])

	// The applied resize commits the surface once, on top of the one
	// from setup.
	assert.Equal(t, 2, srv.CountRequests("wl_surface", "commit"))

	// An unchanged size is acknowledged but triggers no resize.
	srv.SendConfigure(1024, 768)
	pump(t, w, func() bool { return srv.CountRequests("xdg_surface", "ack_configure") == 2 })
	assert.Len(t, g.resizes, 1)

	// Zero dimensions leave the choice to the client.
	srv.SendConfigure(0, 0)
	pump(t, w, func() bool { return srv.CountRequests("xdg_surface", "ack_configure") == 3 })
	assert.Len(t, g.resizes, 1)
	assert.EqualValues(t, 1024, w.Width())

	// Neither no-op produced a further commit.
	assert.Equal(t, 2, srv.CountRequests("wl_surface", "commit"))
}

func TestCloseRequest(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	g := useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	srv.SendClose()
	pump(t, w, func() bool { return w.WantsClose() })

	// No frames are presented after a close request.
	swaps := g.swaps
	require.NoError(t, w.Update())
	require.NoError(t, w.Update())
	assert.Equal(t, swaps, g.swaps)

	// And the loop exits immediately.
	require.NoError(t, w.Run(nil))
}

func TestPingPong(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	serial := srv.SendPing()
	pump(t, w, func() bool { return srv.CountRequests("xdg_wm_base", "pong") == 1 })

	pongs := requestsOf(srv, "xdg_wm_base", "pong")
	assert.Equal(t, serial, pongs[0].Args[0])
}

func TestDisplayError(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	srv.SendDisplayError(1, 3, "bad request")
	err = pumpErr(t, w)

	var surfErr SurfaceError
	require.ErrorAs(t, err, &surfErr)
	assert.EqualValues(t, 1, surfErr.ObjectID)
	assert.EqualValues(t, 3, surfErr.Code)
	assert.Equal(t, "bad request", surfErr.Message)
}

func TestDestroyOrder(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	g := useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)

	w.Destroy()
	assert.True(t, g.destroyed)

	require.Eventually(t, func() bool {
		return srv.CountRequests("wl_surface", "destroy") == 1
	}, time.Second, 2*time.Millisecond)

	reqs := srv.Requests()
	deco := reqIndex(reqs, "zxdg_toplevel_decoration_v1", "destroy")
	toplevel := reqIndex(reqs, "xdg_toplevel", "destroy")
	xdgSurface := reqIndex(reqs, "xdg_surface", "destroy")
	surface := reqIndex(reqs, "wl_surface", "destroy")

	require.NotEqual(t, -1, deco)
	require.NotEqual(t, -1, surface)
	assert.Less(t, deco, toplevel)
	assert.Less(t, toplevel, xdgSurface)
	assert.Less(t, xdgSurface, surface)
}

func TestKeyboardInput(t *testing.T) {
	srv := startServer(t, allGlobals()...)
	useFakeGraphics(t)

	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Destroy()

	kb := w.Keyboard()
	require.NotNil(t, kb)

	var events []input.Event
	kb.OnKey = func(ev input.Event) { events = append(events, ev) }

	srv.SendSeatCapabilities(uint32(wl.SeatCapabilityKeyboard))
	pump(t, w, func() bool { return srv.CountRequests("wl_seat", "get_keyboard") == 1 })

	srv.SendKeymap([]byte(testKeymap))
	pump(t, w, func() bool { return kb.Ready() })

	// Evdev scancode 16 is keycode 24, the q key.
	srv.SendKey(16, true)
	pump(t, w, func() bool { return len(events) == 1 })
	assert.Equal(t, input.Event{Sym: 'q', Pressed: true}, events[0])

	srv.SendModifiers(uint32(xkb.ModShift), 0, 0, 0)
	srv.SendKey(16, false)
	pump(t, w, func() bool { return len(events) == 2 })
	assert.Equal(t, input.Event{Sym: 'Q', Pressed: false}, events[1])
}

func TestRealGraphics(t *testing.T) {
	srv := startServer(t, allGlobals()...)

	w, err := New(Config{Width: 64, Height: 48})
	require.NoError(t, err)
	defer w.Destroy()

	require.NoError(t, w.MakeCurrent())

	img := w.Image()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())

	require.Eventually(t, func() bool {
		if err := w.Update(); err != nil {
			return false
		}
		return srv.CountRequests("wl_surface", "attach") >= 1 &&
			srv.CountRequests("wl_surface", "damage") >= 1 &&
			srv.CountRequests("wl_surface", "commit") >= 2
	}, time.Second, 2*time.Millisecond)
}
