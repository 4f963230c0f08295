// Package window ties the protocol plumbing together into a single
// decorated, resizable toplevel window with a software-rendered back
// buffer and keyboard input.
package window

import (
	"context"
	"errors"
	"fmt"
	"image/draw"
	"time"

	"github.com/charmbracelet/log"

	wl "waywin/client"
	"waywin/gfx"
	"waywin/input"
	"waywin/xdg"
)

// Config holds the window's creation parameters. The zero value of
// each field selects a sensible default.
type Config struct {
	Title  string
	Width  int32
	Height int32

	// HandshakeTimeout bounds how long New waits for the server's
	// responses during setup.
	HandshakeTimeout time.Duration
}

const (
	defaultTitle  = "waywin"
	defaultWidth  = 800
	defaultHeight = 600

	defaultHandshakeTimeout = 5 * time.Second
)

// graphics is the rendering contract the window drives. It exists as
// an interface so that tests can substitute the real context.
type graphics interface {
	MakeCurrent() error
	Resize(width, height int32) error
	SwapBuffers() error
	Image() draw.Image
	Destroy()
}

var newGraphics = func(s *wl.Shm, surface *wl.Surface, width, height int32) (graphics, error) {
	return gfx.New(s, surface, width, height)
}

var dial = wl.Dial

// Window is a single toplevel window. Its methods are not safe for
// concurrent use; everything, including listener callbacks, runs on
// the goroutine that calls Update or Run.
type Window struct {
	client   *wl.Client
	registry *wl.Registry

	compositor  *wl.Compositor
	shm         *wl.Shm
	seat        *wl.Seat
	wmBase      *xdg.WmBase
	decoManager *xdg.DecorationManager

	surface    *wl.Surface
	xdgSurface *xdg.Surface
	toplevel   *xdg.Toplevel
	decoration *xdg.ToplevelDecoration

	gfx      graphics
	keyboard *input.Keyboard

	width, height      int32
	pendingW, pendingH int32

	wantsClose bool
	fatal      error
}

// New connects to the display server indicated by the environment and
// sets up a window per cfg. On failure everything already created is
// torn down before the error is returned.
func New(cfg Config) (_ *Window, err error) {
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}

	client, err := dial()
	if err != nil {
		return nil, ConnectionError{Err: err}
	}

	w := &Window{
		client: client,
		width:  cfg.Width,
		height: cfg.Height,
	}
	defer func() {
		if err != nil {
			w.Destroy()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HandshakeTimeout)
	defer cancel()

	client.Display().Listener = (*displayListener)(w)
	w.registry = client.Display().GetRegistry()
	w.registry.Listener = (*registryListener)(w)

	if err := w.roundTrip(ctx, cfg.HandshakeTimeout); err != nil {
		return nil, err
	}

	if w.compositor == nil {
		return nil, MissingCapabilityError{Interface: wl.CompositorInterface}
	}
	if w.wmBase == nil {
		return nil, MissingCapabilityError{Interface: xdg.WmBaseInterface}
	}
	if w.shm == nil {
		return nil, GraphicsInitError{Err: errors.New("no shared-memory buffer support")}
	}

	w.wmBase.Listener = (*wmBaseListener)(w)
	if w.seat != nil {
		w.keyboard = input.NewKeyboard(w.seat)
	}

	// A second round trip sends the binds and collects their initial
	// events: pixel formats and seat capabilities.
	if err := w.roundTrip(ctx, cfg.HandshakeTimeout); err != nil {
		return nil, err
	}

	w.surface = w.compositor.CreateSurface()
	w.xdgSurface = w.wmBase.GetXdgSurface(w.surface)
	w.xdgSurface.Listener = (*xdgSurfaceListener)(w)
	w.toplevel = w.xdgSurface.GetToplevel()
	w.toplevel.Listener = (*toplevelListener)(w)
	w.toplevel.SetTitle(cfg.Title)
	w.toplevel.SetAppID(cfg.Title)

	if w.decoManager != nil {
		w.decoration = w.decoManager.GetToplevelDecoration(w.toplevel)
		w.decoration.Listener = (*decorationListener)(w)
		w.decoration.SetMode(xdg.DecorationModeServerSide)
	}

	w.setOpaque(w.width, w.height)
	w.surface.Commit()

	// Wait for the initial configure so the first frame is presented
	// against acknowledged state.
	if err := w.roundTrip(ctx, cfg.HandshakeTimeout); err != nil {
		return nil, err
	}

	g, err := newGraphics(w.shm, w.surface, w.width, w.height)
	if err != nil {
		return nil, GraphicsInitError{Err: err}
	}
	w.gfx = g

	if w.fatal != nil {
		return nil, w.fatal
	}
	return w, nil
}

func (w *Window) roundTrip(ctx context.Context, timeout time.Duration) error {
	err := w.client.RoundTripContext(ctx)
	switch {
	case err == nil:
		return w.fatal
	case errors.Is(err, context.DeadlineExceeded):
		return HandshakeTimeoutError{Timeout: timeout}
	default:
		return err
	}
}

// setOpaque declares the whole window opaque so the compositor can
// skip blending behind it.
func (w *Window) setOpaque(width, height int32) {
	region := w.compositor.CreateRegion()
	region.Add(0, 0, width, height)
	w.surface.SetOpaqueRegion(region)
	region.Destroy()
}

// resize applies an acknowledged size change.
func (w *Window) resize(width, height int32) {
	if w.gfx != nil {
		if err := w.gfx.Resize(width, height); err != nil {
			w.fatal = fmt.Errorf("resize: %w", err)
			return
		}
	}
	w.width = width
	w.height = height
	w.setOpaque(width, height)
	w.surface.Commit()
}

// MakeCurrent readies the rendering context. It must be called once
// before the first frame is drawn.
func (w *Window) MakeCurrent() error {
	return w.gfx.MakeCurrent()
}

// Image returns the back buffer to draw the next frame into.
func (w *Window) Image() draw.Image {
	return w.gfx.Image()
}

func (w *Window) Width() int32 {
	return w.width
}

func (w *Window) Height() int32 {
	return w.height
}

// Keyboard returns the window's keyboard translator, or nil if the
// server has no seat.
func (w *Window) Keyboard() *input.Keyboard {
	return w.keyboard
}

// WantsClose reports whether the user has asked for the window to
// close. Once set it never resets.
func (w *Window) WantsClose() bool {
	return w.wantsClose
}

// Update runs one iteration of the window's event handling and
// presents the back buffer. After a close request it processes events
// but presents nothing.
func (w *Window) Update() error {
	if err := w.client.Flush(); err != nil {
		return err
	}
	if w.fatal != nil {
		return w.fatal
	}
	if w.wantsClose {
		return nil
	}
	return w.gfx.SwapBuffers()
}

// Run drives the window until it is asked to close, calling render
// before each frame is presented. It makes the rendering context
// current itself.
func (w *Window) Run(render func(draw.Image)) error {
	if err := w.gfx.MakeCurrent(); err != nil {
		return fmt.Errorf("make context current: %w", err)
	}

	for {
		if err := w.client.Flush(); err != nil {
			return err
		}
		if w.fatal != nil {
			return w.fatal
		}
		if w.wantsClose {
			return nil
		}

		if render != nil {
			render(w.gfx.Image())
		}
		if err := w.gfx.SwapBuffers(); err != nil {
			return err
		}
	}
}

// Destroy tears the window down in reverse creation order. It is safe
// to call on a partially constructed window.
func (w *Window) Destroy() {
	if w.keyboard != nil {
		w.keyboard.Release()
	}
	if w.decoration != nil {
		w.decoration.Destroy()
	}
	if w.toplevel != nil {
		w.toplevel.Destroy()
	}
	if w.xdgSurface != nil {
		w.xdgSurface.Destroy()
	}
	if w.gfx != nil {
		w.gfx.Destroy()
	}
	if w.surface != nil {
		w.surface.Destroy()
	}
	if w.decoManager != nil {
		w.decoManager.Destroy()
	}
	if w.wmBase != nil {
		w.wmBase.Destroy()
	}
	if w.seat != nil {
		w.seat.Release()
	}
	if w.client != nil {
		w.client.Drain()
		w.client.Close()
	}
}

type displayListener Window

func (lis *displayListener) Error(objectID, code uint32, message string) {
	w := (*Window)(lis)
	log.Error("display error", "object", objectID, "code", code, "message", message)
	w.fatal = SurfaceError{ObjectID: objectID, Code: code, Message: message}
}

type registryListener Window

func (lis *registryListener) Global(name uint32, inter string, version uint32) {
	w := (*Window)(lis)

	i := wl.Interface{Name: inter, Version: version}
	switch {
	case wl.IsCompositor(i):
		w.compositor = wl.BindCompositor(w.client, w.registry, name, wl.CompositorVersion)
	case wl.IsShm(i):
		w.shm = wl.BindShm(w.client, w.registry, name, wl.ShmVersion)
	case wl.IsSeat(i):
		w.seat = wl.BindSeat(w.client, w.registry, name, min(version, wl.SeatVersion))
	case xdg.IsWmBase(i):
		w.wmBase = xdg.BindWmBase(w.client, w.registry, name, xdg.WmBaseVersion)
	case xdg.IsDecorationManager(i):
		w.decoManager = xdg.BindDecorationManager(w.client, w.registry, name, xdg.DecorationManagerVersion)
	}
}

func (lis *registryListener) GlobalRemove(name uint32) {
	log.Debug("global removed", "name", name)
}

type wmBaseListener Window

func (lis *wmBaseListener) Ping(serial uint32) {
	(*Window)(lis).wmBase.Pong(serial)
}

type xdgSurfaceListener Window

func (lis *xdgSurfaceListener) Configure(serial uint32) {
	w := (*Window)(lis)
	w.xdgSurface.AckConfigure(serial)

	if (w.pendingW != 0) && (w.pendingH != 0) && ((w.pendingW != w.width) || (w.pendingH != w.height)) {
		w.resize(w.pendingW, w.pendingH)
	}
}

type toplevelListener Window

func (lis *toplevelListener) Configure(width, height int32, states []byte) {
	w := (*Window)(lis)

	// Zero means the client picks its own dimension. Keep what we
	// have.
	if (width == 0) || (height == 0) {
		w.pendingW, w.pendingH = w.width, w.height
		return
	}
	w.pendingW, w.pendingH = width, height
}

func (lis *toplevelListener) Close() {
	(*Window)(lis).wantsClose = true
}

func (lis *toplevelListener) ConfigureBounds(width, height int32) {}

func (lis *toplevelListener) WmCapabilities(capabilities []byte) {}

type decorationListener Window

func (lis *decorationListener) Configure(mode xdg.DecorationMode) {
	log.Debug("decoration mode", "mode", mode)
}
