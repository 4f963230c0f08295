// Package gfx binds a rendering context to a surface and presents
// frames to the compositor.
//
// The rendering subsystem is software: frames are drawn into a
// shared-memory back buffer and presented with an attach/damage/commit
// cycle. The package still follows the usual context discipline of an
// accelerated subsystem: a configuration is chosen once at creation
// time, the context must be made current before drawing, and the
// back buffer must be resized in lockstep with the window.
package gfx

import (
	"errors"
	"fmt"
	"image/draw"

	wl "waywin/client"
	"waywin/internal/xslices"
	"waywin/shm"
)

// ErrNotCurrent is returned by operations that require MakeCurrent to
// have been called first.
var ErrNotCurrent = errors.New("context is not current")

// Context owns the back buffer bound to a single surface.
type Context struct {
	surface *wl.Surface
	buf     *shm.ImageBuffer
	format  wl.ShmFormat
	width   int32
	height  int32
	current bool
}

// New creates a rendering context over surface at the given
// dimensions. It fails if the shared-memory subsystem is unavailable
// or no compatible pixel format was advertised.
func New(s *wl.Shm, surface *wl.Surface, width, height int32) (*Context, error) {
	if s == nil {
		return nil, errors.New("shared-memory buffer factory is unavailable")
	}

	format, err := chooseFormat(s.Formats())
	if err != nil {
		return nil, err
	}

	buf, err := shm.NewImageBuffer(s, width, height, format)
	if err != nil {
		return nil, fmt.Errorf("create back buffer: %w", err)
	}

	return &Context{
		surface: surface,
		buf:     buf,
		format:  format,
		width:   width,
		height:  height,
	}, nil
}

// chooseFormat picks a pixel format with at least 8 bits per RGB
// channel from the advertised set, preferring an opaque layout.
func chooseFormat(formats []wl.ShmFormat) (wl.ShmFormat, error) {
	ok := xslices.Filter(formats, func(f wl.ShmFormat) bool {
		return (f == wl.ShmFormatXrgb8888) || (f == wl.ShmFormatArgb8888)
	})
	if len(ok) == 0 {
		return 0, errors.New("no pixel format with 8-bit RGB channels advertised")
	}

	for _, f := range ok {
		if f == wl.ShmFormatXrgb8888 {
			return f, nil
		}
	}
	return ok[0], nil
}

// MakeCurrent readies the context for drawing. It must be called
// before Image or SwapBuffers.
func (ctx *Context) MakeCurrent() error {
	ctx.current = true
	return nil
}

// Format returns the pixel format chosen at creation time.
func (ctx *Context) Format() wl.ShmFormat {
	return ctx.format
}

// Size returns the context's current dimensions.
func (ctx *Context) Size() (width, height int32) {
	return ctx.width, ctx.height
}

// Resize adjusts the back buffer to the window's new size. It must be
// called before the next SwapBuffers whenever the window's size
// changes, or the presented frame will be stale.
func (ctx *Context) Resize(width, height int32) error {
	err := ctx.buf.Resize(width, height)
	if err != nil {
		return fmt.Errorf("resize back buffer: %w", err)
	}
	ctx.width = width
	ctx.height = height
	return nil
}

// Image returns the back buffer for drawing. The returned image is
// only valid until the next Resize.
func (ctx *Context) Image() draw.Image {
	if !ctx.current {
		return nil
	}
	return ctx.buf.Image()
}

// SwapBuffers presents the back buffer's contents.
func (ctx *Context) SwapBuffers() error {
	if !ctx.current {
		return ErrNotCurrent
	}

	ctx.surface.Attach(ctx.buf.Buffer(), 0, 0)
	ctx.surface.Damage(0, 0, ctx.width, ctx.height)
	ctx.surface.Commit()
	return nil
}

// Destroy releases the back buffer. The surface itself is owned by
// the caller.
func (ctx *Context) Destroy() {
	if ctx.buf != nil {
		ctx.buf.Destroy()
	}
}
