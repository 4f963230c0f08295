package shm

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"deedles.dev/ximage/format"
	"golang.org/x/sys/unix"
	wl "waywin/client"
)

// ImageBuffer is a shared-memory wl_buffer exposed as a draw.Image.
// It owns the backing file, the mapping, the pool, and the buffer
// proxy, and keeps all four consistent across resizes.
type ImageBuffer struct {
	w, h   int32
	format wl.ShmFormat
	shm    *wl.Shm
	pool   *wl.ShmPool
	buf    *wl.Buffer
	file   *os.File
	mmap   Mmap
}

func NewImageBuffer(s *wl.Shm, w, h int32, format wl.ShmFormat) (buf *ImageBuffer, err error) {
	defer func() {
		if err != nil {
			buf.Destroy()
		}
	}()

	buf = &ImageBuffer{
		w:      w,
		h:      h,
		format: format,
		shm:    s,
	}
	size := buf.Stride() * buf.h

	file, err := Create()
	if err != nil {
		return buf, fmt.Errorf("create SHM file: %w", err)
	}
	buf.file = file
	if err := buf.file.Truncate(int64(size)); err != nil {
		return buf, fmt.Errorf("truncate SHM file: %w", err)
	}

	mmap, err := MapShared(file, int(size), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return buf, fmt.Errorf("mmap SHM file: %w", err)
	}
	buf.mmap = mmap

	buf.pool = buf.shm.CreatePool(file, int32(len(buf.mmap)))
	buf.buf = buf.pool.CreateBuffer(0, w, h, buf.Stride(), format)

	return buf, nil
}

func (s *ImageBuffer) Destroy() {
	if s.mmap != nil {
		// The shrink path shortens the slice without remapping, so
		// unmap the full mapping.
		s.mmap[:cap(s.mmap)].Unmap()
	}
	if s.file != nil {
		s.file.Close()
	}
	if s.buf != nil {
		s.buf.Destroy()
	}
	if s.pool != nil {
		s.pool.Destroy()
	}
}

func (s *ImageBuffer) Buffer() *wl.Buffer {
	return s.buf
}

func (s *ImageBuffer) Format() wl.ShmFormat {
	return s.format
}

func (s *ImageBuffer) Stride() int32 {
	return s.w * 4
}

func (s *ImageBuffer) Len() int32 {
	return s.Stride() * s.h
}

func (s *ImageBuffer) Cap() int32 {
	return int32(cap(s.mmap))
}

func (s *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(
		0,
		0,
		int(s.w),
		int(s.h),
	)
}

// Resize adjusts the buffer to the new dimensions, growing the
// backing file and pool when they are too small. It is a no-op if the
// dimensions are unchanged.
func (s *ImageBuffer) Resize(w, h int32) error {
	if (w == s.w) && (h == s.h) {
		return nil
	}

	s.w = w
	s.h = h
	if s.Len() <= s.Cap() {
		s.mmap = s.mmap[:s.Len()]
		s.buf.Destroy()
		s.buf = s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), s.format)
		return nil
	}

	if err := s.file.Truncate(int64(s.Len())); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	err := s.mmap[:cap(s.mmap)].Unmap()
	if err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	mmap, err := MapShared(s.file, int(s.Len()), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	s.mmap = mmap

	s.buf.Destroy()
	s.pool.Resize(s.Len())
	s.buf = s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), s.format)

	return nil
}

// Image returns the buffer's memory as a drawable image. The memory
// layout of the two supported wire formats matches ARGB8888; for
// XRGB8888 buffers the compositor simply ignores the alpha byte.
func (s *ImageBuffer) Image() draw.Image {
	return &format.Image{
		Format: format.ARGB8888,
		Rect:   s.Bounds(),
		Pix:    s.mmap,
	}
}
