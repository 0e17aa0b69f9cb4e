// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Frame is one decoded image in RGBA8 (non-premultiplied, sRGB) layout.
//
// A frame is owned by its source until it is handed out by Next; from then on
// the receiver owns it and must call Release exactly once when done. Pixel
// data must not be modified after the frame is handed out.
type Frame struct {
	// Pix holds the pixels, row by row, 4 bytes per pixel.
	Pix []byte

	// Stride is the number of bytes between two rows.
	Stride int

	// Width is the frame width in pixels.
	Width int

	// Height is the frame height in pixels.
	Height int

	// Timestamp is the capture time.
	Timestamp time.Time

	// Seq is the capture sequence number within the stream.
	Seq uint64

	release  func(*Frame)
	released atomic.Bool
}

// New allocates a zeroed (transparent black) frame.
func New(width, height int) *Frame {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Frame{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Stride: width * BytesPerPixel,
		Width:  width,
		Height: height,
	}
}

// Solid returns a frame filled with c.
func Solid(width, height int, c color.RGBA) *Frame {
	f := New(width, height)
	for i := 0; i < len(f.Pix); i += BytesPerPixel {
		f.Pix[i+0] = c.R
		f.Pix[i+1] = c.G
		f.Pix[i+2] = c.B
		f.Pix[i+3] = c.A
	}
	return f
}

// FromImage wraps img without copying. The frame shares pixel memory with
// img; the image origin is moved to (0, 0).
func FromImage(img *image.RGBA) *Frame {
	b := img.Bounds()
	off := img.PixOffset(b.Min.X, b.Min.Y)
	return &Frame{
		Pix:    img.Pix[off:],
		Stride: img.Stride,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// WithReleaser sets the function called by Release. It is used by pools and
// capture backends that recycle buffers. It returns f for chaining.
func (f *Frame) WithReleaser(fn func(*Frame)) *Frame {
	f.release = fn
	return f
}

// Image returns an *image.RGBA view sharing memory with the frame.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Size returns the frame dimensions as a point.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// At returns the pixel at (x, y). Out-of-range coordinates return
// transparent black.
func (f *Frame) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	i := y*f.Stride + x*BytesPerPixel
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: f.Pix[i+3]}
}

// Clone returns a deep copy with a tight stride. The copy has no releaser.
func (f *Frame) Clone() *Frame {
	c := New(f.Width, f.Height)
	row := f.Width * BytesPerPixel
	for y := range f.Height {
		copy(c.Pix[y*c.Stride:y*c.Stride+row], f.Pix[y*f.Stride:y*f.Stride+row])
	}
	c.Timestamp = f.Timestamp
	c.Seq = f.Seq
	return c
}

// Release hands the frame back to its producer. Only the first call has an
// effect.
func (f *Frame) Release() {
	if f == nil || f.released.Swap(true) {
		return
	}
	if f.release != nil {
		f.release(f)
	}
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f.released.Load()
}

// String returns a short description of the frame.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame[#%d %dx%d]", f.Seq, f.Width, f.Height)
}
