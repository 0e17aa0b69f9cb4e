// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"image"

	"github.com/gogpu/camwall/backend"
)

// Image is an RGBA8 image owned by a software Device.
type Image struct {
	dev    *Device
	label  string
	pix    []byte
	stride int
	width  int
	height int
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Format always returns backend.FormatRGBA8.
func (img *Image) Format() backend.Format { return backend.FormatRGBA8 }

// Label returns the debug label.
func (img *Image) Label() string { return img.label }

// RGBA returns a copy of the image contents.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	copy(out.Pix, img.pix)
	return out
}

// Target is a display image acquired from an OffscreenSurface.
type Target struct {
	surface *OffscreenSurface
	pix     []byte
	stride  int
	width   int
	height  int
	format  backend.Format
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.height }

// Format returns the target pixel format.
func (t *Target) Format() backend.Format { return t.format }

// store writes an RGBA color at byte offset i, swizzling for BGRA targets.
func (t *Target) store(i int, c [4]uint8) {
	if t.format == backend.FormatBGRA8 {
		c[0], c[2] = c[2], c[0]
	}
	copy(t.pix[i:i+4], c[:])
}

func (t *Target) clear(c backend.Color) {
	rgba := c.RGBA8()
	if t.format == backend.FormatBGRA8 {
		rgba[0], rgba[2] = rgba[2], rgba[0]
	}
	for i := 0; i < len(t.pix); i += 4 {
		copy(t.pix[i:i+4], rgba[:])
	}
}
