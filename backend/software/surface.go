// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/camwall/backend"
)

// OffscreenSurface is a double-buffered in-memory display.
//
// Acquire hands out the back buffer; Present copies it to the front buffer,
// which Snapshot reads.
type OffscreenSurface struct {
	label  string
	width  int
	height int
	format backend.Format

	back     *Target
	acquired bool

	mu        sync.Mutex
	front     []byte
	presented uint64
}

// NewOffscreenSurface creates a surface of the given size and format.
func NewOffscreenSurface(desc backend.SurfaceDescriptor) (*OffscreenSurface, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: surface %q is %dx%d",
			backend.ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	if desc.Format != backend.FormatRGBA8 && desc.Format != backend.FormatBGRA8 {
		return nil, fmt.Errorf("%w: surface format %v", backend.ErrInvalidDescriptor, desc.Format)
	}
	s := &OffscreenSurface{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
	}
	s.back = &Target{
		surface: s,
		pix:     make([]byte, desc.Width*desc.Height*4),
		stride:  desc.Width * 4,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
	}
	return s, nil
}

// Acquire returns the back buffer.
func (s *OffscreenSurface) Acquire() (backend.Target, error) {
	if s.back == nil {
		return nil, backend.ErrDeviceClosed
	}
	if s.acquired {
		return nil, backend.ErrTargetOutstanding
	}
	s.acquired = true
	return s.back, nil
}

// Present publishes the back buffer to the front buffer.
func (s *OffscreenSurface) Present(t backend.Target) error {
	tt, ok := t.(*Target)
	if !ok || tt.surface != s {
		return fmt.Errorf("%w: target %T", backend.ErrForeignObject, t)
	}
	if !s.acquired {
		return fmt.Errorf("software: present without acquire")
	}
	s.acquired = false

	s.mu.Lock()
	if s.front == nil {
		s.front = make([]byte, len(tt.pix))
	}
	copy(s.front, tt.pix)
	s.presented++
	s.mu.Unlock()
	return nil
}

// Size returns the surface dimensions.
func (s *OffscreenSurface) Size() (width, height int) {
	return s.width, s.height
}

// Format returns the surface pixel format.
func (s *OffscreenSurface) Format() backend.Format {
	return s.format
}

// Presented returns the number of presented frames.
func (s *OffscreenSurface) Presented() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Snapshot returns a copy of the last presented image in RGBA order.
// It is safe to call from any goroutine.
func (s *OffscreenSurface) Snapshot() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front == nil {
		return nil, backend.ErrNothingPresented
	}
	out := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(out.Pix, s.front)
	if s.format == backend.FormatBGRA8 {
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	return out, nil
}

// Release drops the surface buffers.
func (s *OffscreenSurface) Release() {
	s.back = nil
	s.mu.Lock()
	s.front = nil
	s.mu.Unlock()
}
