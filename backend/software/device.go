// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"fmt"
	"image"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/camwall/internal/parallel"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (backend.Device, error) {
		return NewDevice(0), nil
	})
}

// Device is a CPU implementation of backend.Device.
type Device struct {
	pool   *parallel.WorkerPool
	closed bool
	draws  uint64
	copies uint64
}

// NewDevice creates a software device that rasterizes with the given number
// of workers. If workers is 0 or negative, GOMAXPROCS is used.
func NewDevice(workers int) *Device {
	return &Device{pool: parallel.NewWorkerPool(workers)}
}

// Name returns "software".
func (d *Device) Name() string { return backend.BackendSoftware }

// CreateImage allocates a zeroed RGBA8 image.
func (d *Device) CreateImage(desc backend.ImageDescriptor) (backend.Image, error) {
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.Format != backend.FormatRGBA8 {
		return nil, fmt.Errorf("%w: image format %v", backend.ErrInvalidDescriptor, desc.Format)
	}
	return &Image{
		dev:    d,
		label:  desc.Label,
		pix:    make([]byte, desc.Width*desc.Height*4),
		stride: desc.Width * 4,
		width:  desc.Width,
		height: desc.Height,
	}, nil
}

// Pipeline is the software compositor pipeline.
type Pipeline struct {
	dev          *Device
	label        string
	sampler      sampler
	targetFormat backend.Format
	tris         [2]triangle
	trisW, trisH int
}

// Label returns the debug label.
func (p *Pipeline) Label() string { return p.label }

// CreatePipeline binds the atlas and sampler into a pipeline.
func (d *Device) CreatePipeline(desc backend.PipelineDescriptor) (backend.Pipeline, error) {
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	atlas, err := d.lookupImage(desc.Atlas)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		dev:          d,
		label:        desc.Label,
		sampler:      sampler{img: atlas, filter: desc.Filter},
		targetFormat: desc.TargetFormat,
	}, nil
}

// CreateSurface creates an offscreen surface.
func (d *Device) CreateSurface(desc backend.SurfaceDescriptor) (backend.Surface, error) {
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	return NewOffscreenSurface(desc)
}

// CopyRegionIntoImage copies src into dst at origin.
func (d *Device) CopyRegionIntoImage(dst backend.Image, origin image.Point, src *image.RGBA) error {
	if d.closed {
		return backend.ErrDeviceClosed
	}
	img, err := d.lookupImage(dst)
	if err != nil {
		return err
	}
	b := src.Bounds()
	if err := backend.CheckCopy(img.width, img.height, origin, b.Size()); err != nil {
		return err
	}

	row := b.Dx() * 4
	for y := range b.Dy() {
		s := src.PixOffset(b.Min.X, b.Min.Y+y)
		o := (origin.Y+y)*img.stride + origin.X*4
		copy(img.pix[o:o+row], src.Pix[s:s+row])
	}
	d.copies++
	return nil
}

// Draw clears target and draws the pipeline's quad into it.
func (d *Device) Draw(target backend.Target, p backend.Pipeline, clear backend.Color) error {
	if d.closed {
		return backend.ErrDeviceClosed
	}
	t, ok := target.(*Target)
	if !ok {
		return fmt.Errorf("%w: target %T", backend.ErrForeignObject, target)
	}
	pl, ok := p.(*Pipeline)
	if !ok || pl.dev != d {
		return fmt.Errorf("%w: pipeline %T", backend.ErrForeignObject, p)
	}
	if pl.sampler.img.pix == nil {
		return fmt.Errorf("%w: atlas %q destroyed", backend.ErrInvalidDescriptor, pl.sampler.img.label)
	}
	if t.format != pl.targetFormat {
		return fmt.Errorf("%w: target is %v, pipeline renders %v",
			backend.ErrInvalidDescriptor, t.format, pl.targetFormat)
	}

	if pl.trisW != t.width || pl.trisH != t.height {
		tris := backend.QuadTriangles()
		pl.tris = [2]triangle{newTriangle(tris[0], t.width, t.height), newTriangle(tris[1], t.width, t.height)}
		pl.trisW, pl.trisH = t.width, t.height
	}

	t.clear(clear)
	d.pool.ForRows(t.height, func(y0, y1 int) {
		for _, tri := range pl.tris {
			tri.shadeRows(t, pl.sampler, y0, y1)
		}
	})
	d.draws++
	return nil
}

// DestroyPipeline is a no-op; pipelines hold no native resources.
func (d *Device) DestroyPipeline(backend.Pipeline) {}

// DestroyImage drops the image pixels.
func (d *Device) DestroyImage(img backend.Image) {
	if i, ok := img.(*Image); ok && i.dev == d {
		i.pix = nil
	}
}

// Close stops the raster workers. It is safe to call more than once.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.pool.Close()
}

// Counters returns the number of copies and draws executed.
func (d *Device) Counters() (copies, draws uint64) {
	return d.copies, d.draws
}

func (d *Device) lookupImage(img backend.Image) (*Image, error) {
	i, ok := img.(*Image)
	if !ok || i.dev != d {
		return nil, fmt.Errorf("%w: image %T", backend.ErrForeignObject, img)
	}
	if i.pix == nil {
		return nil, fmt.Errorf("%w: image %q destroyed", backend.ErrInvalidDescriptor, i.label)
	}
	return i, nil
}
