package backend

import (
	"errors"
	"fmt"
	"image"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot open a device on this machine.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrDeviceClosed is returned when using a closed device.
	ErrDeviceClosed = errors.New("backend: device closed")

	// ErrInvalidDescriptor is returned for zero-sized or malformed
	// descriptors.
	ErrInvalidDescriptor = errors.New("backend: invalid descriptor")

	// ErrRegionOutOfBounds is returned when a copy does not fit inside the
	// destination image.
	ErrRegionOutOfBounds = errors.New("backend: region out of bounds")

	// ErrForeignObject is returned when an object created by one device is
	// passed to another.
	ErrForeignObject = errors.New("backend: object belongs to another device")

	// ErrTargetOutstanding is returned by Surface.Acquire when the previous
	// target has not been presented.
	ErrTargetOutstanding = errors.New("backend: target already acquired")

	// ErrNothingPresented is returned by Snapshot before the first Present.
	ErrNothingPresented = errors.New("backend: nothing presented yet")
)

// Format is a pixel format of images and targets.
type Format uint8

const (
	// FormatRGBA8 is 8-bit RGBA, unsigned normalized. Atlas images always use
	// it.
	FormatRGBA8 Format = iota

	// FormatBGRA8 is 8-bit BGRA, unsigned normalized. Common swapchain
	// format.
	FormatBGRA8
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// Color is a linear clear color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGBA8 converts the color to 8-bit components, clamping out-of-range
// values.
func (c Color) RGBA8() [4]uint8 {
	return [4]uint8{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
}

func unorm8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Filter selects how the sampler reads between texels.
type Filter uint8

const (
	// FilterLinear blends the four nearest texels.
	FilterLinear Filter = iota

	// FilterNearest picks the nearest texel.
	FilterNearest
)

// ImageDescriptor describes an image to create.
type ImageDescriptor struct {
	Label  string
	Width  int
	Height int
	Format Format
}

// Validate reports whether the descriptor can be created.
func (d ImageDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: image %q is %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	return nil
}

// PipelineDescriptor describes the full-screen compositor pipeline.
//
// The pipeline draws QuadVertices and samples Atlas through a
// clamp-to-edge sampler using Filter. It is immutable after creation.
type PipelineDescriptor struct {
	Label        string
	Atlas        Image
	Filter       Filter
	TargetFormat Format
}

// SurfaceDescriptor describes a display surface.
type SurfaceDescriptor struct {
	Label  string
	Width  int
	Height int
	Format Format
}

// Image is a GPU-resident image created by a Device.
type Image interface {
	Width() int
	Height() int
	Format() Format
}

// Pipeline is a compiled compositor pipeline bound to one atlas image.
type Pipeline interface {
	Label() string
}

// Target is the display image for one render tick. It is valid only
// between Surface.Acquire and Surface.Present.
type Target interface {
	Width() int
	Height() int
	Format() Format
}

// Surface is a display surface the render loop draws to.
type Surface interface {
	// Acquire returns the target for the current tick.
	Acquire() (Target, error)

	// Present hands the drawn target to the display.
	Present(Target) error

	// Size returns the surface dimensions.
	Size() (width, height int)

	// Release destroys the surface resources.
	Release()
}

// Snapshotter is implemented by surfaces that can read back the last
// presented image.
type Snapshotter interface {
	Snapshot() (*image.RGBA, error)
}

// Device is the GPU capability the compositor needs.
//
// Devices are not safe for concurrent use. The wall serializes every call
// through a single execution queue, which also provides the ordering
// between copies and draws.
type Device interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// CreateImage creates an image usable as a copy destination and as a
	// sampled texture.
	CreateImage(desc ImageDescriptor) (Image, error)

	// CreatePipeline compiles the compositor pipeline for an atlas.
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)

	// CreateSurface creates an offscreen display surface.
	CreateSurface(desc SurfaceDescriptor) (Surface, error)

	// CopyRegionIntoImage copies every pixel of src into dst with src's top
	// left corner at origin. The whole source rectangle must fit inside
	// dst, otherwise ErrRegionOutOfBounds is returned and dst is untouched.
	CopyRegionIntoImage(dst Image, origin image.Point, src *image.RGBA) error

	// Draw runs one compositor pass into target: clear to clear, bind the
	// pipeline and its atlas, draw the six quad vertices, then submit.
	Draw(target Target, p Pipeline, clear Color) error

	// DestroyPipeline releases a pipeline.
	DestroyPipeline(p Pipeline)

	// DestroyImage releases an image.
	DestroyImage(img Image)

	// Close releases the device. Objects must be destroyed first.
	Close()
}

// CheckCopy validates a copy of a size x size region to origin inside an
// image of the given bounds.
func CheckCopy(imgW, imgH int, origin image.Point, size image.Point) error {
	r := image.Rectangle{Min: origin, Max: origin.Add(size)}
	if size.X < 0 || size.Y < 0 || !r.In(image.Rect(0, 0, imgW, imgH)) {
		return fmt.Errorf("%w: %v in %dx%d", ErrRegionOutOfBounds, r, imgW, imgH)
	}
	return nil
}
