package wgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment required by texture-to-buffer
// copies.
const copyPitchAlignment = 256

// OffscreenSurface renders into a texture that is read back on demand.
//
// The surface keeps a single render texture. Acquire hands it out as a
// Target and Present marks it complete; Snapshot copies the presented image
// to the CPU. Like the device, a surface is not safe for concurrent use.
type OffscreenSurface struct {
	dev    *Device
	label  string
	width  int
	height int
	format backend.Format

	texture hal.Texture
	target  *Target

	acquired  bool
	presented uint64
}

// NewOffscreenSurface creates a surface of the given size and format on d.
func NewOffscreenSurface(d *Device, desc backend.SurfaceDescriptor) (*OffscreenSurface, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: surface %q is %dx%d",
			backend.ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	label := desc.Label
	if label == "" {
		label = "camwall_surface"
	}
	tex, view, err := d.createTexture(label, desc.Width, desc.Height, format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return nil, err
	}
	return &OffscreenSurface{
		dev:     d,
		label:   label,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		texture: tex,
		target:  NewTarget(view, desc.Width, desc.Height, desc.Format),
	}, nil
}

// Acquire returns the render target.
func (s *OffscreenSurface) Acquire() (backend.Target, error) {
	if s.texture == nil {
		return nil, backend.ErrDeviceClosed
	}
	if s.acquired {
		return nil, backend.ErrTargetOutstanding
	}
	s.acquired = true
	return s.target, nil
}

// Present completes the frame rendered into t.
func (s *OffscreenSurface) Present(t backend.Target) error {
	if t != backend.Target(s.target) {
		return fmt.Errorf("%w: target %T", backend.ErrForeignObject, t)
	}
	if !s.acquired {
		return fmt.Errorf("wgpu: present without acquire")
	}
	s.acquired = false
	s.presented++
	return nil
}

// Size returns the surface dimensions.
func (s *OffscreenSurface) Size() (width, height int) {
	return s.width, s.height
}

// Format returns the surface pixel format.
func (s *OffscreenSurface) Format() backend.Format { return s.format }

// Presented returns the number of presented frames.
func (s *OffscreenSurface) Presented() uint64 { return s.presented }

// Snapshot reads the last presented image back in RGBA order.
// It submits GPU work, so it must run where other device calls run.
func (s *OffscreenSurface) Snapshot() (*image.RGBA, error) {
	if s.texture == nil {
		return nil, backend.ErrDeviceClosed
	}
	if s.presented == 0 {
		return nil, backend.ErrNothingPresented
	}

	w, h := uint32(s.width), uint32(s.height) //nolint:gosec // validated at creation
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	bufSize := uint64(alignedBytesPerRow) * uint64(h)

	device := s.dev.device
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: s.label + "_staging",
		Size:  bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	err = s.dev.submit("camwall_snapshot", func(encoder hal.CommandEncoder) {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: s.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(s.texture, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: s.texture, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: s.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return nil, err
	}

	mapping, err := device.MapBuffer(staging, 0, bufSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), bufSize)
	img := unpackRows(readback, s.width, s.height, int(alignedBytesPerRow), s.format)
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return img, nil
}

// unpackRows strips row padding and converts BGRA to RGBA when needed.
func unpackRows(data []byte, w, h, pitch int, format backend.Format) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	row := w * 4
	for y := range h {
		copy(out.Pix[y*out.Stride:y*out.Stride+row], data[y*pitch:y*pitch+row])
	}
	if format == backend.FormatBGRA8 {
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	return out
}

// Release destroys the surface texture.
func (s *OffscreenSurface) Release() {
	if s.target != nil && s.target.view != nil {
		s.dev.device.DestroyTextureView(s.target.view)
		s.target.view = nil
	}
	if s.texture != nil {
		s.dev.device.DestroyTexture(s.texture)
		s.texture = nil
	}
}
