package wgpu

import (
	"fmt"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Image is an RGBA8 texture sampled by the compositor pipeline.
type Image struct {
	dev     *Device
	label   string
	texture hal.Texture
	view    hal.TextureView
	width   int
	height  int
}

func newImage(d *Device, desc backend.ImageDescriptor) (*Image, error) {
	tex, view, err := d.createTexture(desc.Label, desc.Width, desc.Height,
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst|gputypes.TextureUsageRenderAttachment)
	if err != nil {
		return nil, err
	}
	return &Image{
		dev:     d,
		label:   desc.Label,
		texture: tex,
		view:    view,
		width:   desc.Width,
		height:  desc.Height,
	}, nil
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Format always returns backend.FormatRGBA8.
func (img *Image) Format() backend.Format { return backend.FormatRGBA8 }

func (img *Image) destroy() {
	if img.view != nil {
		img.dev.device.DestroyTextureView(img.view)
		img.view = nil
	}
	if img.texture != nil {
		img.dev.device.DestroyTexture(img.texture)
		img.texture = nil
	}
}

// Target is a texture view a pass renders into.
type Target struct {
	view   hal.TextureView
	width  int
	height int
	format backend.Format
}

// NewTarget wraps a view owned by the caller, such as a swapchain image.
func NewTarget(view hal.TextureView, width, height int, format backend.Format) *Target {
	return &Target{view: view, width: width, height: height, format: format}
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.height }

// Format returns the target pixel format.
func (t *Target) Format() backend.Format { return t.format }

func (d *Device) createTexture(label string, w, h int, format gputypes.TextureFormat,
	usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(w), //nolint:gosec // validated by descriptor
			Height:             uint32(h), //nolint:gosec // validated by descriptor
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %q: %w", label, err)
	}
	return tex, view, nil
}
