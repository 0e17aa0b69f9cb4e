package wgpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Register the Vulkan HAL backend for Open.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// BackendNoop is the registry name of the noop HAL device.
const BackendNoop = "wgpu-noop"

// Errors returned by the wgpu backend.
var (
	// ErrNoAdapter is returned when no usable GPU adapter exists.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter")

	// ErrGPUTimeout is returned when a submission does not complete in time.
	ErrGPUTimeout = errors.New("wgpu: timed out waiting for GPU")
)

// submitTimeout bounds every wait for a submission.
var submitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 50 * time.Microsecond

func init() {
	backend.Register(backend.BackendWGPU, func() (backend.Device, error) {
		return Open()
	})
	backend.Register(BackendNoop, func() (backend.Device, error) {
		return OpenNoop()
	})
}

// Device implements backend.Device on a HAL device and queue.
type Device struct {
	name     string
	adapter  string
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance

	// external devices belong to the host and are never destroyed here.
	external      bool
	surfaceFormat backend.Format

	closed bool
}

// Open opens the best Vulkan adapter: discrete GPU, then integrated GPU,
// then whatever the driver lists first.
func Open() (*Device, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoAdapter, err)
	}
	return openInstance(instance, backend.BackendWGPU)
}

// OpenNoop opens the HAL noop device.
func OpenNoop() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create noop instance: %w", ErrNoAdapter, err)
	}
	return openInstance(instance, BackendNoop)
}

func openInstance(instance hal.Instance, name string) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoAdapter, err)
	}

	d := &Device{
		name:          name,
		adapter:       selected.Info.Name,
		device:        openDev.Device,
		queue:         openDev.Queue,
		instance:      instance,
		surfaceFormat: backend.FormatRGBA8,
	}
	slogger().Info("wgpu: device opened", "backend", name, "adapter", d.adapter)
	return d, nil
}

// NewDeviceFromHAL wraps a device and queue owned by the caller.
// Close releases only what this package created.
func NewDeviceFromHAL(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil HAL device or queue", ErrNoAdapter)
	}
	return &Device{
		name:          backend.BackendWGPU,
		device:        device,
		queue:         queue,
		external:      true,
		surfaceFormat: backend.FormatRGBA8,
	}, nil
}

// Name returns the registry name of the device ("wgpu" or "wgpu-noop").
func (d *Device) Name() string { return d.name }

// Adapter returns the adapter name, empty for external devices.
func (d *Device) Adapter() string { return d.adapter }

// SurfaceFormat returns the preferred display format. For provider devices
// it is the host's swapchain format.
func (d *Device) SurfaceFormat() backend.Format { return d.surfaceFormat }

// SetLogger sets the package logger. It is called by camwall.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// CreateImage creates an RGBA8 atlas texture and its view.
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
	return newImage(d, desc)
}

// CreatePipeline compiles the compositor pipeline for an atlas.
func (d *Device) CreatePipeline(desc backend.PipelineDescriptor) (backend.Pipeline, error) {
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	atlas, err := d.lookupImage(desc.Atlas)
	if err != nil {
		return nil, err
	}
	return newPipeline(d, atlas, desc)
}

// CreateSurface creates an offscreen surface backed by a texture.
func (d *Device) CreateSurface(desc backend.SurfaceDescriptor) (backend.Surface, error) {
	if d.closed {
		return nil, backend.ErrDeviceClosed
	}
	return NewOffscreenSurface(d, desc)
}

// CopyRegionIntoImage uploads src into dst at origin with Queue.WriteTexture.
func (d *Device) CopyRegionIntoImage(dst backend.Image, origin image.Point, src *image.RGBA) error {
	if d.closed {
		return backend.ErrDeviceClosed
	}
	img, err := d.lookupImage(dst)
	if err != nil {
		return err
	}
	size := src.Bounds().Size()
	if err := backend.CheckCopy(img.width, img.height, origin, size); err != nil {
		return err
	}
	if size.X == 0 || size.Y == 0 {
		return nil
	}

	w, h := uint32(size.X), uint32(size.Y) //nolint:gosec // bounded by atlas size
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  img.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(origin.X), Y: uint32(origin.Y), Z: 0}, //nolint:gosec // checked above
			Aspect:   gputypes.TextureAspectAll,
		},
		tightPixels(src),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %q: %w", img.label, err)
	}
	return nil
}

// tightPixels returns the pixels of src without row padding.
func tightPixels(src *image.RGBA) []byte {
	b := src.Bounds()
	row := b.Dx() * 4
	start := src.PixOffset(b.Min.X, b.Min.Y)
	if src.Stride == row {
		return src.Pix[start : start+row*b.Dy()]
	}
	out := make([]byte, row*b.Dy())
	for y := range b.Dy() {
		s := start + y*src.Stride
		copy(out[y*row:(y+1)*row], src.Pix[s:s+row])
	}
	return out
}

// Draw records and submits one compositor pass into target.
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
	if pl.pipeline == nil {
		return fmt.Errorf("%w: pipeline %q destroyed", backend.ErrInvalidDescriptor, pl.label)
	}
	if pl.atlas.texture == nil {
		return fmt.Errorf("%w: atlas %q destroyed", backend.ErrInvalidDescriptor, pl.atlas.label)
	}
	if t.format != pl.targetFormat {
		return fmt.Errorf("%w: target is %v, pipeline renders %v",
			backend.ErrInvalidDescriptor, t.format, pl.targetFormat)
	}

	return d.submit("camwall_tick", func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "camwall_quad_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       t.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
			}},
		})
		rp.SetPipeline(pl.pipeline)
		rp.SetBindGroup(0, pl.bindGroup, nil)
		rp.Draw(backend.QuadVertexCount, 1, 0, 0)
		rp.End()
	})
}

// submit records commands with record, submits them and waits for the GPU.
func (d *Device) submit(label string, record func(hal.CommandEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return d.waitSubmission(index)
}

// waitSubmission polls the queue until submission index has completed.
func (d *Device) waitSubmission(index uint64) error {
	deadline := time.Now().Add(submitTimeout)
	for d.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrGPUTimeout, index)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// DestroyPipeline releases the pipeline's GPU objects.
func (d *Device) DestroyPipeline(p backend.Pipeline) {
	if pl, ok := p.(*Pipeline); ok && pl.dev == d {
		pl.destroy()
	}
}

// DestroyImage releases the atlas texture and view.
func (d *Device) DestroyImage(img backend.Image) {
	if i, ok := img.(*Image); ok && i.dev == d {
		i.destroy()
	}
}

// Close releases the HAL device and instance of devices this package
// opened. External devices are left to their owner. It is safe to call more
// than once.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	slogger().Info("wgpu: device closed", "backend", d.name)
}

func (d *Device) lookupImage(img backend.Image) (*Image, error) {
	i, ok := img.(*Image)
	if !ok || i.dev != d {
		return nil, fmt.Errorf("%w: image %T", backend.ErrForeignObject, img)
	}
	if i.texture == nil {
		return nil, fmt.Errorf("%w: image %q destroyed", backend.ErrInvalidDescriptor, i.label)
	}
	return i, nil
}
