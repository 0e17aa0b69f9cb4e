package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrProviderNoHAL is returned when a device provider does not expose its
// HAL device and queue.
var ErrProviderNoHAL = errors.New("wgpu: provider does not expose HAL types")

// halProvider is implemented by hosts that share their HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewDeviceFromProvider shares the device of a host application.
//
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The host's surface format becomes the device's
// SurfaceFormat. Close leaves the host device alive.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrProviderNoHAL
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrProviderNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrProviderNoHAL, hp.HalQueue())
	}

	format := backend.FormatRGBA8
	if sf := provider.SurfaceFormat(); sf != gputypes.TextureFormatUndefined {
		f, err := backendFormat(sf)
		if err != nil {
			return nil, err
		}
		format = f
	}

	d, err := NewDeviceFromHAL(device, queue)
	if err != nil {
		return nil, err
	}
	d.surfaceFormat = format
	slogger().Info("wgpu: sharing host device", "surface_format", format)
	return d, nil
}

// HostSurfaceConfig describes a surface whose images belong to the host,
// typically a swapchain.
type HostSurfaceConfig struct {
	Width  int
	Height int
	Format backend.Format

	// AcquireView returns the view to render the next frame into.
	AcquireView func() (hal.TextureView, error)

	// Present hands the rendered view back to the host.
	Present func(hal.TextureView) error
}

// HostSurface renders into views handed out by the host.
type HostSurface struct {
	cfg     HostSurfaceConfig
	current *Target
	closed  bool
}

// NewHostSurface creates a surface driven by cfg's callbacks.
func NewHostSurface(cfg HostSurfaceConfig) (*HostSurface, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: host surface is %dx%d",
			backend.ErrInvalidDescriptor, cfg.Width, cfg.Height)
	}
	if _, err := textureFormat(cfg.Format); err != nil {
		return nil, err
	}
	if cfg.AcquireView == nil || cfg.Present == nil {
		return nil, fmt.Errorf("%w: host surface callbacks are nil", backend.ErrInvalidDescriptor)
	}
	return &HostSurface{cfg: cfg}, nil
}

// Acquire asks the host for the next view.
func (s *HostSurface) Acquire() (backend.Target, error) {
	if s.closed {
		return nil, backend.ErrDeviceClosed
	}
	if s.current != nil {
		return nil, backend.ErrTargetOutstanding
	}
	view, err := s.cfg.AcquireView()
	if err != nil {
		return nil, fmt.Errorf("acquire host view: %w", err)
	}
	s.current = NewTarget(view, s.cfg.Width, s.cfg.Height, s.cfg.Format)
	return s.current, nil
}

// Present returns the view to the host.
func (s *HostSurface) Present(t backend.Target) error {
	if s.current == nil || t != backend.Target(s.current) {
		return fmt.Errorf("%w: target %T", backend.ErrForeignObject, t)
	}
	view := s.current.view
	s.current = nil
	return s.cfg.Present(view)
}

// Size returns the surface dimensions.
func (s *HostSurface) Size() (width, height int) {
	return s.cfg.Width, s.cfg.Height
}

// Release detaches the surface from the host. The host's views are not
// destroyed.
func (s *HostSurface) Release() {
	s.closed = true
	s.current = nil
}
