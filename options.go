package camwall

import (
	"fmt"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/camwall/frame"
	"github.com/gogpu/camwall/internal/queue"
	xdraw "golang.org/x/image/draw"
)

// DefaultClearColor is the color a render pass clears the target to before
// drawing the atlas.
var DefaultClearColor = backend.Color{R: 1, G: 0.5, B: 0.5, A: 1}

// ResamplePolicy decides what happens to a frame whose size differs from its
// cell.
type ResamplePolicy int

const (
	// ResampleScale scales mismatched frames to the cell extent.
	ResampleScale ResamplePolicy = iota

	// ResampleReject drops mismatched frames. The cell keeps its previous
	// content and the frame is counted as rejected.
	ResampleReject
)

// String returns the policy name.
func (p ResamplePolicy) String() string {
	switch p {
	case ResampleScale:
		return "scale"
	case ResampleReject:
		return "reject"
	default:
		return fmt.Sprintf("ResamplePolicy(%d)", int(p))
	}
}

// ResampleFilter selects the interpolator used by ResampleScale.
type ResampleFilter int

const (
	// FilterApproxBiLinear is fast bilinear-like scaling.
	FilterApproxBiLinear ResampleFilter = iota

	// FilterBiLinear is exact bilinear scaling.
	FilterBiLinear

	// FilterCatmullRom is the slowest and sharpest filter.
	FilterCatmullRom

	// FilterNearest picks the nearest source pixel.
	FilterNearest
)

// String returns the filter name.
func (f ResampleFilter) String() string {
	switch f {
	case FilterApproxBiLinear:
		return "approx-bilinear"
	case FilterBiLinear:
		return "bilinear"
	case FilterCatmullRom:
		return "catmull-rom"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("ResampleFilter(%d)", int(f))
	}
}

// ParseResampleFilter parses a filter name as returned by String.
func ParseResampleFilter(s string) (ResampleFilter, error) {
	for f := FilterApproxBiLinear; f <= FilterNearest; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("camwall: unknown resample filter %q", s)
}

func (f ResampleFilter) interpolator() xdraw.Interpolator {
	switch f {
	case FilterBiLinear:
		return xdraw.BiLinear
	case FilterCatmullRom:
		return xdraw.CatmullRom
	case FilterNearest:
		return xdraw.NearestNeighbor
	default:
		return xdraw.ApproxBiLinear
	}
}

// Option configures a Wall during creation.
//
// Example:
//
//	w, err := camwall.New(dev, camwall.DefaultConfig(),
//	    camwall.WithResamplePolicy(camwall.ResampleReject),
//	)
type Option func(*options)

type options struct {
	clear        backend.Color
	policy       ResamplePolicy
	filter       ResampleFilter
	queueDepth   int
	targetFormat backend.Format
	formatSet    bool
	ownDevice    bool
	forward      ForwardFunc
}

func defaultOptions() options {
	return options{
		clear:      DefaultClearColor,
		policy:     ResampleScale,
		filter:     FilterApproxBiLinear,
		queueDepth: queue.DefaultDepth,
	}
}

// WithClearColor sets the render pass clear color.
func WithClearColor(c backend.Color) Option {
	return func(o *options) {
		o.clear = c
	}
}

// WithResamplePolicy sets how frames that do not match their cell are
// handled. The default is ResampleScale.
func WithResamplePolicy(p ResamplePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithResampleFilter sets the interpolator used when scaling frames.
func WithResampleFilter(f ResampleFilter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// WithQueueDepth sets the number of device commands that may wait on the
// execution queue before submitters block.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}

// WithTargetFormat sets the display format the pipeline renders to.
// By default it is the device's preferred surface format, or RGBA8.
func WithTargetFormat(f backend.Format) Option {
	return func(o *options) {
		o.targetFormat = f
		o.formatSet = true
	}
}

// ForwardFunc receives every frame a writer takes from stream id's source,
// after the frame was copied into its cell or rejected. f is released when
// the call returns; Clone it to keep it.
type ForwardFunc func(id int, f *frame.Frame)

// WithForward passes each frame on to fn once the writer is done with it,
// so the wall can sit in the middle of a frame pipeline.
func WithForward(fn ForwardFunc) Option {
	return func(o *options) {
		o.forward = fn
	}
}

// WithOwnedDevice makes Close close the device as well.
func WithOwnedDevice() Option {
	return func(o *options) {
		o.ownDevice = true
	}
}
