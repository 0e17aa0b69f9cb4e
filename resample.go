package camwall

import (
	"fmt"
	"image"

	"github.com/gogpu/camwall/frame"
	xdraw "golang.org/x/image/draw"
)

// resampler fits frames to a cell extent. It reuses one scratch image, so a
// resampler must not be shared between goroutines and a fitted image is only
// valid until the next call.
type resampler struct {
	policy  ResamplePolicy
	interp  xdraw.Interpolator
	extent  image.Point
	scratch *image.RGBA
}

func newResampler(extent image.Point, policy ResamplePolicy, filter ResampleFilter) *resampler {
	return &resampler{
		policy: policy,
		interp: filter.interpolator(),
		extent: extent,
	}
}

// fit returns f as an image of exactly the cell extent. Matching frames are
// returned without copying.
func (r *resampler) fit(f *frame.Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrFrameRejected)
	}
	src := f.Image()
	if f.Width == r.extent.X && f.Height == r.extent.Y {
		return src, nil
	}
	if r.policy == ResampleReject {
		return nil, fmt.Errorf("%w: frame is %dx%d, cell is %dx%d",
			ErrFrameRejected, f.Width, f.Height, r.extent.X, r.extent.Y)
	}

	if r.scratch == nil {
		r.scratch = image.NewRGBA(image.Rectangle{Max: r.extent})
	}
	r.interp.Scale(r.scratch, r.scratch.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return r.scratch, nil
}
