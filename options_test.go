package camwall

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/camwall/frame"
	"github.com/gogpu/camwall/internal/queue"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.clear != DefaultClearColor {
		t.Errorf("clear = %v, want %v", o.clear, DefaultClearColor)
	}
	if o.policy != ResampleScale || o.filter != FilterApproxBiLinear {
		t.Errorf("resampling = %v/%v", o.policy, o.filter)
	}
	if o.queueDepth != queue.DefaultDepth || o.ownDevice || o.formatSet {
		t.Errorf("defaultOptions() = %+v", o)
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithClearColor(backend.Color{G: 1, A: 1}),
		WithResamplePolicy(ResampleReject),
		WithResampleFilter(FilterCatmullRom),
		WithQueueDepth(8),
		WithQueueDepth(0),
		WithTargetFormat(backend.FormatBGRA8),
		WithOwnedDevice(),
	} {
		opt(&o)
	}
	if o.clear != (backend.Color{G: 1, A: 1}) {
		t.Errorf("clear = %v", o.clear)
	}
	if o.policy != ResampleReject || o.filter != FilterCatmullRom {
		t.Errorf("resampling = %v/%v", o.policy, o.filter)
	}
	if o.queueDepth != 8 {
		t.Errorf("queueDepth = %d, want 8 (zero ignored)", o.queueDepth)
	}
	if !o.formatSet || o.targetFormat != backend.FormatBGRA8 || !o.ownDevice {
		t.Errorf("options = %+v", o)
	}
}

func TestResampleFilterNames(t *testing.T) {
	for f := FilterApproxBiLinear; f <= FilterNearest; f++ {
		got, err := ParseResampleFilter(f.String())
		if err != nil || got != f {
			t.Errorf("ParseResampleFilter(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseResampleFilter("lanczos"); err == nil {
		t.Error("unknown filter parsed")
	}
	if ResampleReject.String() != "reject" || ResamplePolicy(7).String() != "ResamplePolicy(7)" {
		t.Error("policy names")
	}
}

func TestResamplerPassThrough(t *testing.T) {
	rs := newResampler(image.Pt(4, 3), ResampleReject, FilterNearest)
	f := frame.Solid(4, 3, red)
	img, err := rs.fit(f)
	if err != nil {
		t.Fatal(err)
	}
	if &img.Pix[0] != &f.Pix[0] {
		t.Error("matching frame was copied")
	}
}

func TestResamplerScale(t *testing.T) {
	tests := []struct {
		name   string
		filter ResampleFilter
	}{
		{"approx bilinear", FilterApproxBiLinear},
		{"bilinear", FilterBiLinear},
		{"catmull-rom", FilterCatmullRom},
		{"nearest", FilterNearest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newResampler(image.Pt(6, 4), ResampleScale, tt.filter)
			img, err := rs.fit(frame.Solid(13, 2, blue))
			if err != nil {
				t.Fatal(err)
			}
			if img.Bounds().Size() != image.Pt(6, 4) {
				t.Fatalf("size = %v", img.Bounds().Size())
			}
			if got := img.RGBAAt(3, 2); got != blue {
				t.Errorf("pixel = %v, want blue", got)
			}

			// The scratch image is reused.
			again, _ := rs.fit(frame.Solid(2, 2, red))
			if again != img || again.RGBAAt(0, 0) != red {
				t.Error("scratch image not reused")
			}
		})
	}
}

func TestResamplerRejects(t *testing.T) {
	rs := newResampler(image.Pt(4, 4), ResampleReject, FilterApproxBiLinear)
	if _, err := rs.fit(frame.Solid(5, 4, red)); !errors.Is(err, ErrFrameRejected) {
		t.Errorf("fit(5x4) = %v, want ErrFrameRejected", err)
	}
	scale := newResampler(image.Pt(4, 4), ResampleScale, FilterApproxBiLinear)
	if _, err := scale.fit(frame.New(0, 0)); !errors.Is(err, ErrFrameRejected) {
		t.Errorf("fit(empty) = %v, want ErrFrameRejected", err)
	}
}

func BenchmarkResampleVGAToCell(b *testing.B) {
	rs := newResampler(image.Pt(DefaultCellWidth, DefaultCellHeight), ResampleScale, FilterApproxBiLinear)
	f := frame.Solid(640, 480, red)
	for b.Loop() {
		_, _ = rs.fit(f)
	}
}
