// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/gogpu/camwall/backend"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

var clearColor = backend.Color{R: 1, G: 0.5, B: 0.5, A: 1}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice(2)
	t.Cleanup(d.Close)
	return d
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// setup creates an atlas, a pipeline and a surface.
func setup(t *testing.T, d *Device, atlasW, atlasH, dispW, dispH int, filter backend.Filter, format backend.Format) (backend.Image, backend.Pipeline, *OffscreenSurface) {
	t.Helper()
	atlas, err := d.CreateImage(backend.ImageDescriptor{Label: "atlas", Width: atlasW, Height: atlasH})
	if err != nil {
		t.Fatalf("CreateImage() = %v", err)
	}
	p, err := d.CreatePipeline(backend.PipelineDescriptor{Label: "quad", Atlas: atlas, Filter: filter, TargetFormat: format})
	if err != nil {
		t.Fatalf("CreatePipeline() = %v", err)
	}
	s, err := d.CreateSurface(backend.SurfaceDescriptor{Width: dispW, Height: dispH, Format: format})
	if err != nil {
		t.Fatalf("CreateSurface() = %v", err)
	}
	return atlas, p, s.(*OffscreenSurface)
}

func tick(t *testing.T, d *Device, p backend.Pipeline, s *OffscreenSurface) *image.RGBA {
	t.Helper()
	target, err := s.Acquire()
	if err != nil {
		t.Fatalf("Acquire() = %v", err)
	}
	if err := d.Draw(target, p, clearColor); err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	if err := s.Present(target); err != nil {
		t.Fatalf("Present() = %v", err)
	}
	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() = %v", err)
	}
	return img
}

func assertUniform(t *testing.T, img *image.RGBA, want color.RGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDeviceName(t *testing.T) {
	d := newTestDevice(t)
	if d.Name() != "software" {
		t.Errorf("Name() = %q, want software", d.Name())
	}
	if !backend.IsRegistered(backend.BackendSoftware) {
		t.Error("software backend not registered")
	}
}

func TestSolidRedEverywhere(t *testing.T) {
	d := newTestDevice(t)
	for _, filter := range []backend.Filter{backend.FilterLinear, backend.FilterNearest} {
		atlas, p, s := setup(t, d, 320, 240, 173, 311, filter, backend.FormatRGBA8)
		if err := d.CopyRegionIntoImage(atlas, image.Pt(0, 0), solid(320, 240, red)); err != nil {
			t.Fatal(err)
		}
		assertUniform(t, tick(t, d, p, s), red)
	}
}

func TestIdentityMapping(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 64, 48, 64, 48, backend.FilterLinear, backend.FormatRGBA8)

	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := range 48 {
		for x := range 64 {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: uint8(x ^ y), A: 255})
		}
	}
	if err := d.CopyRegionIntoImage(atlas, image.Point{}, src); err != nil {
		t.Fatal(err)
	}
	got := tick(t, d, p, s)
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("display does not reproduce the atlas when sizes match")
	}
}

func TestCellPlacement(t *testing.T) {
	d := newTestDevice(t)
	// Two cells side by side; the right one is red.
	atlas, p, s := setup(t, d, 20, 10, 20, 10, backend.FilterNearest, backend.FormatRGBA8)
	if err := d.CopyRegionIntoImage(atlas, image.Pt(10, 0), solid(10, 10, red)); err != nil {
		t.Fatal(err)
	}
	img := tick(t, d, p, s)
	if got := img.RGBAAt(15, 5); got != red {
		t.Errorf("right cell = %v, want red", got)
	}
	if got := img.RGBAAt(4, 5); got != (color.RGBA{}) {
		t.Errorf("left cell = %v, want initial content", got)
	}
}

func TestIdempotentTicks(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 40, 30, 97, 53, backend.FilterLinear, backend.FormatRGBA8)

	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 31)
	}
	if err := d.CopyRegionIntoImage(atlas, image.Point{}, src); err != nil {
		t.Fatal(err)
	}
	first := tick(t, d, p, s)
	second := tick(t, d, p, s)
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("two ticks without writes differ")
	}
}

func TestLastWriteWins(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 32, 24, 32, 24, backend.FilterLinear, backend.FormatRGBA8)
	if err := d.CopyRegionIntoImage(atlas, image.Point{}, solid(32, 24, red)); err != nil {
		t.Fatal(err)
	}
	if err := d.CopyRegionIntoImage(atlas, image.Point{}, solid(32, 24, blue)); err != nil {
		t.Fatal(err)
	}
	assertUniform(t, tick(t, d, p, s), blue)
}

func TestCopyOutOfBoundsUntouched(t *testing.T) {
	d := newTestDevice(t)
	atlas, _, _ := setup(t, d, 16, 16, 1, 1, backend.FilterLinear, backend.FormatRGBA8)

	err := d.CopyRegionIntoImage(atlas, image.Pt(10, 10), solid(8, 8, red))
	if !errors.Is(err, backend.ErrRegionOutOfBounds) {
		t.Fatalf("CopyRegionIntoImage() = %v, want ErrRegionOutOfBounds", err)
	}
	for _, b := range atlas.(*Image).pix {
		if b != 0 {
			t.Fatal("rejected copy modified the atlas")
		}
	}
}

func TestCopySubImageSource(t *testing.T) {
	d := newTestDevice(t)
	atlas, _, _ := setup(t, d, 4, 4, 1, 1, backend.FilterLinear, backend.FormatRGBA8)

	big := solid(8, 8, blue)
	draw.Draw(big, image.Rect(2, 2, 4, 4), image.NewUniform(red), image.Point{}, draw.Src)
	if err := d.CopyRegionIntoImage(atlas, image.Pt(1, 1), big.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)); err != nil {
		t.Fatal(err)
	}
	got := atlas.(*Image).RGBA()
	if got.RGBAAt(1, 1) != red || got.RGBAAt(2, 2) != red || got.RGBAAt(3, 3) != (color.RGBA{}) {
		t.Errorf("sub-image copy misplaced: %v %v %v", got.RGBAAt(1, 1), got.RGBAAt(2, 2), got.RGBAAt(3, 3))
	}
}

func TestBGRATarget(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 8, 8, 8, 8, backend.FilterLinear, backend.FormatBGRA8)
	if err := d.CopyRegionIntoImage(atlas, image.Point{}, solid(8, 8, red)); err != nil {
		t.Fatal(err)
	}
	img := tick(t, d, p, s)
	assertUniform(t, img, red)
	if s.back.pix[2] != 255 || s.back.pix[0] != 0 {
		t.Errorf("BGRA target bytes = %v, want red in byte 2", s.back.pix[:4])
	}
}

func TestDrawFormatMismatch(t *testing.T) {
	d := newTestDevice(t)
	_, p, _ := setup(t, d, 8, 8, 8, 8, backend.FilterLinear, backend.FormatRGBA8)
	s, err := NewOffscreenSurface(backend.SurfaceDescriptor{Width: 8, Height: 8, Format: backend.FormatBGRA8})
	if err != nil {
		t.Fatal(err)
	}
	target, _ := s.Acquire()
	if err := d.Draw(target, p, clearColor); !errors.Is(err, backend.ErrInvalidDescriptor) {
		t.Errorf("Draw() = %v, want ErrInvalidDescriptor", err)
	}
}

func TestForeignObjects(t *testing.T) {
	d1, d2 := newTestDevice(t), newTestDevice(t)
	atlas, p, s := setup(t, d1, 8, 8, 8, 8, backend.FilterLinear, backend.FormatRGBA8)

	if err := d2.CopyRegionIntoImage(atlas, image.Point{}, solid(1, 1, red)); !errors.Is(err, backend.ErrForeignObject) {
		t.Errorf("copy into foreign image = %v", err)
	}
	target, _ := s.Acquire()
	if err := d2.Draw(target, p, clearColor); !errors.Is(err, backend.ErrForeignObject) {
		t.Errorf("draw with foreign pipeline = %v", err)
	}
	if _, err := d2.CreatePipeline(backend.PipelineDescriptor{Atlas: atlas}); !errors.Is(err, backend.ErrForeignObject) {
		t.Errorf("pipeline over foreign atlas = %v", err)
	}
}

func TestDestroyedAtlas(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 8, 8, 8, 8, backend.FilterLinear, backend.FormatRGBA8)
	d.DestroyPipeline(p)
	d.DestroyImage(atlas)

	if err := d.CopyRegionIntoImage(atlas, image.Point{}, solid(1, 1, red)); !errors.Is(err, backend.ErrInvalidDescriptor) {
		t.Errorf("copy into destroyed image = %v", err)
	}
	target, _ := s.Acquire()
	if err := d.Draw(target, p, clearColor); !errors.Is(err, backend.ErrInvalidDescriptor) {
		t.Errorf("draw with destroyed atlas = %v", err)
	}
}

func TestClosedDevice(t *testing.T) {
	d := NewDevice(1)
	d.Close()
	d.Close()
	if _, err := d.CreateImage(backend.ImageDescriptor{Width: 1, Height: 1}); !errors.Is(err, backend.ErrDeviceClosed) {
		t.Errorf("CreateImage() after Close = %v", err)
	}
	if _, err := d.CreateSurface(backend.SurfaceDescriptor{Width: 1, Height: 1}); !errors.Is(err, backend.ErrDeviceClosed) {
		t.Errorf("CreateSurface() after Close = %v", err)
	}
}

func TestCreateImageInvalid(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CreateImage(backend.ImageDescriptor{Width: 0, Height: 4}); !errors.Is(err, backend.ErrInvalidDescriptor) {
		t.Errorf("zero width = %v", err)
	}
	if _, err := d.CreateImage(backend.ImageDescriptor{Width: 4, Height: 4, Format: backend.FormatBGRA8}); !errors.Is(err, backend.ErrInvalidDescriptor) {
		t.Errorf("BGRA atlas = %v", err)
	}
}

func TestCounters(t *testing.T) {
	d := newTestDevice(t)
	atlas, p, s := setup(t, d, 4, 4, 4, 4, backend.FilterLinear, backend.FormatRGBA8)
	_ = d.CopyRegionIntoImage(atlas, image.Point{}, solid(4, 4, red))
	tick(t, d, p, s)
	if copies, draws := d.Counters(); copies != 1 || draws != 1 {
		t.Errorf("Counters() = %d, %d, want 1, 1", copies, draws)
	}
}

func BenchmarkDraw1600x1200(b *testing.B) {
	d := NewDevice(0)
	defer d.Close()
	atlas, _ := d.CreateImage(backend.ImageDescriptor{Width: 1600, Height: 1200})
	p, _ := d.CreatePipeline(backend.PipelineDescriptor{Atlas: atlas})
	s, _ := NewOffscreenSurface(backend.SurfaceDescriptor{Width: 1600, Height: 1200})
	for b.Loop() {
		target, _ := s.Acquire()
		_ = d.Draw(target, p, clearColor)
		_ = s.Present(target)
	}
}
