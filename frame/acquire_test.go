// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPatternFrames(t *testing.T) {
	p := NewPattern(PatternConfig{Stream: 3, Width: 64, Height: 48, Frames: 2})
	defer p.Stop()
	ctx := context.Background()

	for i := uint64(1); i <= 2; i++ {
		f, err := p.Next(ctx)
		if err != nil {
			t.Fatalf("Next #%d = %v", i, err)
		}
		if f.Width != 64 || f.Height != 48 {
			t.Errorf("size = %dx%d, want 64x48", f.Width, f.Height)
		}
		if f.Seq != i {
			t.Errorf("Seq = %d, want %d", f.Seq, i)
		}
		if f.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
		// Bottom-right corner is background: below the label, right of the bar.
		if got, want := f.At(63, 47), StreamColor(3); got != want {
			t.Errorf("background = %v, want %v", got, want)
		}
	}
	if _, err := p.Next(ctx); !errors.Is(err, ErrEnded) {
		t.Errorf("Next after limit = %v, want ErrEnded", err)
	}
}

func TestPatternLabelDrawn(t *testing.T) {
	p := NewPattern(PatternConfig{Stream: 0, Width: 80, Height: 40})
	f, err := p.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	dark := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			if c := f.At(x, y); c.R == 0 && c.G == 0 && c.B == 0 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no label pixels found in the top-left corner")
	}
}

func TestPatternPacedCancel(t *testing.T) {
	p := NewPattern(PatternConfig{Width: 8, Height: 8, FPS: 0.5})
	defer p.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() = %v, want DeadlineExceeded", err)
	}
}

func TestStreamColorStable(t *testing.T) {
	if StreamColor(1) == StreamColor(2) {
		t.Error("adjacent streams share a color")
	}
	if StreamColor(-4) != StreamColor(4) {
		t.Error("negative id not folded")
	}
	if StreamColor(5).A != 255 {
		t.Error("stream color not opaque")
	}
}

func TestPatternCameraAcquire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srcs, err := PatternCamera{Frames: 1}.Acquire(ctx, StreamConfig{Width: 64, Height: 48}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 4 {
		t.Fatalf("got %d sources, want 4", len(srcs))
	}
	for i, s := range srcs {
		f, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("source %d: %v", i, err)
		}
		if got := f.At(63, 47); got != StreamColor(i) {
			t.Errorf("source %d background = %v, want %v", i, got, StreamColor(i))
		}
		if _, err := s.Next(ctx); !errors.Is(err, ErrEnded) {
			t.Errorf("source %d second Next = %v, want ErrEnded", i, err)
		}
	}
}

func TestPatternCameraInvalid(t *testing.T) {
	ctx := context.Background()
	cam := PatternCamera{}
	if _, err := cam.Acquire(ctx, StreamConfig{Width: 1, Height: 1, Audio: true}, 1); !errors.Is(err, ErrAudioUnsupported) {
		t.Errorf("audio request = %v, want ErrAudioUnsupported", err)
	}
	if _, err := cam.Acquire(ctx, StreamConfig{Width: 1, Height: 1}, 0); err == nil {
		t.Error("zero streams accepted")
	}
	if _, err := cam.Acquire(ctx, StreamConfig{}, 1); err == nil {
		t.Error("zero size accepted")
	}
}

func TestBroadcastCopiesToEveryMailbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orig := Solid(2, 2, red)
	boxes := Broadcast(ctx, Slice(orig), 3)

	seen := make(map[*Frame]bool)
	for i, b := range boxes {
		f, err := b.Next(ctx)
		if err != nil {
			t.Fatalf("box %d: %v", i, err)
		}
		if f == orig || seen[f] {
			t.Errorf("box %d shares a frame", i)
		}
		seen[f] = true
		if f.At(1, 1) != red {
			t.Errorf("box %d pixel = %v", i, f.At(1, 1))
		}
		if _, err := b.Next(ctx); !errors.Is(err, ErrEnded) {
			t.Errorf("box %d after source end = %v, want ErrEnded", i, err)
		}
	}
	if !orig.Released() {
		t.Error("broadcast did not release the source frame")
	}
}

func TestBroadcastSharedCamera(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srcs, err := PatternCamera{Shared: true, Frames: 1}.Acquire(ctx, StreamConfig{Width: 8, Height: 8}, 2)
	if err != nil {
		t.Fatal(err)
	}
	a, err := srcs[0].Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := srcs[1].Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Seq != b.Seq {
		t.Errorf("shared camera seqs differ: %d vs %d", a.Seq, b.Seq)
	}
}

func TestAcquirerFunc(t *testing.T) {
	var fn Acquirer = AcquirerFunc(func(context.Context, StreamConfig, int) ([]Source, error) {
		return []Source{Empty()}, nil
	})
	srcs, err := fn.Acquire(context.Background(), StreamConfig{}, 1)
	if err != nil || len(srcs) != 1 {
		t.Errorf("Acquire() = %v, %v", srcs, err)
	}
}
