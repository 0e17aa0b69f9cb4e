// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// StreamConfig is the capture request handed to an Acquirer.
type StreamConfig struct {
	Width  int
	Height int

	// Audio must be false; audio tracks are not supported.
	Audio bool

	// FPS is the requested capture rate. Zero lets the acquirer choose.
	FPS float64
}

// Acquirer grants camera streams.
//
// Acquire returns exactly n sources, one per stream id, or an error if the
// capability is unavailable (permission denied, no device). The sources stop
// when ctx is done.
type Acquirer interface {
	Acquire(ctx context.Context, cfg StreamConfig, n int) ([]Source, error)
}

// AcquirerFunc adapts a function to the Acquirer interface.
type AcquirerFunc func(ctx context.Context, cfg StreamConfig, n int) ([]Source, error)

// Acquire calls fn.
func (fn AcquirerFunc) Acquire(ctx context.Context, cfg StreamConfig, n int) ([]Source, error) {
	return fn(ctx, cfg, n)
}

// PatternCamera is an Acquirer backed by synthetic pattern sources.
//
// With Shared set it mimics a single physical camera fanned out to every
// cell: one Pattern is broadcast to n mailboxes. Otherwise each stream gets
// its own independently labelled Pattern.
type PatternCamera struct {
	Shared bool

	// Frames limits every stream. Zero means unlimited.
	Frames int
}

// Acquire implements Acquirer.
func (c PatternCamera) Acquire(ctx context.Context, cfg StreamConfig, n int) ([]Source, error) {
	if err := checkStreamConfig(cfg, n); err != nil {
		return nil, err
	}
	if c.Shared {
		src := NewPattern(PatternConfig{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
			Frames: c.Frames,
			Label:  "CAM",
		})
		boxes := Broadcast(ctx, src, n)
		out := make([]Source, n)
		for i, b := range boxes {
			out[i] = b
		}
		return out, nil
	}

	out := make([]Source, n)
	for i := range n {
		out[i] = NewPattern(PatternConfig{
			Stream: i,
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
			Frames: c.Frames,
		})
	}
	return out, nil
}

func checkStreamConfig(cfg StreamConfig, n int) error {
	if cfg.Audio {
		return ErrAudioUnsupported
	}
	if n <= 0 {
		return fmt.Errorf("frame: invalid stream count %d", n)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("frame: invalid capture size %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

// Broadcast pumps src into n mailboxes. Every mailbox receives its own copy
// of each frame, so consumers can release independently. The original frame
// is released after it is copied.
//
// The pump stops when src ends or fails, or ctx is done; then every mailbox
// is closed.
func Broadcast(ctx context.Context, src Source, n int) []*Mailbox {
	boxes := make([]*Mailbox, n)
	for i := range boxes {
		boxes[i] = NewMailbox()
	}

	var once sync.Once
	closeAll := func() {
		once.Do(func() {
			for _, b := range boxes {
				b.Close()
			}
		})
	}

	go func() {
		defer closeAll()
		for {
			f, err := src.Next(ctx)
			if err != nil {
				if !errors.Is(err, ErrEnded) && ctx.Err() == nil {
					slogger().Warn("broadcast source failed", "err", err)
				}
				return
			}
			for _, b := range boxes {
				c := f.Clone()
				b.Publish(c)
			}
			f.Release()
		}
	}()
	return boxes
}
