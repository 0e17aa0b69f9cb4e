// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"errors"
	"sync"
)

// Errors returned by sources.
var (
	// ErrEnded is returned by Next once the stream has no more frames.
	// It is terminal: every later call returns it too.
	ErrEnded = errors.New("frame: stream ended")

	// ErrAudioUnsupported is returned by acquirers asked for an audio track.
	ErrAudioUnsupported = errors.New("frame: audio tracks are not supported")
)

// Source is a lazy, non-restartable sequence of frames for one stream.
//
// Next blocks until a frame is available, the stream ends (ErrEnded) or ctx
// is done (ctx.Err()). The caller owns the returned frame and must Release
// it. A Source is consumed by exactly one goroutine.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Frame, error)

// Next calls fn(ctx).
func (fn SourceFunc) Next(ctx context.Context) (*Frame, error) {
	return fn(ctx)
}

// Empty returns a source that ends immediately.
func Empty() Source {
	return SourceFunc(func(context.Context) (*Frame, error) {
		return nil, ErrEnded
	})
}

// Slice returns a finite source yielding frames in order, then ErrEnded.
func Slice(frames ...*Frame) Source {
	return &sliceSource{frames: frames}
}

type sliceSource struct {
	mu     sync.Mutex
	frames []*Frame
	next   int
}

func (s *sliceSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, ErrEnded
	}
	f := s.frames[s.next]
	s.frames[s.next] = nil
	s.next++
	return f, nil
}

// Blocking returns a source that never yields and only returns when ctx is
// done. It models a camera that was granted but never delivers a frame.
func Blocking() Source {
	return SourceFunc(func(ctx context.Context) (*Frame, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}
