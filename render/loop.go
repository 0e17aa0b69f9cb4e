// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/camwall/backend"
)

// ErrLoopRunning is returned by Run when the loop is already rendering.
var ErrLoopRunning = errors.New("render: loop already running")

// State is the render loop state.
type State int32

const (
	// Idle means no tick is in progress: the loop is waiting for the next
	// refresh, or is not running at all.
	Idle State = iota

	// Rendering means a tick is being issued.
	Rendering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Rendering:
		return "Rendering"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// TickFunc renders one frame.
type TickFunc func(ctx context.Context) error

// Loop issues one tick per refresh and counts ticks across runs.
type Loop struct {
	running  atomic.Bool
	inTick   atomic.Int32
	ticks    atomic.Uint64
	failed   atomic.Uint64
	lastTick atomic.Int64
}

// NewLoop returns an idle loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Run waits for each refresh in Idle and issues one tick in Rendering,
// until ctx is done. Tick errors are logged and counted; they do not stop the loop.
// Run returns ctx.Err() or the error of the refresh source.
func (l *Loop) Run(ctx context.Context, refresh Refresh, tick TickFunc) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	slogger().Debug("render loop started")
	for {
		if err := refresh.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				slogger().Warn("refresh source failed", "err", err)
			}
			return err
		}
		if err := l.Tick(ctx, tick); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Tick runs a single tick outside the refresh schedule and counts it.
func (l *Loop) Tick(ctx context.Context, tick TickFunc) error {
	l.inTick.Add(1)
	err := tick(ctx)
	l.inTick.Add(-1)
	l.ticks.Add(1)
	l.lastTick.Store(time.Now().UnixNano())
	if err != nil {
		l.failed.Add(1)
		if ctx.Err() == nil {
			slogger().Warn("render tick failed", "tick", l.ticks.Load(), "err", err)
		}
	}
	return err
}

// State returns Rendering while a tick is in progress and Idle otherwise.
func (l *Loop) State() State {
	if l.inTick.Load() > 0 {
		return Rendering
	}
	return Idle
}

// Running reports whether Run is active.
func (l *Loop) Running() bool { return l.running.Load() }

// LoopStats is a snapshot of loop counters.
type LoopStats struct {
	State   State
	Running bool
	Ticks  uint64
	Failed uint64

	// LastTick is zero before the first tick.
	LastTick time.Time
}

// Stats returns the current counters.
func (l *Loop) Stats() LoopStats {
	s := LoopStats{
		State:   l.State(),
		Running: l.Running(),
		Ticks:   l.ticks.Load(),
		Failed:  l.failed.Load(),
	}
	if ns := l.lastTick.Load(); ns != 0 {
		s.LastTick = time.Unix(0, ns)
	}
	return s
}

// DrawFrame renders one frame: acquire the surface target, clear it, draw
// the compositor quad and present. The target is presented even if the draw
// fails so the surface stays usable.
func DrawFrame(dev backend.Device, surface backend.Surface, p backend.Pipeline, clear backend.Color) error {
	target, err := surface.Acquire()
	if err != nil {
		return fmt.Errorf("acquire target: %w", err)
	}
	drawErr := dev.Draw(target, p, clear)
	if err := surface.Present(target); err != nil {
		return errors.Join(drawErr, fmt.Errorf("present: %w", err))
	}
	if drawErr != nil {
		return fmt.Errorf("draw: %w", drawErr)
	}
	return nil
}
