// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render drives the display side of the wall.
//
// A [Loop] is a two-state machine clocked by an injected [Refresh]: Idle
// while it waits for the next refresh, Rendering while it issues a tick.
// Each refresh runs one tick; a tick acquires the display target,
// clears it, draws the compositor quad and presents ([DrawFrame]). Tick
// errors are logged and counted, and the loop keeps going until its context
// is cancelled.
//
// # Refresh sources
//
//   - [TickerRefresh]: a fixed-rate clock, standing in for vsync.
//   - [ManualRefresh]: ticks on demand; used by tests and by hosts that
//     already have a frame callback.
//   - [RefreshFunc]: adapts any function.
//
// # Usage
//
//	refresh := render.NewTickerRefresh(60)
//	defer refresh.Stop()
//
//	loop := render.NewLoop()
//	err := loop.Run(ctx, refresh, func(ctx context.Context) error {
//	    return render.DrawFrame(dev, surface, pipeline, clear)
//	})
package render
