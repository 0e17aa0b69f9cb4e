// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"time"
)

// DefaultRefreshRate is used when a ticker is created with a rate <= 0.
const DefaultRefreshRate = 60.0

// Refresh blocks until the display is ready for the next frame.
type Refresh interface {
	// Wait returns nil at the next refresh, or ctx.Err() if ctx is done
	// first.
	Wait(ctx context.Context) error
}

// RefreshFunc adapts a function to the Refresh interface.
type RefreshFunc func(ctx context.Context) error

// Wait calls fn.
func (fn RefreshFunc) Wait(ctx context.Context) error { return fn(ctx) }

// TickerRefresh is a fixed-rate refresh clock.
//
// Refreshes missed while a tick was running are coalesced into one.
type TickerRefresh struct {
	ticker   *time.Ticker
	interval time.Duration
}

// NewTickerRefresh returns a clock firing hz times per second.
func NewTickerRefresh(hz float64) *TickerRefresh {
	if hz <= 0 {
		hz = DefaultRefreshRate
	}
	interval := time.Duration(float64(time.Second) / hz)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &TickerRefresh{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

// Wait implements Refresh.
func (r *TickerRefresh) Wait(ctx context.Context) error {
	select {
	case <-r.ticker.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval returns the time between refreshes.
func (r *TickerRefresh) Interval() time.Duration { return r.interval }

// Stop stops the clock. Wait blocks until ctx is done afterwards.
func (r *TickerRefresh) Stop() { r.ticker.Stop() }

// ManualRefresh fires only when Trigger is called.
//
// Trigger hands the refresh directly to a waiting loop, so when Trigger
// returns for the (k+1)th time the loop has finished k ticks.
type ManualRefresh struct {
	c chan struct{}
}

// NewManualRefresh returns a refresh with no pending signal.
func NewManualRefresh() *ManualRefresh {
	return &ManualRefresh{c: make(chan struct{})}
}

// Wait implements Refresh.
func (r *ManualRefresh) Wait(ctx context.Context) error {
	select {
	case <-r.c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger blocks until a waiting loop takes the refresh or ctx is done.
func (r *ManualRefresh) Trigger(ctx context.Context) error {
	select {
	case r.c <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
