// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package queue provides the execution queue that owns the GPU device.
//
// Every device command (region copies, draws, readbacks) runs on a single
// goroutine locked to its OS thread, in the order the commands were issued.
// Callers never touch the device concurrently, so a command is atomic with
// respect to every other command.
package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when submitting to a closed queue.
var ErrClosed = errors.New("queue: closed")

// DefaultDepth is the number of commands that can be pending before
// submitters block.
const DefaultDepth = 64

// Func is a device command.
type Func func() error

type command struct {
	fn     Func
	result chan result
}

type result struct {
	err      error
	panicked any
}

// Queue executes commands one at a time in FIFO order.
//
// Thread safety: Queue is safe for concurrent use.
type Queue struct {
	cmds chan command
	done chan struct{}

	// mu guards closed and the send side of cmds.
	mu     sync.RWMutex
	closed bool

	executed atomic.Uint64
	failed   atomic.Uint64
}

// New starts a queue with room for depth pending commands.
// If depth is 0 or negative, DefaultDepth is used.
func New(depth int) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	q := &Queue{
		cmds: make(chan command, depth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(q.done)

	for cmd := range q.cmds {
		r := q.exec(cmd.fn)
		if cmd.result != nil {
			cmd.result <- r
		}
	}
}

func (q *Queue) exec(fn Func) (r result) {
	defer func() {
		if p := recover(); p != nil {
			r.panicked = p
			q.failed.Add(1)
		}
		q.executed.Add(1)
	}()
	if err := fn(); err != nil {
		q.failed.Add(1)
		r.err = err
	}
	return r
}

// Do runs fn on the queue and waits for it to finish.
//
// If ctx is done before fn is enqueued, fn never runs. If ctx is done while
// waiting, Do returns ctx.Err() and fn may still run. A panic in fn is
// re-raised in the caller's goroutine.
func (q *Queue) Do(ctx context.Context, fn Func) error {
	cmd := command{fn: fn, result: make(chan result, 1)}
	if err := q.enqueue(ctx, cmd); err != nil {
		return err
	}

	select {
	case r := <-cmd.result:
		if r.panicked != nil {
			panic(r.panicked)
		}
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Commit runs fn on the queue and waits for it to finish. ctx only bounds
// enqueueing: once fn is queued, Commit waits for it regardless of ctx, so
// data fn reads stays owned by the caller until fn is done. A panic in fn is
// re-raised in the caller's goroutine.
func (q *Queue) Commit(ctx context.Context, fn Func) error {
	cmd := command{fn: fn, result: make(chan result, 1)}
	if err := q.enqueue(ctx, cmd); err != nil {
		return err
	}
	r := <-cmd.result
	if r.panicked != nil {
		panic(r.panicked)
	}
	return r.err
}

// Go enqueues fn without waiting for it. Errors returned by fn are counted
// but otherwise dropped; a panic in fn is counted and swallowed.
func (q *Queue) Go(ctx context.Context, fn Func) error {
	return q.enqueue(ctx, command{fn: fn})
}

func (q *Queue) enqueue(ctx context.Context, cmd command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every command enqueued before it has run.
func (q *Queue) Flush(ctx context.Context) error {
	return q.Do(ctx, func() error { return nil })
}

// Close stops accepting commands, runs the ones already queued and waits for
// the worker to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.cmds)
	}
	q.mu.Unlock()
	<-q.done
}

// Pending returns the number of queued commands that have not started.
func (q *Queue) Pending() int {
	return len(q.cmds)
}

// Stats is a snapshot of queue counters.
type Stats struct {
	Executed uint64
	Failed   uint64
}

// Stats returns the command counters.
func (q *Queue) Stats() Stats {
	return Stats{Executed: q.executed.Load(), Failed: q.failed.Load()}
}

// String returns a short description of the queue.
func (q *Queue) String() string {
	s := q.Stats()
	return fmt.Sprintf("Queue[pending=%d executed=%d failed=%d]", q.Pending(), s.Executed, s.Failed)
}
