// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Mailbox is a single-slot, latest-wins Source.
//
// Producers call Publish from any goroutine; it never blocks. When a frame is
// published before the previous one was consumed, the previous frame is
// released and counted as dropped. One consumer pulls frames with Next.
//
// Close ends the stream. A frame published before Close is still delivered;
// after that Next returns ErrEnded.
type Mailbox struct {
	mu     sync.Mutex
	slot   *Frame
	closed bool
	notify chan struct{}

	seq       atomic.Uint64
	published atomic.Uint64
	dropped   atomic.Uint64
	consumed  atomic.Uint64
	lastSeq   atomic.Uint64
	lastAt    atomic.Int64
}

// NewMailbox returns an empty, open mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Publish stores f as the newest frame. If f has no sequence number, the
// mailbox assigns one. Publishing to a closed mailbox releases f and
// returns false.
func (m *Mailbox) Publish(f *Frame) bool {
	if f == nil {
		return false
	}
	if f.Seq == 0 {
		f.Seq = m.seq.Add(1)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		f.Release()
		return false
	}
	old := m.slot
	m.slot = f
	m.mu.Unlock()

	m.published.Add(1)
	if old != nil {
		m.dropped.Add(1)
		old.Release()
	}

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// Next returns the newest unconsumed frame, blocking until one is
// published, the mailbox is closed or ctx is done.
func (m *Mailbox) Next(ctx context.Context) (*Frame, error) {
	for {
		m.mu.Lock()
		if f := m.slot; f != nil {
			m.slot = nil
			m.mu.Unlock()
			m.consumed.Add(1)
			m.lastSeq.Store(f.Seq)
			m.lastAt.Store(time.Now().UnixNano())
			return f, nil
		}
		if m.closed {
			m.mu.Unlock()
			return nil, ErrEnded
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close ends the stream. It is safe to call more than once.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (m *Mailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MailboxStats is a snapshot of mailbox counters.
type MailboxStats struct {
	Published uint64
	Dropped   uint64
	Consumed  uint64

	// LastSeq is the sequence number of the last consumed frame.
	LastSeq uint64

	// LastConsumedAt is zero until the first frame is consumed.
	LastConsumedAt time.Time
}

// Stats returns the current counters.
func (m *Mailbox) Stats() MailboxStats {
	s := MailboxStats{
		Published: m.published.Load(),
		Dropped:   m.dropped.Load(),
		Consumed:  m.consumed.Load(),
		LastSeq:   m.lastSeq.Load(),
	}
	if ns := m.lastAt.Load(); ns != 0 {
		s.LastConsumedAt = time.Unix(0, ns)
	}
	return s
}

// Dropped returns the number of frames overwritten before being consumed.
func (m *Mailbox) Dropped() uint64 {
	return m.dropped.Load()
}
