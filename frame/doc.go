// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame defines decoded video frames and the sources that produce
// them.
//
// A [Source] is a lazy, non-restartable sequence of frames for one camera
// stream. The wall pulls from it with [Source.Next]; each returned [Frame] is
// owned by the caller until it calls [Frame.Release].
//
// # Sources
//
//   - [Mailbox]: push-to-pull adaptor with latest-wins semantics. Capture
//     callbacks Publish frames, one consumer pulls the newest one.
//   - [Slice]: a finite list of frames, then [ErrEnded].
//   - [Pattern]: a synthetic camera that renders a labelled test pattern.
//   - [Broadcast]: fans one source out to N mailboxes.
//
// Camera acquisition itself is outside this package. Hosts implement
// [Acquirer] on top of their capture stack; [PatternCamera] is the built-in
// synthetic implementation used by the demo and tests.
package frame
