// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

// PathBuffer accumulates a pathname from leaf to root: writes grow backward
// from the end of a fixed-capacity buffer. Unlike a general string builder
// it never grows; a prepend that does not fit fails and the reconstruction
// as a whole is aborted, so a too-deep path can never be silently truncated.
type PathBuffer struct {
	buf []byte
	// start is both the cursor (next prepend ends at start) and the
	// remaining capacity in bytes; buf[start:] holds the accumulated
	// content.
	start int
}

// NewPathBuffer returns a PathBuffer of the given capacity.
func NewPathBuffer(capacity int) *PathBuffer {
	return &PathBuffer{
		buf:   make([]byte, capacity),
		start: capacity,
	}
}

// Reset empties the buffer for reuse.
func (b *PathBuffer) Reset() {
	b.start = len(b.buf)
}

// Cap returns the buffer capacity.
func (b *PathBuffer) Cap() int {
	return len(b.buf)
}

// Remaining returns the number of bytes still available.
func (b *PathBuffer) Remaining() int {
	return b.start
}

// TryPrepend prepends p and reports whether it fit. On failure the buffer is
// unchanged.
func (b *PathBuffer) TryPrepend(p []byte) bool {
	if b.start < len(p) {
		return false
	}
	b.start -= len(p)
	copy(b.buf[b.start:], p)
	return true
}

// TryPrependByte prepends a single byte and reports whether it fit.
func (b *PathBuffer) TryPrependByte(c byte) bool {
	if b.start < 1 {
		return false
	}
	b.start--
	b.buf[b.start] = c
	return true
}

// pokeBefore writes c into the byte just ahead of the cursor without
// consuming capacity. The caller must have checked Remaining() >= 1; the
// byte is either overwritten by a later prepend or becomes part of the
// result through view.
func (b *PathBuffer) pokeBefore(c byte) {
	b.buf[b.start-1] = c
}

// view returns the buffer content between the two cursor positions.
func (b *PathBuffer) view(from, to int) []byte {
	return b.buf[from:to]
}
