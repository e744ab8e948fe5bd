// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

import (
	"errors"
)

// ErrPathTooLong is returned when the destination buffer cannot hold the
// reconstructed path. The buffer content is undefined after this error;
// callers must discard it, a partial path is never exposed.
var ErrPathTooLong = errors.New("dentry: path exceeds buffer capacity")

// ReconstructPath walks from leaf up to the arena root and writes the
// absolute path into buf, returning the path bytes (a view into buf, without
// the reserved terminator byte).
//
// The semantics match the kernel's own path assembly exactly: one byte at
// the buffer tail is reserved for a terminator, a lone "/" is produced for
// the root itself, and every component costs its name length plus one
// separator byte, an empty name included. Capacity accounting is strict:
// a buffer one byte too small fails with ErrPathTooLong.
//
// Each step snapshots a single node's name and parent under that node's own
// lock; no lock is held across two nodes and no arena-wide lock exists. A
// rename or move of an ancestor that lands between two steps can therefore
// yield a path that was never true end-to-end. That race is accepted: the
// result is a best-effort snapshot, and taking a hierarchy-wide lock here
// would invite lock-ordering deadlocks with the indexing layer.
func ReconstructPath(a *Arena, leaf NodeID, buf *PathBuffer) ([]byte, error) {
	// Reserve the terminator byte.
	if !buf.TryPrependByte(0) {
		return nil, ErrPathTooLong
	}
	if buf.Remaining() < 1 {
		return nil, ErrPathTooLong
	}

	term := buf.Remaining()
	start := term - 1
	// Provisional result for the root-only case; overwritten by the first
	// component otherwise.
	buf.pokeBefore('/')

	var scratch [255]byte
	for cur := leaf; ; {
		parent, name := a.snapshot(cur, scratch[:0])
		if parent == cur {
			// Reached the root; it contributes no name.
			break
		}
		if !buf.TryPrepend(name) || !buf.TryPrependByte('/') {
			return nil, ErrPathTooLong
		}
		start = buf.Remaining()
		cur = parent
	}

	return buf.view(start, term), nil
}
