// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package dentry mirrors the kernel's directory-entry hierarchy in user
// space and reconstructs absolute paths from it.
//
// Nodes are addressed by stable indices into an arena rather than by
// pointers: the indexing layer that feeds the arena keeps inserting and
// renaming entries while paths are being reconstructed, and a handle can be
// held across those mutations without lifetime concerns. Each node carries
// its own lock guarding its name and parent link; there is deliberately no
// arena-wide lock around a path walk (see ReconstructPath).
package dentry

import (
	"sync"
	"sync/atomic"
)

// NodeID is a stable handle to one directory entry in an arena.
type NodeID uint32

// Root is the NodeID of the arena root. The root is its own parent and has
// no name.
const Root NodeID = 0

type node struct {
	// mu guards name and parent. Nothing else in the arena is protected
	// by it, and it is never held while another node's mu is taken.
	mu     sync.Mutex
	parent NodeID
	name   []byte
}

// Arena owns the directory-entry nodes. Node slots are never reused: a
// NodeID stays valid for the lifetime of the arena even after the entry it
// designates has been renamed or moved.
type Arena struct {
	mu    sync.RWMutex
	nodes []*node
	gen   atomic.Uint64
}

// NewArena returns an arena holding only the root entry.
func NewArena() *Arena {
	return &Arena{
		nodes: []*node{{parent: Root}},
	}
}

func (a *Arena) node(id NodeID) *node {
	a.mu.RLock()
	n := a.nodes[id]
	a.mu.RUnlock()
	return n
}

// Insert adds an entry under parent and returns its handle. The name is
// copied. Insert panics if parent is not a valid handle; the indexing layer
// only ever links under entries it already owns.
func (a *Arena) Insert(parent NodeID, name []byte) NodeID {
	a.mu.Lock()
	if int(parent) >= len(a.nodes) {
		a.mu.Unlock()
		panic("dentry: insert under unknown parent")
	}
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, &node{
		parent: parent,
		name:   append([]byte(nil), name...),
	})
	a.mu.Unlock()
	return id
}

// Len returns the number of entries in the arena, root included.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.nodes)
}

// Rename replaces the name of an entry.
func (a *Arena) Rename(id NodeID, name []byte) {
	n := a.node(id)
	n.mu.Lock()
	n.name = append(n.name[:0:0], name...)
	n.mu.Unlock()
	a.gen.Add(1)
}

// Reparent moves an entry under a new parent.
func (a *Arena) Reparent(id, parent NodeID) {
	n := a.node(id)
	n.mu.Lock()
	n.parent = parent
	n.mu.Unlock()
	a.gen.Add(1)
}

// Generation returns a counter bumped on every rename or move. Cached
// reconstruction results are valid only for the generation they were
// computed at.
func (a *Arena) Generation() uint64 {
	return a.gen.Load()
}

// snapshot copies one entry's parent link and name out under that entry's
// lock. The name bytes are appended to scratch, which may be reused by the
// caller between steps. This is the only atomicity a path walk gets: each
// step observes a single node consistently, not the chain as a whole.
func (a *Arena) snapshot(id NodeID, scratch []byte) (NodeID, []byte) {
	n := a.node(id)
	n.mu.Lock()
	parent := n.parent
	name := append(scratch[:0], n.name...)
	n.mu.Unlock()
	return parent, name
}
