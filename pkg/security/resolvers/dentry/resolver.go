// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

import (
	"sync"

	"github.com/kestrelsec/kestrel-agent/pkg/security/fingerprint"
)

// PathMax bounds reconstructed paths, matching the kernel's PATH_MAX.
const PathMax = 4096

const defaultCacheSize = 2048

type pathEntry struct {
	gen  uint64
	path string
	key  uint64
}

// Resolver reconstructs paths from an arena and memoizes the results. It
// also retains key-to-path associations so that a fingerprint received back
// from the event transport can be re-expanded without another walk.
type Resolver struct {
	arena *Arena
	nodes *lockedLRU[NodeID, pathEntry]
	keys  *lockedLRU[uint64, string]

	bufPool sync.Pool
}

// NewResolver returns a resolver over the given arena with caches of
// cacheSize entries (0 selects the default).
func NewResolver(arena *Arena, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	nodes, err := newLockedLRU[NodeID, pathEntry](cacheSize)
	if err != nil {
		return nil, err
	}
	keys, err := newLockedLRU[uint64, string](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		arena: arena,
		nodes: nodes,
		keys:  keys,
		bufPool: sync.Pool{
			New: func() interface{} { return NewPathBuffer(PathMax) },
		},
	}, nil
}

// ResolvePath returns the absolute path of the given entry.
//
// Cached results are stamped with the arena generation at which they were
// computed and are bypassed after any rename or move. A mutation racing
// with the walk itself can still surface in the result; see
// ReconstructPath for why that race is accepted.
func (r *Resolver) ResolvePath(leaf NodeID) (string, error) {
	entry, err := r.resolve(leaf)
	if err != nil {
		return "", err
	}
	return entry.path, nil
}

// ResolveKey returns the path fingerprint of the given entry.
func (r *Resolver) ResolveKey(leaf NodeID) (uint64, error) {
	entry, err := r.resolve(leaf)
	if err != nil {
		return 0, err
	}
	return entry.key, nil
}

// LookupKey returns the last path seen for a fingerprint, if it is still
// cached.
func (r *Resolver) LookupKey(key uint64) (string, bool) {
	return r.keys.Get(key)
}

func (r *Resolver) resolve(leaf NodeID) (pathEntry, error) {
	gen := r.arena.Generation()
	if entry, ok := r.nodes.Get(leaf); ok && entry.gen == gen {
		return entry, nil
	}

	buf := r.bufPool.Get().(*PathBuffer)
	defer r.bufPool.Put(buf)
	buf.Reset()

	path, err := ReconstructPath(r.arena, leaf, buf)
	if err != nil {
		return pathEntry{}, err
	}

	entry := pathEntry{
		gen:  gen,
		path: string(path),
		key:  fingerprint.Sum64(path),
	}
	r.nodes.Add(leaf, entry)
	r.keys.Add(entry.key, entry.path)
	return entry, nil
}
