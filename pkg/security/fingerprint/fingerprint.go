// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package fingerprint computes the compact identity keys attached to
// filesystem events.
//
// Sum64 is the wire-compatible digest: its constants match the values already
// deployed on the kernel side and stored by the backend, so they can never
// change. It is a fast, order-sensitive, keyless hash, not collision
// resistant and not meant for adversarial input.
//
// KeyGenerator produces process-local keys (murmur3) for in-memory
// deduplication; those never leave the process and carry no compatibility
// constraint.
package fingerprint

import (
	"encoding/binary"

	"github.com/twmb/murmur3"
)

// Seed is the initial accumulator value of Sum64. Sum64 of empty input
// returns it unchanged.
const Seed uint64 = 525201411107845655

const mixMultiplier uint64 = 0x5bd1e9955bd1e995

// Sum64 returns the 64-bit one-at-a-time multiplicative mix of data.
func Sum64(data []byte) uint64 {
	h := Seed
	for _, c := range data {
		h ^= uint64(c)
		h *= mixMultiplier
		h ^= h >> 47
	}
	return h
}

// Sum64String is Sum64 over the bytes of s, without copying.
func Sum64String(s string) uint64 {
	h := Seed
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= mixMultiplier
		h ^= h >> 47
	}
	return h
}

// KeyGenerator builds process-local file identity keys by combining a volume
// identifier with a path fingerprint. It reuses an internal buffer so key
// generation does not allocate; a KeyGenerator is not safe for concurrent
// use, callers keep one per worker.
type KeyGenerator struct {
	buf []byte
}

// NewKeyGenerator returns a ready to use KeyGenerator.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{
		// 16-byte volume UUID plus one path key in the common case.
		buf: make([]byte, 0, 24),
	}
}

// FileKey returns the identity key of a file designated by the identifier of
// the volume holding it and the fingerprint of its path on that volume.
func (g *KeyGenerator) FileKey(volumeID []byte, pathKey uint64) uint64 {
	g.buf = append(g.buf[:0], volumeID...)
	g.buf = binary.LittleEndian.AppendUint64(g.buf, pathKey)
	return murmur3.Sum64(g.buf)
}
