// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum64Empty(t *testing.T) {
	assert.Equal(t, Seed, Sum64(nil))
	assert.Equal(t, Seed, Sum64([]byte{}))
	assert.Equal(t, Seed, Sum64String(""))
}

func TestSum64Deterministic(t *testing.T) {
	data := []byte("/usr/bin/curl")
	assert.Equal(t, Sum64(data), Sum64(data))
	assert.Equal(t, Sum64(data), Sum64String("/usr/bin/curl"))
}

func TestSum64SingleBytePerturbation(t *testing.T) {
	data := []byte("/etc/shadow")
	ref := Sum64(data)

	for i := range data {
		mutated := make([]byte, len(data))
		copy(mutated, data)
		mutated[i] ^= 0x01
		assert.NotEqual(t, ref, Sum64(mutated), "flipping byte %d should change the hash", i)
	}
}

func TestSum64LengthSensitive(t *testing.T) {
	assert.NotEqual(t, Sum64([]byte("/a")), Sum64([]byte("/a\x00")))
	assert.NotEqual(t, Seed, Sum64([]byte{0}))
}

func TestFileKey(t *testing.T) {
	gen := NewKeyGenerator()

	uuid := []byte{0xde, 0xad, 0xbe, 0xef, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	pathKey := Sum64String("/usr/bin/curl")

	key := gen.FileKey(uuid, pathKey)
	assert.Equal(t, key, gen.FileKey(uuid, pathKey))

	// Either input changing must change the key.
	assert.NotEqual(t, key, gen.FileKey(uuid, pathKey+1))
	other := append([]byte{}, uuid...)
	other[0] ^= 0xff
	assert.NotEqual(t, key, gen.FileKey(other, pathKey))

	// Legacy 4-byte volume identifiers are accepted as-is.
	legacy := gen.FileKey([]byte{1, 2, 3, 4}, pathKey)
	assert.NotEqual(t, key, legacy)
}

func BenchmarkSum64(b *testing.B) {
	data := []byte("/var/lib/docker/overlay2/0123456789abcdef/merged/usr/bin/python3")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Sum64(data)
	}
}
