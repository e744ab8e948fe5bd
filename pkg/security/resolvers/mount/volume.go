// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package mount locates the unique identifier of a mounted volume inside an
// opaque super-block snapshot captured by the probe layer.
package mount

import (
	"fmt"

	"github.com/kestrelsec/kestrel-agent/pkg/security/probe/constantfetch"
	"github.com/kestrelsec/kestrel-agent/pkg/util/kernel"
)

// Volume identifier widths. Kernels since 2.6.39 expose a 16-byte UUID;
// before that the 4-byte device number is the only stable identity.
const (
	VolumeIDSize       = 16
	LegacyVolumeIDSize = 4
)

// Locator resolves the identifier field of volume descriptors. The offset
// and width are computed once, when the locator is built for a given kernel;
// Locate itself is total: plain address arithmetic with no runtime branching
// and no failure path.
//
// Descriptors handed to Locate are full-length super-block snapshots, the
// probe layer guarantees they cover the identifier field. On kernels in the
// legacy range that predate identifier support the located window simply
// holds whatever the kernel stored there, possibly all zeroes.
type Locator struct {
	offset uint64
	size   int
}

// NewLocator builds a Locator for the given host kernel using the supplied
// constant fetcher.
func NewLocator(host *kernel.Host, fetcher constantfetch.ConstantFetcher) (*Locator, error) {
	id := constantfetch.OffsetNameSuperBlockStructSUUID
	size := VolumeIDSize
	if host.Code < kernel.Kernel2_6_39 {
		id = constantfetch.OffsetNameSuperBlockStructSDev
		size = LegacyVolumeIDSize
	}

	fetcher.AppendOffsetofRequest(id)
	res, err := fetcher.FinishAndGetResults()
	if err != nil {
		return nil, err
	}

	offset, ok := res[id]
	if !ok || offset == constantfetch.ErrorSentinel {
		return nil, fmt.Errorf("volume identifier offset %q not available from %s fetcher", id, fetcher)
	}

	return &Locator{offset: offset, size: size}, nil
}

// Offset returns the byte offset of the identifier field.
func (l *Locator) Offset() uint64 {
	return l.offset
}

// Size returns the identifier width in bytes.
func (l *Locator) Size() int {
	return l.size
}

// Locate returns the identifier window of the given descriptor. The returned
// slice aliases descriptor memory, it is not a copy.
func (l *Locator) Locate(descriptor []byte) []byte {
	return descriptor[l.offset : l.offset+uint64(l.size)]
}
