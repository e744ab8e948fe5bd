// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package constantfetch

import (
	"github.com/kestrelsec/kestrel-agent/pkg/util/kernel"
)

// FallbackConstantFetcher resolves constants from per-kernel-version
// heuristics. It is the strategy of last resort: the offsets below were
// collected from vmlinux debug info for the common distribution kernels and
// extrapolated for the ranges in between. It never touches the running
// kernel, so it works on lockdown hosts where BTF and kallsyms are
// unavailable.
type FallbackConstantFetcher struct {
	host *kernel.Host
	res  map[string]uint64
}

// NewFallbackConstantFetcher returns a new FallbackConstantFetcher for the
// given host kernel.
func NewFallbackConstantFetcher(host *kernel.Host) *FallbackConstantFetcher {
	return &FallbackConstantFetcher{
		host: host,
		res:  make(map[string]uint64),
	}
}

func (f *FallbackConstantFetcher) String() string {
	return "fallback"
}

// AppendOffsetofRequest implements ConstantFetcher.
func (f *FallbackConstantFetcher) AppendOffsetofRequest(id string) {
	value := ErrorSentinel
	switch id {
	case OffsetNameSuperBlockStructSUUID:
		value = getSuperBlockUUIDOffset(f.host)
	case OffsetNameSuperBlockStructSDev:
		value = getSuperBlockDevOffset(f.host)
	case OffsetNameDentryStructDParent:
		value = getDentryParentOffset(f.host)
	case OffsetNameDentryStructDName:
		value = getDentryNameOffset(f.host)
	}
	f.res[id] = value
}

// FinishAndGetResults implements ConstantFetcher.
func (f *FallbackConstantFetcher) FinishAndGetResults() (map[string]uint64, error) {
	return f.res, nil
}

func getSuperBlockDevOffset(host *kernel.Host) uint64 {
	// dev_t s_dev directly follows the struct list_head s_list that opens
	// struct super_block; stable across the whole 2.6 series.
	return 16
}

func getSuperBlockUUIDOffset(host *kernel.Host) uint64 {
	switch {
	case host.Code < kernel.Kernel2_6_39:
		// s_uuid does not exist yet.
		return ErrorSentinel
	case host.IsRH7Kernel():
		return 512
	case host.IsInRangeCloseOpen(kernel.Kernel2_6_39, kernel.Kernel3_10):
		return 440
	case host.IsInRangeCloseOpen(kernel.Kernel3_10, kernel.Kernel4_16):
		return 464
	case host.IsInRangeCloseOpen(kernel.Kernel4_16, kernel.Kernel5_0):
		return 496
	case host.IsInRangeCloseOpen(kernel.Kernel5_0, kernel.Kernel5_13):
		return 504
	}
	return 520
}

func getDentryParentOffset(host *kernel.Host) uint64 {
	if host.Code < kernel.Kernel3_10 {
		// Before the d_flags/d_seq reshuffle the parent pointer sits
		// after the hash list node.
		return 40
	}
	return 24
}

func getDentryNameOffset(host *kernel.Host) uint64 {
	// d_name immediately follows d_parent.
	return getDentryParentOffset(host) + 8
}
