// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package constantfetch

// Struct member offsets resolved at startup and consumed as plain data by the
// introspection layers and by the kernel-side readers of the probe.
const (
	// OffsetNameSuperBlockStructSUUID is the offset of the s_uuid field
	// (16 bytes) in struct super_block.
	OffsetNameSuperBlockStructSUUID = "sb_uuid_offset"
	// OffsetNameSuperBlockStructSDev is the offset of the s_dev field
	// (4 bytes) in struct super_block, the volume identifier on kernels
	// predating s_uuid.
	OffsetNameSuperBlockStructSDev = "sb_dev_offset"
	// OffsetNameDentryStructDParent is the offset of the d_parent pointer
	// in struct dentry.
	OffsetNameDentryStructDParent = "dentry_d_parent_offset"
	// OffsetNameDentryStructDName is the offset of the d_name qstr in
	// struct dentry.
	OffsetNameDentryStructDName = "dentry_d_name_offset"
)

// ErrorSentinel is the value reported for constants that could not be
// resolved on the current kernel.
const ErrorSentinel uint64 = ^uint64(0)

// ConstantFetcher resolves the value of kernel constants such as struct
// member offsets. Requests are batched: callers append the constants they
// need, then collect every result at once.
type ConstantFetcher interface {
	String() string
	AppendOffsetofRequest(id string)
	FinishAndGetResults() (map[string]uint64, error)
}
