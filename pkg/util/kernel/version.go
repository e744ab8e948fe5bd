// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package kernel provides kernel version plumbing: the KERNEL_VERSION code
// encoding, release string parsing and host detection. The introspection
// layers key their ABI decisions on these values once at startup.
package kernel

import (
	"fmt"
	"strings"
)

// Version is a kernel version expressed with the KERNEL_VERSION(a, b, c)
// encoding, comparable with plain integer comparisons.
type Version uint32

// Kernel version thresholds used by the struct-offset heuristics.
var (
	Kernel2_6_33 = VersionCode(2, 6, 33)
	Kernel2_6_39 = VersionCode(2, 6, 39)
	Kernel3_10   = VersionCode(3, 10, 0)
	Kernel4_13   = VersionCode(4, 13, 0)
	Kernel4_16   = VersionCode(4, 16, 0)
	Kernel5_0    = VersionCode(5, 0, 0)
	Kernel5_7    = VersionCode(5, 7, 0)
	Kernel5_13   = VersionCode(5, 13, 0)
)

// VersionCode returns the version code for the given major, minor and patch
// numbers, mirroring the kernel's KERNEL_VERSION macro.
func VersionCode(major, minor, patch byte) Version {
	return Version(uint32(major)<<16 | uint32(minor)<<8 | uint32(patch))
}

// ParseVersion parses a release string such as "4.4.0" or
// "5.13.0-35-generic" into a Version. It returns 0 when no version triplet
// can be found at the start of the string.
func ParseVersion(release string) Version {
	var major, minor, patch byte
	if n, _ := fmt.Sscanf(release, "%d.%d.%d", &major, &minor, &patch); n < 2 {
		return 0
	}
	return VersionCode(major, minor, patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}

// UbuntuKernelVersion represents a parsed Ubuntu kernel release string, which
// carries the ABI and upload numbers on top of the upstream triplet.
type UbuntuKernelVersion struct {
	Major  int
	Minor  int
	Patch  int
	Abi    int
	Upload int
	Flavor string
}

// NewUbuntuKernelVersion parses release strings of the form
// "5.13.0-35.40-generic-lpae".
func NewUbuntuKernelVersion(release string) (*UbuntuKernelVersion, error) {
	parts := strings.SplitN(release, "-", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid ubuntu kernel version: %s", release)
	}

	ukv := &UbuntuKernelVersion{Flavor: parts[2]}
	if _, err := fmt.Sscanf(parts[0], "%d.%d.%d", &ukv.Major, &ukv.Minor, &ukv.Patch); err != nil {
		return nil, fmt.Errorf("invalid ubuntu kernel version: %s: %v", release, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d.%d", &ukv.Abi, &ukv.Upload); err != nil {
		return nil, fmt.Errorf("invalid ubuntu kernel abi: %s: %v", release, err)
	}
	return ukv, nil
}

// Host describes the running kernel: its version code, the raw uname release
// and the content of /etc/os-release. Tests construct it directly; production
// code goes through NewHost.
type Host struct {
	Code          Version
	UnameRelease  string
	OsReleasePath string
	OsRelease     map[string]string
}

// IsRH7Kernel returns whether the host runs a RHEL/CentOS 7 kernel.
func (h *Host) IsRH7Kernel() bool {
	id := h.OsRelease["ID"]
	return (id == "centos" || id == "rhel") && strings.HasPrefix(h.OsRelease["VERSION_ID"], "7")
}

// IsRH8Kernel returns whether the host runs a RHEL 8 kernel.
func (h *Host) IsRH8Kernel() bool {
	return h.OsRelease["PLATFORM_ID"] == "platform:el8"
}

// IsUbuntuKernel returns whether the host runs an Ubuntu kernel.
func (h *Host) IsUbuntuKernel() bool {
	return h.OsRelease["ID"] == "ubuntu"
}

// IsInRangeCloseOpen returns whether the host version code is in [begin, end).
func (h *Host) IsInRangeCloseOpen(begin, end Version) bool {
	return h.Code >= begin && h.Code < end
}
