// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

//go:build linux
// +build linux

package kernel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const defaultOsReleasePath = "/etc/os-release"

// NewHost detects the running kernel via uname(2) and reads
// /etc/os-release for distribution identification.
func NewHost() (*Host, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, fmt.Errorf("uname: %w", err)
	}

	release := unix.ByteSliceToString(uts.Release[:])
	code := ParseVersion(release)
	if code == 0 {
		return nil, fmt.Errorf("unparsable kernel release %q", release)
	}

	osRelease, err := ReadOSRelease(defaultOsReleasePath)
	if err != nil {
		return nil, err
	}

	return &Host{
		Code:          code,
		UnameRelease:  release,
		OsReleasePath: defaultOsReleasePath,
		OsRelease:     osRelease,
	}, nil
}
