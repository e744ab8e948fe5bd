// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package constantfetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel-agent/pkg/util/kernel"
)

func fetchAll(t *testing.T, host *kernel.Host) map[string]uint64 {
	t.Helper()

	fetcher := NewFallbackConstantFetcher(host)
	fetcher.AppendOffsetofRequest(OffsetNameSuperBlockStructSUUID)
	fetcher.AppendOffsetofRequest(OffsetNameSuperBlockStructSDev)
	fetcher.AppendOffsetofRequest(OffsetNameDentryStructDParent)
	fetcher.AppendOffsetofRequest(OffsetNameDentryStructDName)

	res, err := fetcher.FinishAndGetResults()
	require.NoError(t, err)
	return res
}

func TestFallbackModernKernel(t *testing.T) {
	host := &kernel.Host{Code: kernel.VersionCode(5, 15, 0), OsRelease: map[string]string{}}
	res := fetchAll(t, host)

	assert.Equal(t, uint64(520), res[OffsetNameSuperBlockStructSUUID])
	assert.Equal(t, uint64(16), res[OffsetNameSuperBlockStructSDev])
	assert.Equal(t, uint64(24), res[OffsetNameDentryStructDParent])
	assert.Equal(t, uint64(32), res[OffsetNameDentryStructDName])
}

func TestFallbackLegacyKernel(t *testing.T) {
	host := &kernel.Host{Code: kernel.VersionCode(2, 6, 32), OsRelease: map[string]string{}}
	res := fetchAll(t, host)

	assert.Equal(t, ErrorSentinel, res[OffsetNameSuperBlockStructSUUID])
	assert.Equal(t, uint64(16), res[OffsetNameSuperBlockStructSDev])
	assert.Equal(t, uint64(40), res[OffsetNameDentryStructDParent])
	assert.Equal(t, uint64(48), res[OffsetNameDentryStructDName])
}

func TestFallbackRH7Kernel(t *testing.T) {
	host := &kernel.Host{
		Code:      kernel.VersionCode(3, 10, 0),
		OsRelease: map[string]string{"ID": "centos", "VERSION_ID": "7"},
	}
	res := fetchAll(t, host)
	assert.Equal(t, uint64(512), res[OffsetNameSuperBlockStructSUUID])
}

func TestFallbackIsDeterministic(t *testing.T) {
	host := &kernel.Host{Code: kernel.VersionCode(4, 18, 0), OsRelease: map[string]string{}}
	assert.Equal(t, fetchAll(t, host), fetchAll(t, host))
}

func TestUnknownConstant(t *testing.T) {
	host := &kernel.Host{Code: kernel.VersionCode(5, 15, 0), OsRelease: map[string]string{}}
	fetcher := NewFallbackConstantFetcher(host)
	fetcher.AppendOffsetofRequest("no_such_constant")
	res, err := fetcher.FinishAndGetResults()
	require.NoError(t, err)
	assert.Equal(t, ErrorSentinel, res["no_such_constant"])
}
