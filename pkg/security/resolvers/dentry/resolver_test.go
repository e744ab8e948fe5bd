// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel-agent/pkg/security/fingerprint"
)

func TestResolverPathAndKey(t *testing.T) {
	a := NewArena()
	leaf := chain(a, "usr", "bin", "curl")

	r, err := NewResolver(a, 0)
	require.NoError(t, err)

	path, err := r.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/curl", path)

	key, err := r.ResolveKey(leaf)
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Sum64String("/usr/bin/curl"), key)

	// The transport ships keys; the agent side can expand them back.
	got, ok := r.LookupKey(key)
	assert.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = r.LookupKey(key + 1)
	assert.False(t, ok)
}

func TestResolverCacheInvalidation(t *testing.T) {
	a := NewArena()
	dir := a.Insert(Root, []byte("tmp"))
	leaf := a.Insert(dir, []byte("socket"))

	r, err := NewResolver(a, 0)
	require.NoError(t, err)

	path, err := r.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/socket", path)

	// Cached result survives repeated resolution.
	again, err := r.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, r.nodes.Len())

	// Dropping the memoized entries forces a rewalk with the same result.
	r.nodes.Purge()
	again, err = r.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	// A rename anywhere bumps the arena generation and forces a rewalk.
	a.Rename(dir, []byte("run"))
	path, err = r.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, "/run/socket", path)
}

func TestResolverPathTooLong(t *testing.T) {
	a := NewArena()
	cur := Root
	name := strings.Repeat("x", 250)
	for i := 0; i < 20; i++ { // 20*(250+1) > PathMax
		cur = a.Insert(cur, []byte(name))
	}

	r, err := NewResolver(a, 0)
	require.NoError(t, err)

	_, err = r.ResolvePath(cur)
	assert.ErrorIs(t, err, ErrPathTooLong)
	_, err = r.ResolveKey(cur)
	assert.ErrorIs(t, err, ErrPathTooLong)
}
