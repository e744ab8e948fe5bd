// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathBufferPrepend(t *testing.T) {
	buf := NewPathBuffer(8)
	assert.Equal(t, 8, buf.Cap())
	assert.Equal(t, 8, buf.Remaining())

	assert.True(t, buf.TryPrepend([]byte("world")))
	assert.Equal(t, 3, buf.Remaining())
	assert.True(t, buf.TryPrependByte('/'))
	assert.Equal(t, 2, buf.Remaining())

	assert.Equal(t, "/world", string(buf.view(buf.Remaining(), buf.Cap())))
}

func TestPathBufferUnderflow(t *testing.T) {
	buf := NewPathBuffer(4)
	assert.True(t, buf.TryPrepend([]byte("abc")))

	// A failed prepend leaves cursor and content untouched.
	assert.False(t, buf.TryPrepend([]byte("xy")))
	assert.Equal(t, 1, buf.Remaining())
	assert.Equal(t, "abc", string(buf.view(1, 4)))

	assert.True(t, buf.TryPrependByte('/'))
	assert.Equal(t, 0, buf.Remaining())
	assert.False(t, buf.TryPrependByte('/'))
	assert.False(t, buf.TryPrepend([]byte{'x'}))

	// Zero-length prepends always fit.
	assert.True(t, buf.TryPrepend(nil))
}

func TestPathBufferReset(t *testing.T) {
	buf := NewPathBuffer(4)
	assert.True(t, buf.TryPrepend([]byte("abcd")))
	assert.Equal(t, 0, buf.Remaining())

	buf.Reset()
	assert.Equal(t, 4, buf.Remaining())
	assert.True(t, buf.TryPrepend([]byte("wxyz")))
	assert.Equal(t, "wxyz", string(buf.view(0, 4)))
}
