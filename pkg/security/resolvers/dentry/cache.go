// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package dentry

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// lockedLRU wraps the non-thread-safe simplelru with a mutex. The resolver
// is called from every probe consumer goroutine, so its caches need to be
// safe without each caller holding its own lock.
type lockedLRU[K comparable, V any] struct {
	lock sync.Mutex
	lru  *simplelru.LRU[K, V]
}

func newLockedLRU[K comparable, V any](size int) (*lockedLRU[K, V], error) {
	inner, err := simplelru.NewLRU[K, V](size, nil)
	if err != nil {
		return nil, err
	}
	return &lockedLRU[K, V]{lru: inner}, nil
}

func (c *lockedLRU[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Get(key)
}

func (c *lockedLRU[K, V]) Add(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lru.Add(key, value)
}

func (c *lockedLRU[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Len()
}

func (c *lockedLRU[K, V]) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lru.Purge()
}
