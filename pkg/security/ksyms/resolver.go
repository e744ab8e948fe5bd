// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package ksyms resolves runtime addresses of kernel symbols.
//
// Two strategies exist behind one contract. When the environment exposes a
// native lookup facility (a readable kallsyms listing, or the kernel's own
// exported lookup when running alongside the in-kernel probe), resolution is
// a direct call-through. When it does not — the lookup routine exists but is
// no longer public — its address is discovered exactly once as a side effect
// of arming a zero-effect trap on it, and every later resolution goes
// through that discovered routine.
//
// Resolution is best effort by contract: a failed discovery leaves the
// resolver uninitialized and every call reports "not found" until a later
// attempt succeeds. Nothing here logs or escalates; callers see a boolean.
package ksyms

import (
	"sync"
	"sync/atomic"
)

// DefaultLookupSymbol is the kernel's internal symbol-lookup routine, the
// discovery target of the indirect strategy. Public until 5.7, unexported
// since.
const DefaultLookupSymbol = "kallsyms_lookup_name"

// LookupFunc is a native symbol-lookup facility: it returns the address of
// the named symbol, or zero when the name is unknown.
type LookupFunc func(name string) uint64

// BindFunc turns a discovered routine address into a callable lookup. In
// kernel context this is a function-pointer cast; consumers running in user
// space inject whatever call mechanism their probe layer provides.
type BindFunc func(addr uint64) LookupFunc

// TraceFacility arms a zero-effect execution trap on a named routine and
// reports the address at which the trap was planted. Register and
// Unregister must leave the target routine unaffected.
type TraceFacility interface {
	Register(symbol string) (uint64, error)
	Unregister(symbol string) error
}

// Resolver resolves kernel symbol names to runtime addresses.
type Resolver interface {
	Resolve(name string) (uint64, bool)
}

// Options selects the resolution strategy. Strategy choice is a startup
// decision made from detected capabilities, not a compile-time one.
type Options struct {
	// Lookup, when non-nil, selects the direct strategy.
	Lookup LookupFunc

	// Tracer and Bind drive the indirect strategy when no native lookup
	// facility exists.
	Tracer TraceFacility
	Bind   BindFunc

	// LookupSymbol overrides the discovery target of the indirect
	// strategy. Defaults to DefaultLookupSymbol.
	LookupSymbol string
}

// NewResolver builds a resolver with the first strategy the options allow.
func NewResolver(opts Options) Resolver {
	if opts.Lookup != nil {
		return &directResolver{lookup: opts.Lookup}
	}

	symbol := opts.LookupSymbol
	if symbol == "" {
		symbol = DefaultLookupSymbol
	}
	return &indirectResolver{
		tracer: opts.Tracer,
		bind:   opts.Bind,
		symbol: symbol,
	}
}

type directResolver struct {
	lookup LookupFunc
}

func (r *directResolver) Resolve(name string) (uint64, bool) {
	addr := r.lookup(name)
	return addr, addr != 0
}

// indirectResolver lazily discovers the internal lookup routine and then
// calls through it. The discovered lookup is published once; concurrent
// first callers either all converge on the same bound routine or all see
// the uninitialized state until discovery completes.
type indirectResolver struct {
	tracer TraceFacility
	bind   BindFunc
	symbol string

	mu     sync.Mutex   // serializes discovery attempts
	lookup atomic.Value // holds a LookupFunc once discovered
}

func (r *indirectResolver) Resolve(name string) (uint64, bool) {
	lookup, ok := r.lookup.Load().(LookupFunc)
	if !ok {
		if lookup = r.discover(); lookup == nil {
			return 0, false
		}
	}
	addr := lookup(name)
	return addr, addr != 0
}

func (r *indirectResolver) discover() LookupFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have won while we waited for the lock.
	if lookup, ok := r.lookup.Load().(LookupFunc); ok {
		return lookup
	}

	addr, err := DiscoverAddress(r.tracer, r.symbol)
	if err != nil || addr == 0 {
		// Leave the holder empty; the next Resolve retries.
		return nil
	}

	lookup := r.bind(addr)
	r.lookup.Store(lookup)
	return lookup
}

// DiscoverAddress observes the runtime address of a named routine by arming
// a temporary trap on it and disarming it immediately. The trap handler has
// no effect; only the registration address is of interest.
func DiscoverAddress(tracer TraceFacility, symbol string) (uint64, error) {
	addr, err := tracer.Register(symbol)
	if err != nil {
		return 0, err
	}
	_ = tracer.Unregister(symbol)
	return addr, nil
}
