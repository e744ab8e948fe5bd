// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package ksyms

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultKallsymsPath is where the kernel exposes its symbol listing.
const DefaultKallsymsPath = "/proc/kallsyms"

// Kallsyms is a native lookup facility backed by a kallsyms listing, loaded
// once. It backs the direct resolution strategy on hosts where the listing
// is readable with real addresses.
type Kallsyms struct {
	symbols map[string]uint64
}

// LoadKallsyms parses the kallsyms listing at path. Data symbols and
// zero-valued addresses are skipped; a listing where every address reads as
// zero (kptr_restrict, missing CAP_SYSLOG) is rejected so that capability
// detection falls through to the indirect strategy.
func LoadKallsyms(path string) (*Kallsyms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	symbols := make(map[string]uint64)
	zeroed := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		addr, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			continue
		}
		if addr == 0 {
			zeroed++
			continue
		}

		switch fields[1] {
		case "b", "B", "d", "D", "r", "R":
			// data symbols are of no use to the resolver
			continue
		}

		if _, seen := symbols[fields[2]]; !seen {
			symbols[fields[2]] = addr
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if len(symbols) == 0 && zeroed > 0 {
		return nil, errors.Errorf("all addresses in %s read as zero (kptr_restrict?)", path)
	}

	return &Kallsyms{symbols: symbols}, nil
}

// LookupName implements the native lookup contract: address of name, zero
// when unknown.
func (k *Kallsyms) LookupName(name string) uint64 {
	return k.symbols[name]
}

// Len returns the number of loaded symbols.
func (k *Kallsyms) Len() int {
	return len(k.symbols)
}

// HostLookup returns a LookupFunc over the host kallsyms listing, or nil
// when the listing is unusable. A nil return is how capability detection
// decides to fall back to the indirect strategy.
func HostLookup() LookupFunc {
	k, err := LoadKallsyms(DefaultKallsymsPath)
	if err != nil {
		return nil
	}
	return k.LookupName
}
