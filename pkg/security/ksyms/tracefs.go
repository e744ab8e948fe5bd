// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package ksyms

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Default locations of the kernel trace interfaces.
const (
	DefaultTracefsRoot    = "/sys/kernel/debug/tracing"
	DefaultKprobeListPath = "/sys/kernel/debug/kprobes/list"
)

const kprobeGroup = "kestrel_ksyms"

// TracefsKprobe is a TraceFacility backed by the tracefs kprobe interface.
// Register plants a probe on the target symbol through kprobe_events and
// reads the planted address back from the kernel's kprobe list; Unregister
// removes the probe. The probe carries no program and never fires into
// anything, so the target routine is unaffected.
type TracefsKprobe struct {
	// Root is the tracefs mount point, DefaultTracefsRoot when empty.
	Root string
	// KprobeList is the kprobe listing path, DefaultKprobeListPath when
	// empty.
	KprobeList string
}

func (t *TracefsKprobe) root() string {
	if t.Root == "" {
		return DefaultTracefsRoot
	}
	return t.Root
}

func (t *TracefsKprobe) listPath() string {
	if t.KprobeList == "" {
		return DefaultKprobeListPath
	}
	return t.KprobeList
}

func (t *TracefsKprobe) eventsPath() string {
	return filepath.Join(t.root(), "kprobe_events")
}

func eventName(symbol string) string {
	// Event names share a flat namespace per group; the symbol itself is
	// unique enough.
	return strings.ReplaceAll(symbol, ".", "_")
}

func (t *TracefsKprobe) control(directive string) error {
	f, err := os.OpenFile(t.eventsPath(), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", t.eventsPath())
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, directive); err != nil {
		return errors.Wrapf(err, "failed to write %q", directive)
	}
	return nil
}

// Register implements TraceFacility.
func (t *TracefsKprobe) Register(symbol string) (uint64, error) {
	directive := fmt.Sprintf("p:%s/%s %s", kprobeGroup, eventName(symbol), symbol)
	if err := t.control(directive); err != nil {
		return 0, err
	}

	addr, err := t.plantedAddress(symbol)
	if err != nil {
		_ = t.Unregister(symbol)
		return 0, err
	}
	return addr, nil
}

// Unregister implements TraceFacility.
func (t *TracefsKprobe) Unregister(symbol string) error {
	return t.control(fmt.Sprintf("-:%s/%s", kprobeGroup, eventName(symbol)))
}

// plantedAddress scans the kernel kprobe list for the probe just planted on
// symbol. List lines look like:
//
//	ffffffff812e8070  k  kallsyms_lookup_name+0x0  [FTRACE]
//
// A masked address column (kptr_restrict) parses as zero, which callers
// treat as a failed discovery.
func (t *TracefsKprobe) plantedAddress(symbol string) (uint64, error) {
	f, err := os.Open(t.listPath())
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s", t.listPath())
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if fields[2] != symbol && fields[2] != symbol+"+0x0" {
			continue
		}
		addr, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "unparsable kprobe address %q", fields[0])
		}
		return addr, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrapf(err, "failed to read %s", t.listPath())
	}
	return 0, errors.Errorf("kprobe on %s not listed", symbol)
}
