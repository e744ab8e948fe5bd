// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

//go:build linux
// +build linux

// kestrel-introspect inspects the kernel ABI details the agent relies on.
package main

import (
	"os"

	"github.com/kestrelsec/kestrel-agent/cmd/kestrel-introspect/command"
)

func main() {
	if err := command.MakeCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
