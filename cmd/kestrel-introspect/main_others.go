// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

//go:build !linux
// +build !linux

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "kestrel-introspect only runs on linux")
	os.Exit(1)
}
