// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

package kernel

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ParseOSRelease parses an os-release(5) stream into a key/value map.
// Malformed lines are skipped.
func ParseOSRelease(r io.Reader) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[key] = strings.Trim(value, `"`)
	}
	return values
}

// ReadOSRelease reads and parses the given os-release file. A missing file is
// not an error: distributions without one simply yield an empty map.
func ReadOSRelease(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseOSRelease(f), nil
}
