// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

// Package log implements the logging facade used across the agent, backed by
// seelog. Log lines emitted before SetupLogger runs are buffered and flushed
// once the logger exists, so early startup code does not need to care about
// initialization order.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cihub/seelog"
)

var (
	mu     sync.Mutex
	logger *agentLogger

	// Lines logged before SetupLogger are replayed on initialization.
	// This buffer should be very short lived.
	logsBuffer []func()
)

// agentLogger wraps a seelog logger with a level filter.
type agentLogger struct {
	inner seelog.LoggerInterface
	level seelog.LogLevel
}

// SetupLogger configures the process-wide logger and flushes any buffered
// early log lines.
func SetupLogger(l seelog.LoggerInterface, level string) {
	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		lvl = seelog.InfoLvl
	}

	mu.Lock()
	logger = &agentLogger{inner: l, level: lvl}
	buffered := logsBuffer
	logsBuffer = nil
	mu.Unlock()

	for _, line := range buffered {
		line()
	}
}

// SetupDefaultLogger configures a plain console logger at the given level.
// Used by CLI entry points that have no logging config of their own.
func SetupDefaultLogger(level string) error {
	l, err := seelog.LoggerFromWriterWithMinLevelAndFormat(os.Stdout, seelog.TraceLvl,
		"%Date(2006-01-02 15:04:05 MST) | %LEVEL | %Msg%n")
	if err != nil {
		return err
	}
	SetupLogger(l, level)
	return nil
}

// Flush flushes the underlying logger.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.inner.Flush()
	}
}

func logf(lvl seelog.LogLevel, emit func(l seelog.LoggerInterface), format string, params []interface{}) {
	mu.Lock()
	if logger == nil {
		logsBuffer = append(logsBuffer, func() { logf(lvl, emit, format, params) })
		mu.Unlock()
		return
	}
	l := logger
	mu.Unlock()

	if lvl >= l.level {
		emit(l.inner)
	}
}

// Debugf logs at the debug level.
func Debugf(format string, params ...interface{}) {
	logf(seelog.DebugLvl, func(l seelog.LoggerInterface) { l.Debugf(format, params...) }, format, params)
}

// Infof logs at the info level.
func Infof(format string, params ...interface{}) {
	logf(seelog.InfoLvl, func(l seelog.LoggerInterface) { l.Infof(format, params...) }, format, params)
}

// Warnf logs at the warn level and returns the formatted message as an error.
func Warnf(format string, params ...interface{}) error {
	err := fmt.Errorf(format, params...)
	logf(seelog.WarnLvl, func(l seelog.LoggerInterface) { _ = l.Warn(err.Error()) }, format, params)
	return err
}

// Errorf logs at the error level and returns the formatted message as an error.
func Errorf(format string, params ...interface{}) error {
	err := fmt.Errorf(format, params...)
	logf(seelog.ErrorLvl, func(l seelog.LoggerInterface) { _ = l.Error(err.Error()) }, format, params)
	return err
}
