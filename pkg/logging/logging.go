// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level classifies a retained log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Topic groups log entries by subsystem.
type Topic string

const (
	TopicSync      Topic = "Sync"
	TopicLifecycle Topic = "Lifecycle"
	TopicPool      Topic = "Pool"
	TopicSharding  Topic = "Sharding"
	TopicCycles    Topic = "Cycles"
	TopicBootstrap Topic = "Bootstrap"
)

// NewLogger constructs the process logger. verbosity follows logr semantics:
// 0 is info, higher values enable debug output.
func NewLogger(verbosity int) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.DisableStacktrace = true

	zapLog, err := cfg.Build()
	if err != nil {
		// The production config only fails on invalid output paths, which
		// are not configurable here.
		panic(err)
	}
	return zapr.NewLogger(zapLog)
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() logr.Logger {
	return logr.Discard()
}
