// Package loggingtest provides loggers for tests.
package loggingtest

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// NewLogger returns a debug logger that writes through tb.Log
func NewLogger(tb testing.TB) *zap.Logger {
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel))
}
