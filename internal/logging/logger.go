// Package logging provides the structured logger used across the stake
// hub, wrapping zap the same way the teacher's snow.Context.Log field
// wraps it for the rest of the node.
package logging

import "go.uber.org/zap"

// Logger is the structured logger handed to the hub and its
// sub-components. It intentionally exposes only the zap methods the hub
// actually calls, so a caller can substitute any zap.Logger (including
// zap.NewNop() in tests).
type Logger struct {
	l *zap.Logger
}

// New wraps an existing zap.Logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{l: l}
}

// NewNop returns a Logger that discards everything, for tests that don't
// care about log output.
func NewNop() Logger {
	return Logger{l: zap.NewNop()}
}

func (lg Logger) Info(msg string, fields ...zap.Field) {
	lg.l.Info(msg, fields...)
}

func (lg Logger) Warn(msg string, fields ...zap.Field) {
	lg.l.Warn(msg, fields...)
}

func (lg Logger) Error(msg string, fields ...zap.Field) {
	lg.l.Error(msg, fields...)
}

// With returns a Logger with the given fields attached to every
// subsequent log line, mirroring zap.Logger.With.
func (lg Logger) With(fields ...zap.Field) Logger {
	return Logger{l: lg.l.With(fields...)}
}
