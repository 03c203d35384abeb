package logger

import (
	"token_portfolio/internal/app/port"

	"go.uber.org/zap"
)

// zapAdapter implements port.Logger on top of a sugared zap logger, so services
// log with loose key/value pairs while the output stays structured.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a port.Logger backed by zl. A nil zl yields a no-op logger.
func NewZapAdapter(zl *zap.Logger) port.Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &zapAdapter{sugar: zl.Sugar()}
}

// NewNop returns a port.Logger that discards everything.
func NewNop() port.Logger {
	return NewZapAdapter(zap.NewNop())
}

// Named returns a child logger with the given name segment, when l supports it.
func Named(l port.Logger, name string) port.Logger {
	if a, ok := l.(*zapAdapter); ok {
		return &zapAdapter{sugar: a.sugar.Named(name)}
	}
	return l
}

// Info logs a message at InfoLevel.
func (a *zapAdapter) Info(msg string, args ...any) {
	a.sugar.Infow(msg, args...)
}

// Debug logs a message at DebugLevel.
func (a *zapAdapter) Debug(msg string, args ...any) {
	a.sugar.Debugw(msg, args...)
}

// Warn logs a message at WarnLevel.
func (a *zapAdapter) Warn(msg string, args ...any) {
	a.sugar.Warnw(msg, args...)
}

// Error logs a message at ErrorLevel.
func (a *zapAdapter) Error(msg string, args ...any) {
	a.sugar.Errorw(msg, args...)
}
