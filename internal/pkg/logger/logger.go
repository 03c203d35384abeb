package logger

import (
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config level string onto a zap level. Unknown strings fall back to info.
func ParseLevel(levelStr string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return zapcore.DebugLevel, true
	case "INFO", "":
		return zapcore.InfoLevel, true
	case "WARN", "WARNING":
		return zapcore.WarnLevel, true
	case "ERROR":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// New builds the production JSON zap logger at the given level.
func New(levelStr string) (*zap.Logger, error) {
	level, ok := ParseLevel(levelStr)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	if !ok {
		zl.Warn("Invalid log level string, defaulting to INFO", zap.String("input", levelStr))
	}
	return zl, nil
}

// InstallSlog routes the standard log/slog default logger into zl's core.
func InstallSlog(zl *zap.Logger) {
	slog.SetDefault(slog.New(zapslog.NewHandler(zl.Core())))
}
