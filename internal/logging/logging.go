// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alexanderramin/pdptrack/internal/config"
)

// New returns a logger for cfg. With cfg.File set, JSON lines go to a
// rotating file. Otherwise logs go to stderr, human-readable when stderr
// is a terminal.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		return build(rotator, zapcore.NewJSONEncoder(encoderConfig()), level), nil
	}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return build(os.Stderr, zapcore.NewConsoleEncoder(ec), level), nil
	}
	return build(os.Stderr, zapcore.NewJSONEncoder(encoderConfig()), level), nil
}

// NewWriter is New for an arbitrary sink, always JSON encoded.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	return build(w, zapcore.NewJSONEncoder(encoderConfig()), level)
}

func build(w io.Writer, enc zapcore.Encoder, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core)
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}
