// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"catalog-engine-go/internal/config"
)

// Rotation limits for LOG_FILE.
const (
	maxSizeMB  = 64
	maxBackups = 7
	maxAgeDays = 7
)

// New returns a logger writing to stdout in the configured format. When
// LogFile is set, JSON entries are also written to that file and rotated.
func New(cfg *config.Config) *zap.Logger {
	return newLogger(cfg, os.Stdout, fileSink(cfg))
}

func fileSink(cfg *config.Config) io.Writer {
	if cfg.LogFile == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
}

func newLogger(cfg *config.Config, stdout, file io.Writer) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}
	enabler := zap.NewAtomicLevelAt(level)

	var stdoutEncoder zapcore.Encoder
	if cfg.LogFormat == "console" {
		stdoutEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		stdoutEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(stdoutEncoder, zapcore.AddSync(stdout), enabler)
	if file != nil {
		core = zapcore.NewTee(
			core,
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(file),
				enabler,
			),
		)
	}

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", cfg.AppName))
}
