// Package logging builds the service's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and the optional rotating log file.
type Options struct {
	Level string
	File  string
}

// New returns a logger that writes human-readable lines to stdout and, when
// File is set, JSON lines to a rotating file.
func New(opts Options) (*zap.Logger, error) {
	return newLogger(opts, os.Stdout)
}

func newLogger(opts Options, console io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{newConsoleCore(console, level)}
	if opts.File != "" {
		fileCore, err := newFileCore(opts.File, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCore)
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// ParseLevel maps a config string to a zap level; empty means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

func newFileCore(path string, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	})

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "time",
		NameKey:      "logger",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level), nil
}

func newConsoleCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), level)
}
