package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"authcode-listener/config"
)

type Logger struct {
	*slog.Logger
}

// NewLogger builds a logger from the logging section of the configuration
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	if cfg == nil {
		return nil, errors.New("logging config is required")
	}

	// Set up log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	writer, err := newWriter(cfg)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Encoding == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}, nil
}

// NewNopLogger returns a logger that discards everything, used by tests
func NewNopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newWriter(cfg *config.LogConfig) (io.Writer, error) {
	switch cfg.OutputPath {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	// Create logging directory if it doesn't exist
	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}, nil
}

// Fatal logs a message at Error level and exits the program
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Error(msg, args...)
	os.Exit(1)
}

// Error logs a message at Error level
func (l *Logger) Error(msg string, args ...interface{}) {
	l.Logger.Error(msg, args...)
}

// Warn logs a message at Warn level
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.Logger.Warn(msg, args...)
}

// Info logs a message at Info level
func (l *Logger) Info(msg string, args ...interface{}) {
	l.Logger.Info(msg, args...)
}

// Debug logs a message at Debug level
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Logger.Debug(msg, args...)
}

// With returns a logger that adds args to every record
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
