package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// WithFields returns a new logger with structured fields
	WithFields(fields map[string]interface{}) Logger

	// WithContext returns a new logger carrying values found in ctx
	// (currently the request ID)
	WithContext(ctx context.Context) Logger
}

// LoggerConfig configures logger behavior
type LoggerConfig struct {
	// JSONOutput enables JSON structured output
	JSONOutput bool
	// Level sets the minimum log level (DEBUG, INFO, ERROR)
	Level string
}

// zapLogger implements Logger on top of a zap.SugaredLogger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewDefaultLogger creates a console logger at DEBUG level
func NewDefaultLogger() Logger {
	return NewLogger(LoggerConfig{
		JSONOutput: false,
		Level:      "DEBUG",
	})
}

// NewLogger creates a new logger with configuration.
// Errors go to stderr, everything else to stdout.
func NewLogger(config LoggerConfig) Logger {
	var encoder zapcore.Encoder
	if config.JSONOutput {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.MessageKey = "message"
		encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	minLevel := parseLevel(config.Level)
	low := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl >= zapcore.ErrorLevel
	})

	tee := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), high),
	)
	return NewZapLogger(zap.New(tee, zap.AddCaller(), zap.AddCallerSkip(1)))
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return NewZapLogger(zap.NewNop())
}

// parseLevel maps DEBUG/INFO/ERROR to zap levels.
// Unknown values fall back to DEBUG.
func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "INFO":
		return zapcore.InfoLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

// Error logs an error message
func (l *zapLogger) Error(args ...interface{}) {
	l.sugar.Error(fmt.Sprint(args...))
}

// Info logs an informational message
func (l *zapLogger) Info(args ...interface{}) {
	l.sugar.Info(fmt.Sprint(args...))
}

// Debug logs a debug message
func (l *zapLogger) Debug(args ...interface{}) {
	l.sugar.Debug(fmt.Sprint(args...))
}

// WithFields returns a new logger with structured fields
// Fields are included in all subsequent log entries
func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &zapLogger{sugar: l.sugar.With(kv...)}
}

// WithContext returns a new logger with context values
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	if requestID := GetRequestID(ctx); requestID != "" {
		return &zapLogger{sugar: l.sugar.With(RequestIDField, requestID)}
	}
	return l
}

// Package-level logger shared by components that were not handed one
var (
	defaultLoggerInstance Logger
	defaultLoggerMu       sync.RWMutex
)

// SetDefault replaces the package-level logger
func SetDefault(l Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLoggerInstance = l
}

// Default returns the package-level logger, creating a console logger on first use
func Default() Logger {
	defaultLoggerMu.RLock()
	l := defaultLoggerInstance
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLoggerInstance == nil {
		defaultLoggerInstance = NewDefaultLogger()
	}
	return defaultLoggerInstance
}
