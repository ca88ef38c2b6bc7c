package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadpool/pkg/core"
)

// LoggingConfig configures request logging middleware
type LoggingConfig struct {
	// Logger is the logger to use (default: core.Default())
	Logger core.Logger

	// LogRequestID includes request ID in logs
	LogRequestID bool

	// SkipPaths is a list of paths to skip logging
	SkipPaths []string
}

// DefaultLoggingConfig returns a default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:       core.Default(),
		LogRequestID: true,
		SkipPaths:    []string{"/metrics"},
	}
}

// Logging middleware logs HTTP requests and responses
func Logging(config LoggingConfig) Middleware {
	logger := config.Logger
	if logger == nil {
		logger = core.Default()
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			path := string(ctx.Path())
			for _, skipPath := range config.SkipPaths {
				if path == skipPath || strings.HasPrefix(path, skipPath) {
					next(ctx)
					return
				}
			}

			start := time.Now()
			method := string(ctx.Method())

			fields := map[string]interface{}{
				"method":      method,
				"path":        path,
				"remote_addr": ctx.RemoteIP().String(),
			}
			if config.LogRequestID {
				if id, ok := ctx.UserValue(core.RequestIDField).(string); ok {
					fields[core.RequestIDField] = id
				}
			}
			logger.WithFields(fields).Debug(fmt.Sprintf("Request: %s %s", method, path))

			next(ctx)

			duration := time.Since(start)
			statusCode := ctx.Response.StatusCode()
			fields["status"] = statusCode
			fields["duration_ms"] = duration.Milliseconds()

			switch {
			case statusCode >= 500:
				logger.WithFields(fields).Error(fmt.Sprintf("Request error: %s %s - %d", method, path, statusCode))
			case statusCode >= 400:
				logger.WithFields(fields).Info(fmt.Sprintf("Request warning: %s %s - %d", method, path, statusCode))
			default:
				logger.WithFields(fields).Info(fmt.Sprintf("Request completed: %s %s - %d", method, path, statusCode))
			}
		}
	}
}
