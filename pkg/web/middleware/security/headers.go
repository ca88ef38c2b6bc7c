package security

import (
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadpool/pkg/web/middleware"
)

// HeadersConfig configures security headers
type HeadersConfig struct {
	// HSTS (HTTP Strict Transport Security), only useful behind TLS
	HSTS       bool
	HSTSMaxAge int // in seconds, default 31536000 (1 year)

	// CSP (Content Security Policy)
	CSP string

	// X-Frame-Options
	XFrameOptions string // DENY or SAMEORIGIN

	// X-Content-Type-Options: nosniff
	XContentTypeOptions bool

	// Referrer-Policy
	ReferrerPolicy string

	// Custom headers
	CustomHeaders map[string]string
}

// DefaultHeadersConfig returns the headers served with the static pages
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                 "default-src 'self'",
		XContentTypeOptions: true,
		ReferrerPolicy:      "no-referrer",
		XFrameOptions:       "DENY",
	}
}

// Headers middleware adds security headers to responses
func Headers(config HeadersConfig) middleware.Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			h := &ctx.Response.Header

			if config.HSTS {
				maxAge := config.HSTSMaxAge
				if maxAge <= 0 {
					maxAge = 31536000
				}
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge))
			}
			if config.CSP != "" {
				h.Set("Content-Security-Policy", config.CSP)
			}
			if config.XFrameOptions != "" {
				h.Set("X-Frame-Options", config.XFrameOptions)
			}
			if config.XContentTypeOptions {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			for key, value := range config.CustomHeaders {
				h.Set(key, value)
			}

			next(ctx)
		}
	}
}
