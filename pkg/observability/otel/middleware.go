package otel

import (
	"context"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/threadpool/pkg/core"
)

const spanContextKey = "span_context"

var propagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
)

// HTTPMiddleware wraps next so every request runs inside a server span.
// The request ID, when the caller stored one under core.RequestIDField, is
// recorded on the span.
func HTTPMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !IsInitialized() {
			// If OpenTelemetry not initialized, just call next handler
			next(ctx)
			return
		}

		parent := propagator.Extract(context.Background(), &requestHeaderCarrier{headers: &ctx.Request.Header})

		method := string(ctx.Method())
		path := string(ctx.Path())
		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		}
		if id, ok := ctx.UserValue(core.RequestIDField).(string); ok && id != "" {
			attrs = append(attrs, attribute.String("http.request_id", id))
		}

		spanCtx, span := StartSpan(parent, method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		ctx.SetUserValue(spanContextKey, spanCtx)

		next(ctx)

		statusCode := ctx.Response.StatusCode()
		span.SetAttributes(
			attribute.Int("http.response.status_code", statusCode),
			attribute.Int("http.response.body.size", len(ctx.Response.Body())),
		)
		if statusCode >= 500 {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		propagator.Inject(spanCtx, &responseHeaderCarrier{headers: &ctx.Response.Header})
	}
}

// SpanContext returns the context carrying the request span, or
// context.Background() when the request was not traced
func SpanContext(ctx *fasthttp.RequestCtx) context.Context {
	if c, ok := ctx.UserValue(spanContextKey).(context.Context); ok {
		return c
	}
	return context.Background()
}

// requestHeaderCarrier implements propagation.TextMapCarrier for fasthttp request headers
type requestHeaderCarrier struct {
	headers *fasthttp.RequestHeader
}

func (c *requestHeaderCarrier) Get(key string) string {
	return string(c.headers.Peek(key))
}

func (c *requestHeaderCarrier) Set(key, value string) {
	c.headers.Set(key, value)
}

func (c *requestHeaderCarrier) Keys() []string {
	// Not needed for extraction
	return nil
}

// responseHeaderCarrier implements propagation.TextMapCarrier for fasthttp response headers
type responseHeaderCarrier struct {
	headers *fasthttp.ResponseHeader
}

func (c *responseHeaderCarrier) Get(key string) string {
	return string(c.headers.Peek(key))
}

func (c *responseHeaderCarrier) Set(key, value string) {
	c.headers.Set(key, value)
}

func (c *responseHeaderCarrier) Keys() []string {
	// Not needed for injection
	return nil
}
