package core

import "context"

// RequestIDField is the log field and fasthttp user value name of the request ID
const RequestIDField = "request_id"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		// Fail-fast: context cannot be nil
		panic("context cannot be nil")
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID stored in ctx, or ""
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
