package middleware

import "github.com/valyala/fasthttp"

// Middleware wraps a request handler
type Middleware func(next fasthttp.RequestHandler) fasthttp.RequestHandler

// Chain applies mws to h so that the first middleware is the outermost
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
