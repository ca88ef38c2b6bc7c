package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// FastHTTPHandler returns a fasthttp handler serving DefaultRegistry
func FastHTTPHandler() fasthttp.RequestHandler {
	return FastHTTPHandlerFor(DefaultRegistry)
}

// FastHTTPHandlerFor returns a fasthttp handler for a custom registry
func FastHTTPHandlerFor(registry *prometheus.Registry) fasthttp.RequestHandler {
	// Adapt standard http.Handler to fasthttp
	return fasthttpadaptor.NewFastHTTPHandler(HandlerFor(registry))
}

// HandlerFor returns an HTTP handler for a custom registry
func HandlerFor(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
