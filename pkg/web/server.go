package web

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadpool/pkg/core"
	"github.com/fluxorio/threadpool/pkg/observability/otel"
	"github.com/fluxorio/threadpool/pkg/web/middleware"
	"github.com/fluxorio/threadpool/pkg/web/middleware/security"
	"github.com/fluxorio/threadpool/pkg/worker"
)

// ErrServerClosed is returned by Serve when Close was called before it
var ErrServerClosed = errors.New("web: server closed")

// Submitter is the part of the worker pool the server needs
type Submitter interface {
	Submit(job worker.Job) error
}

// ServerConfig configures the pooled HTTP server
type ServerConfig struct {
	// StaticDir holds hello.html and 404.html; empty uses the built-in pages
	StaticDir string

	// SleepDelay is how long GET /sleep waits before answering
	SleepDelay time.Duration

	// MetricsPath and MetricsHandler expose metrics when both are set
	MetricsPath    string
	MetricsHandler fasthttp.RequestHandler

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Headers overrides the security headers; nil uses security.DefaultHeadersConfig
	Headers *security.HeadersConfig
}

// DefaultServerConfig returns the configuration of the demo server
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SleepDelay:   5 * time.Second,
		MetricsPath:  "/metrics",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// ServerStats counts connections seen by the accept loop
type ServerStats struct {
	Accepted int64 // connections handed to the pool
	Rejected int64 // connections the pool refused
	Served   int64 // connections whose job has finished
}

// Server accepts TCP connections and hands each one to a worker pool.
// The pool job serves exactly one HTTP request on the connection and closes it.
type Server struct {
	cfg    ServerConfig
	pool   Submitter
	logger core.Logger
	pages  *Pages
	http   *fasthttp.Server

	mu      sync.Mutex
	ln      net.Listener
	closing atomic.Bool

	accepted atomic.Int64
	rejected atomic.Int64
	served   atomic.Int64
}

// NewServer creates a server that dispatches connections to pool
func NewServer(cfg ServerConfig, pool Submitter, log core.Logger) (*Server, error) {
	if pool == nil {
		return nil, core.NewError("INVALID_SERVER", "pool cannot be nil", nil)
	}
	if cfg.SleepDelay < 0 {
		return nil, core.NewError("INVALID_SERVER", "sleep delay cannot be negative", nil)
	}
	if log == nil {
		log = core.Default()
	}

	pages, err := LoadPages(cfg.StaticDir)
	if err != nil {
		return nil, core.NewError("INVALID_SERVER", "cannot load static pages", err)
	}

	headers := security.DefaultHeadersConfig()
	if cfg.Headers != nil {
		headers = *cfg.Headers
	}

	s := &Server{
		cfg:    cfg,
		pool:   pool,
		logger: log,
		pages:  pages,
	}

	logging := middleware.DefaultLoggingConfig()
	logging.Logger = log
	if cfg.MetricsPath != "" {
		logging.SkipPaths = []string{cfg.MetricsPath}
	}

	s.http = &fasthttp.Server{
		Handler: middleware.Chain(s.route,
			withConnectionID,
			middleware.Logging(logging),
			otel.HTTPMiddleware,
			security.Headers(headers),
		),
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableKeepalive:      true,
		NoDefaultServerHeader: true,
		Logger:                fastLogger{log},
	}
	return s, nil
}

// ListenAndServe listens on the TCP address addr and calls Serve
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln and submits one job per connection.
// Temporary accept errors are retried with backoff. Serve returns nil after
// Close, or the first permanent accept error or submit error; ln is closed
// on return. A connection the pool refuses is closed before Serve returns.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("listening on %s", ln.Addr()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			if isTemporary(err) {
				backoff = nextBackoff(backoff)
				s.logger.Error(fmt.Sprintf("accept error: %v; retrying in %s", err, backoff))
				time.Sleep(backoff)
				continue
			}
			s.closeListener()
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		tc := &trackedConn{Conn: conn, id: uuid.NewString()}
		if err := s.pool.Submit(func() { s.serveConn(tc) }); err != nil {
			s.rejected.Add(1)
			_ = conn.Close()
			s.logger.WithFields(map[string]interface{}{
				"conn_id": tc.id,
				"remote":  conn.RemoteAddr().String(),
			}).Error(fmt.Sprintf("connection rejected: %v", err))
			s.closeListener()
			return fmt.Errorf("submit connection %s: %w", tc.id, err)
		}
		s.accepted.Add(1)
	}
}

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	if d *= 2; d > maxAcceptBackoff {
		d = maxAcceptBackoff
	}
	return d
}

// isTemporary reports accept errors worth retrying: timeouts and
// resource exhaustion such as EMFILE
func isTemporary(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		return true
	}
	return errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) || errors.Is(err, syscall.ECONNABORTED)
}

// closeListener stops accepting after Serve fails; a later Close is a no-op
func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Swap(true) {
		return
	}
	_ = s.ln.Close()
}

// serveConn runs on a pool worker. fasthttp closes the connection when done.
func (s *Server) serveConn(c *trackedConn) {
	defer s.served.Add(1)
	if err := s.http.ServeConn(c); err != nil {
		s.logger.WithFields(map[string]interface{}{"conn_id": c.id}).
			Debug(fmt.Sprintf("connection ended with error: %v", err))
	}
}

// Close stops accepting connections. Jobs already submitted keep running;
// the pool owner drains them.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Swap(true) {
		return nil
	}
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Addr returns the listener address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stats returns a snapshot of the connection counters
func (s *Server) Stats() ServerStats {
	return ServerStats{
		Accepted: s.accepted.Load(),
		Rejected: s.rejected.Load(),
		Served:   s.served.Load(),
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	if !ctx.IsGet() {
		s.writePage(ctx, fasthttp.StatusNotFound, s.pages.NotFound)
		return
	}

	switch {
	case path == "/":
		s.writePage(ctx, fasthttp.StatusOK, s.pages.Hello)
	case path == "/sleep":
		s.sleep(ctx)
	case s.cfg.MetricsHandler != nil && s.cfg.MetricsPath != "" && path == s.cfg.MetricsPath:
		s.cfg.MetricsHandler(ctx)
	default:
		s.writePage(ctx, fasthttp.StatusNotFound, s.pages.NotFound)
	}
}

// sleep holds the worker for SleepDelay under a child span of the request
func (s *Server) sleep(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue(core.RequestIDField).(string)
	spanCtx, span := otel.StartSpan(core.WithRequestID(otel.SpanContext(ctx), id), "sleep")
	defer span.End()

	s.logger.WithContext(spanCtx).Debug(fmt.Sprintf("sleeping %s before answering", s.cfg.SleepDelay))
	time.Sleep(s.cfg.SleepDelay)
	s.writePage(ctx, fasthttp.StatusOK, s.pages.Hello)
}

func (s *Server) writePage(ctx *fasthttp.RequestCtx, status int, body []byte) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(body)
}

// withConnectionID stores the connection id under core.RequestIDField
func withConnectionID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := strconv.FormatUint(ctx.ConnID(), 10)
		if tc, ok := ctx.Conn().(*trackedConn); ok {
			id = tc.id
		}
		ctx.SetUserValue(core.RequestIDField, id)
		ctx.Response.Header.Set("X-Request-ID", id)
		next(ctx)
	}
}

// trackedConn tags an accepted connection with its id
type trackedConn struct {
	net.Conn
	id string
}

// fastLogger routes fasthttp's internal messages to core.Logger
type fastLogger struct {
	l core.Logger
}

func (f fastLogger) Printf(format string, args ...interface{}) {
	f.l.Debug(fmt.Sprintf(format, args...))
}
