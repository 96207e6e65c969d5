// Package httpapi exposes the dispatcher over HTTP.
//
// Routes:
//
//	POST /rpc/{service}/{procedure}   body {"params": {...}}, JSON or CBOR
//	GET  /healthz                      liveness plus a metadata store ping
//	GET  /metrics                      Prometheus exposition
//
// Every RPC request that reaches the dispatcher is answered with an
// envelope and HTTP 200, including failures; transport-level rejections
// (wrong method, oversize body, rate limit) use plain HTTP status codes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultMaxRequestBytes = 16 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr            string
	Dispatcher      *rpc.Dispatcher
	Sessions        session.Resolver
	Health          Pinger
	Gatherer        prometheus.Gatherer
	MaxRequestBytes int64
	ShutdownTimeout time.Duration
	RateLimitRPS    float64 // zero disables rate limiting
	RateLimitBurst  int
	Logger          *slog.Logger
}

// Server serves procedure calls over HTTP.
type Server struct {
	httpServer      *http.Server
	dispatcher      *rpc.Dispatcher
	sessions        session.Resolver
	health          Pinger
	maxRequestBytes int64
	shutdownTimeout time.Duration
	limiter         *rateLimiter
	logger          *slog.Logger
}

// New creates a server. Dispatcher is required.
func New(opts Options) (*Server, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("httpapi: dispatcher is required")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		dispatcher:      opts.Dispatcher,
		sessions:        opts.Sessions,
		health:          opts.Health,
		maxRequestBytes: opts.MaxRequestBytes,
		shutdownTimeout: opts.ShutdownTimeout,
		limiter:         newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		logger:          opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/{service}/{procedure}", s.handleRPC)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. In-flight requests get up to
// the shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("http server stopped")
		return <-errCh
	case err := <-errCh:
		return err
	}
}
