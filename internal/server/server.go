// Package server exposes random draws and health checks over HTTP.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/randomizedcoder/trng/internal/batch"
	"github.com/randomizedcoder/trng/internal/randomorg"
)

// Drawer is satisfied by *batch.Runner.
type Drawer interface {
	Draw(ctx context.Context, item batch.Item) (*batch.Result, error)
	Run(ctx context.Context, items []batch.Item) batch.Outcomes
}

// Defaults are the bounds used when a request omits min or max.
type Defaults struct {
	Min int64
	Max int64
}

// writeHeadroom is added to the fetch timeout to size WriteTimeout.
const writeHeadroom = 5 * time.Second

// Server serves the draw API plus /health and /ready.
type Server struct {
	port         int
	logger       *zap.Logger
	drawer       Drawer
	defaults     Defaults
	writeTimeout time.Duration
	server       *http.Server
	ready        atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithFetchTimeout sizes the write timeout so a response can still be
// written after a fetch that runs for the full d.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = writeTimeoutFor(d)
	}
}

// New creates a new Server. It reports not ready until Start is listening.
func New(port int, drawer Drawer, defaults Defaults, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		port:         port,
		logger:       logger,
		drawer:       drawer,
		defaults:     defaults,
		writeTimeout: writeTimeoutFor(randomorg.DefaultTimeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func writeTimeoutFor(fetch time.Duration) time.Duration {
	if fetch <= 0 {
		fetch = randomorg.DefaultTimeout
	}
	return fetch + writeHeadroom
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/v1/integer", s.handleInteger)
	mux.HandleFunc("/v1/integers", s.handleIntegers)
	return otelhttp.NewHandler(mux, "trng")
}

// Start begins serving and marks the server ready once it is listening.
// It blocks until the server is shut down or fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.logger.Error("server listen failed", zap.Error(err))
		return err
	}

	s.logger.Info("server starting",
		zap.Int("port", s.port),
		zap.Duration("write_timeout", s.writeTimeout),
	)
	s.ready.Store(true)

	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		s.ready.Store(false)
		s.logger.Error("server error", zap.Error(err))
		return err
	}

	return nil
}

// Shutdown marks the server not ready and stops it gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)

	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// SetReady updates the readiness status. Clearing it before Shutdown lets
// load balancers drain the instance while requests still complete.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady returns the current readiness status.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte("ok"))
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("ready"))
		}
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("not ready"))
		}
	}
}
