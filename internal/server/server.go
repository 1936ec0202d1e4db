// Package server exposes the manuscript pipeline over HTTP.
//
// Routes:
//
//	POST /api/analyze         run the pipeline and return the final state
//	POST /api/analyze/stream  run the pipeline and stream AG-UI events over SSE
//	GET  /api/runs            list archived runs
//	GET  /api/runs/:id        fetch one archived run
//	GET  /healthz             liveness check
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/store"
)

// Runner runs the manuscript pipeline. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, text string) (pipeline.AnalysisState, error)
}

// Server serves the HTTP API.
type Server struct {
	runner          Runner
	store           store.Store
	logger          *slog.Logger
	addr            string
	shutdownTimeout time.Duration
	engine          *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithStore archives every run in st and enables the /api/runs routes.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAddr sets the listen address. Defaults to ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithShutdownTimeout bounds graceful shutdown. Defaults to 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// New creates a server over runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:          runner,
		logger:          slog.Default(),
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors())

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/analyze", s.analyze)
	api.POST("/analyze/stream", s.analyzeStream)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// SSE responses stay open for the whole run, so no WriteTimeout.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
