// Package server exposes the cutmark analysis passes over HTTP: synchronous
// endpoints for word lists that fit in one request/response, an asynchronous
// job API with live progress streaming for long recordings, and the
// operational endpoints (health, readiness, metrics).
//
// Every request decodes its own word list, hands it to exactly one analyzer
// run and encodes the outcome; word lists are never shared between runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/cutmark/internal/analysis"
	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/internal/health"
	"github.com/MrWong99/cutmark/internal/observe"
)

// Defaults for [Config] zero fields.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the dependencies and settings for a [Server].
type Config struct {
	// Addr is the TCP listen address. Defaults to [DefaultAddr].
	Addr string

	// Analyzer returns the analyzer for the current configuration. It is
	// called per request, so configuration reloads take effect without a
	// restart.
	Analyzer func() *analysis.Analyzer

	// Ingest returns the current ingest settings. Defaults to a provider of
	// zero settings.
	Ingest func() config.IngestConfig

	// Jobs runs the asynchronous alignment jobs.
	Jobs *Manager

	// Checkers are evaluated by /readyz in addition to the job manager
	// check.
	Checkers []health.Checker

	// CertFile and KeyFile switch the listener to TLS when both are set.
	CertFile string
	KeyFile  string

	// ShutdownTimeout bounds the graceful drain after the run context is
	// canceled. Defaults to [DefaultShutdownTimeout].
	ShutdownTimeout time.Duration

	// Logger defaults to [slog.Default].
	Logger *slog.Logger

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Server is the cutmark HTTP service.
type Server struct {
	analyzer  func() *analysis.Analyzer
	ingestCfg func() config.IngestConfig
	jobs      *Manager
	health    *health.Handler
	log       *slog.Logger
	metrics   *observe.Metrics

	httpServer      *http.Server
	certFile        string
	keyFile         string
	shutdownTimeout time.Duration

	mu sync.Mutex
	ln net.Listener
}

// New creates a [Server] from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("server: an analyzer provider is required")
	}
	if cfg.Jobs == nil {
		return nil, errors.New("server: a job manager is required")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("server: TLS needs both a certificate and a key file")
	}

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ingestCfg := cfg.Ingest
	if ingestCfg == nil {
		ingestCfg = func() config.IngestConfig { return config.IngestConfig{} }
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	checkers := append([]health.Checker{{Name: "jobs", Check: cfg.Jobs.Ready}}, cfg.Checkers...)

	s := &Server{
		analyzer:        cfg.Analyzer,
		ingestCfg:       ingestCfg,
		jobs:            cfg.Jobs,
		health:          health.New(checkers...),
		log:             log,
		metrics:         metrics,
		certFile:        cfg.CertFile,
		keyFile:         cfg.KeyFile,
		shutdownTimeout: shutdownTimeout,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the full route table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/align", s.handleAlign)
	mux.HandleFunc("POST /v1/repeats", s.handleRepeats)
	mux.HandleFunc("POST /v1/ingest", s.handleIngest)
	mux.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /v1/jobs/{id}/events", s.handleJobEvents)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)
	return observe.Middleware(s.metrics)(mux)
}

// Run listens and serves until ctx is canceled, then drains connections
// within the shutdown timeout and stops the job manager. Jobs that were
// already running complete before Run returns.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if s.certFile != "" {
			errCh <- s.httpServer.ServeTLS(ln, s.certFile, s.keyFile)
		} else {
			errCh <- s.httpServer.Serve(ln)
		}
	}()

	s.log.Info("server listening", "addr", ln.Addr().String(), "tls", s.certFile != "")

	select {
	case err := <-errCh:
		_ = s.jobs.Close()
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err = s.httpServer.Shutdown(shutdownCtx)
	if closeErr := s.jobs.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// ListenAddr returns the bound address once [Server.Run] has started
// listening, or nil before that. Useful with an ":0" configured address.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
