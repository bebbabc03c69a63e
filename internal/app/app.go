// Package app wires the cutmark subsystems into a running service.
//
// The App owns the full serve-mode lifecycle: New loads the configuration
// and connects the analysis and HTTP subsystems, Run serves until the
// context is cancelled, and Shutdown tears everything down in order. While
// running, the config file is watched and the safe subset of changes (log
// level, matcher selection, engine tuning, ingest settings) is applied
// without a restart; listen address and TLS changes require one.
//
// For testing, inject pre-built pieces via functional options. When an
// option is not provided, New creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/internal/analysis"
	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/internal/server"
)

// App owns the subsystem lifetimes of the cutmark service.
type App struct {
	cfg      *config.Config
	registry *config.Registry
	level    *slog.LevelVar

	// Hot-reloadable state. The analyzer and the ingest settings are swapped
	// whole on a config change; requests and jobs picked up afterwards see
	// the new values.
	analyzer  atomic.Pointer[analysis.Analyzer]
	ingestCfg atomic.Pointer[config.IngestConfig]

	jobs    *server.Manager
	srv     *server.Server
	watcher *config.Watcher

	watchInterval time.Duration

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithConfig runs the app from a fixed config instead of loading and
// watching a file. The config path passed to New is ignored.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithRegistry injects a matcher registry instead of the default one.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithLogLevel hands the app the level var of the process logger so config
// reloads can adjust verbosity.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithWatchInterval sets the config file polling interval.
func WithWatchInterval(d time.Duration) Option {
	return func(a *App) { a.watchInterval = d }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. configPath names the
// YAML config file that is loaded and then watched for changes; use Option
// functions to inject test doubles.
func New(configPath string, opts ...Option) (*App, error) {
	a := &App{
		registry: config.DefaultRegistry(),
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Configuration ─────────────────────────────────────────────────
	if a.cfg == nil {
		var watchOpts []config.WatcherOption
		if a.watchInterval > 0 {
			watchOpts = append(watchOpts, config.WithInterval(a.watchInterval))
		}
		w, err := config.NewWatcher(configPath, a.applyConfig, watchOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: load config: %w", err)
		}
		a.watcher = w
		a.cfg = w.Current()
		a.closers = append(a.closers, func() error {
			w.Stop()
			return nil
		})
	}
	if a.level != nil {
		a.level.Set(a.cfg.Server.LogLevel.Level())
	}

	// ── 2. Analysis ──────────────────────────────────────────────────────
	an, err := a.buildAnalyzer(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("app: init analyzer: %w", err)
	}
	a.analyzer.Store(an)
	a.storeIngest(a.cfg.Ingest)

	// ── 3. Job manager ───────────────────────────────────────────────────
	jobs, err := server.NewManager(server.ManagerConfig{
		Analyzer: a.Analyzer,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init job manager: %w", err)
	}
	a.jobs = jobs
	a.closers = append(a.closers, jobs.Close)

	// ── 4. HTTP server ───────────────────────────────────────────────────
	srvCfg := server.Config{
		Addr:     a.cfg.Server.ListenAddr,
		Analyzer: a.Analyzer,
		Ingest:   a.Ingest,
		Jobs:     jobs,
	}
	if tls := a.cfg.Server.TLS; tls != nil {
		srvCfg.CertFile = tls.CertFile
		srvCfg.KeyFile = tls.KeyFile
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		return nil, fmt.Errorf("app: init server: %w", err)
	}
	a.srv = srv

	return a, nil
}

// Config returns the currently effective configuration.
func (a *App) Config() *config.Config {
	if a.watcher != nil {
		return a.watcher.Current()
	}
	return a.cfg
}

// Analyzer returns the current analyzer. Config reloads swap it; each
// request and job run fetches it fresh.
func (a *App) Analyzer() *analysis.Analyzer {
	return a.analyzer.Load()
}

// Ingest returns the current ingest settings.
func (a *App) Ingest() config.IngestConfig {
	return *a.ingestCfg.Load()
}

// ListenAddr returns the server's bound address once Run is serving, nil
// before.
func (a *App) ListenAddr() net.Addr {
	return a.srv.ListenAddr()
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and
// running jobs. It blocks.
func (a *App) Run(ctx context.Context) error {
	return a.srv.Run(ctx)
}

// ─── Config reload ───────────────────────────────────────────────────────────

// applyConfig is the watcher callback. It applies the hot-reloadable subset
// of a config change; everything else takes effect on the next restart.
func (a *App) applyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Any() {
		return
	}

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.MatcherChanged || d.EngineChanged {
		an, err := a.buildAnalyzer(new)
		if err != nil {
			// Keep serving with the previous analyzer; the file may be fixed
			// on the next write.
			slog.Warn("config reload: analyzer rebuild failed", "err", err)
		} else {
			a.analyzer.Store(an)
			name := new.Matcher.Name
			if name == "" {
				name = config.MatcherRatio
			}
			slog.Info("analyzer reconfigured", "matcher", name)
		}
	}

	if d.IngestChanged {
		a.storeIngest(new.Ingest)
		slog.Info("ingest settings reloaded", "filler_words", len(new.Ingest.FillerWords))
	}
}

// buildAnalyzer constructs an analyzer from the matcher and engine sections.
func (a *App) buildAnalyzer(cfg *config.Config) (*analysis.Analyzer, error) {
	matcher, err := a.registry.CreateMatcher(cfg.Matcher)
	if err != nil {
		return nil, err
	}
	engineOpts := append(cfg.Engine.Options(), align.WithMatcher(matcher))
	return analysis.New(analysis.WithEngineOptions(engineOpts...)), nil
}

func (a *App) storeIngest(ic config.IngestConfig) {
	a.ingestCfg.Store(&ic)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down the watcher and the job manager. It respects the
// context deadline: if ctx expires before all closers finish, the remaining
// closers are skipped and the context error is returned. Safe to call after
// Run has already drained the server.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
