package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/app"
	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/internal/observe"
	"github.com/MrWong99/cutmark/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cutmark HTTP service",
	Long: `Serve runs the analysis endpoints, the asynchronous job API with live
progress streaming, and the operational endpoints (health, readiness,
metrics). The config file is watched while running; log level, matcher
selection, engine tuning and ingest settings apply without a restart. An
explicit --log-level pins verbosity instead.`,
	RunE: runServe,
}

var serveConfig string

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "config.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "cutmark",
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Application ───────────────────────────────────────────────────────
	opts := []app.Option{}
	if !cmd.Flags().Changed("log-level") {
		// Verbosity follows the config file, reloads included.
		opts = append(opts, app.WithLogLevel(levelVar))
	}
	a, err := app.New(serveConfig, opts...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found", serveConfig)
		}
		return err
	}

	cfg := a.Config()
	slog.Info("cutmark starting",
		"config", serveConfig,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)
	printStartupSummary(cfg)

	slog.Info("server ready — press Ctrl+C to shut down")

	runErr := a.Run(ctx)

	// ── Graceful shutdown ─────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = server.DefaultAddr
	}
	matcher := cfg.Matcher.Name
	if matcher == "" {
		matcher = config.MatcherRatio
	}
	tls := "(disabled)"
	if cfg.Server.TLS != nil {
		tls = "enabled"
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         cutmark — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", addr)
	printRow("Matcher", matcher)
	printRow("TLS", tls)
	printRow("Filler words", fmt.Sprintf("%d configured", len(cfg.Ingest.FillerWords)))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}
