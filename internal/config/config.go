// Package config provides the configuration schema, loader, and matcher
// registry for the cutmark service.
package config

import (
	"log/slog"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/internal/ingest"
)

// LogLevel controls log verbosity for the cutmark service.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to the corresponding [slog.Level]. Unset or unknown
// levels map to [slog.LevelInfo].
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for the cutmark service.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Matcher MatcherConfig `yaml:"matcher"`
	Engine  EngineConfig  `yaml:"engine"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// ServerConfig holds network and logging settings for the cutmark server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// MatcherConfig selects the word matcher used by the alignment engine.
// The Name field is used to look up the constructor in the [Registry].
type MatcherConfig struct {
	// Name selects the registered matcher implementation. Empty selects
	// [MatcherRatio].
	Name string `yaml:"name"`

	// Options holds matcher-specific tuning values. See the built-in
	// factories for the keys each matcher understands.
	Options map[string]any `yaml:"options"`
}

// EngineConfig tunes the alignment engine. Zero fields keep the engine
// defaults.
type EngineConfig struct {
	// RetakeWindow is how many script words behind the cursor the retake
	// step may scan back for an anchor. Default: 150.
	RetakeWindow int `yaml:"retake_window"`

	// DeletionHorizon is how many script words past the cursor the deletion
	// step may peek. Default: 4.
	DeletionHorizon int `yaml:"deletion_horizon"`

	// NumericRunLimit caps the number of consecutive tokens a digit run may
	// span. Default: 10.
	NumericRunLimit int `yaml:"numeric_run_limit"`
}

// Options converts the tuning values into [align.Option]s, leaving zero
// fields at the engine defaults.
func (e EngineConfig) Options() []align.Option {
	var opts []align.Option
	if e.RetakeWindow > 0 {
		opts = append(opts, align.WithRetakeWindow(e.RetakeWindow))
	}
	if e.DeletionHorizon > 0 {
		opts = append(opts, align.WithDeletionHorizon(e.DeletionHorizon))
	}
	if e.NumericRunLimit > 0 {
		opts = append(opts, align.WithNumericRunLimit(e.NumericRunLimit))
	}
	return opts
}

// IngestConfig tunes how raw transcriptions are turned into word lists.
type IngestConfig struct {
	// FillerWords are pre-marked as bad the moment the word list is built
	// (e.g., "um", "uh"). Comparison is case-insensitive.
	FillerWords []string `yaml:"filler_words"`

	// InaudibleText is the display text of generated inaudible records.
	// Default: "inaudible".
	InaudibleText string `yaml:"inaudible_text"`
}

// Options converts the ingest settings into [ingest.BuilderOption]s, leaving
// zero fields at the builder defaults.
func (i IngestConfig) Options() []ingest.BuilderOption {
	var opts []ingest.BuilderOption
	if len(i.FillerWords) > 0 {
		opts = append(opts, ingest.WithFillerWords(i.FillerWords))
	}
	if i.InaudibleText != "" {
		opts = append(opts, ingest.WithInaudibleText(i.InaudibleText))
	}
	return opts
}
