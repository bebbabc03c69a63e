package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/internal/similarity"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  tls:
    cert_file: /etc/cutmark/tls/server.crt
    key_file: /etc/cutmark/tls/server.key

matcher:
  name: jarowinkler
  options:
    min_score: 0.84
    phonetic_min_score: 0.7

engine:
  retake_window: 150
  deletion_horizon: 4
  numeric_run_limit: 10

ingest:
  filler_words: [um, uh, erm]
  inaudible_text: "[unclear]"
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Server.TLS == nil {
		t.Fatal("server.tls: got nil, want populated")
	}
	if cfg.Server.TLS.CertFile != "/etc/cutmark/tls/server.crt" {
		t.Errorf("server.tls.cert_file: got %q", cfg.Server.TLS.CertFile)
	}
	if cfg.Matcher.Name != config.MatcherJaroWinkler {
		t.Errorf("matcher.name: got %q, want %q", cfg.Matcher.Name, config.MatcherJaroWinkler)
	}
	if got, ok := cfg.Matcher.Options["min_score"].(float64); !ok || got != 0.84 {
		t.Errorf("matcher.options.min_score: got %v, want 0.84", cfg.Matcher.Options["min_score"])
	}
	if cfg.Engine.RetakeWindow != 150 {
		t.Errorf("engine.retake_window: got %d, want 150", cfg.Engine.RetakeWindow)
	}
	if cfg.Engine.DeletionHorizon != 4 {
		t.Errorf("engine.deletion_horizon: got %d, want 4", cfg.Engine.DeletionHorizon)
	}
	if cfg.Engine.NumericRunLimit != 10 {
		t.Errorf("engine.numeric_run_limit: got %d, want 10", cfg.Engine.NumericRunLimit)
	}
	if len(cfg.Ingest.FillerWords) != 3 {
		t.Fatalf("ingest.filler_words: got %d entries, want 3", len(cfg.Ingest.FillerWords))
	}
	if cfg.Ingest.InaudibleText != "[unclear]" {
		t.Errorf("ingest.inaudible_text: got %q, want %q", cfg.Ingest.InaudibleText, "[unclear]")
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields).
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
matchers:
  name: ratio
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestLogLevel_Level(t *testing.T) {
	tests := []struct {
		in   config.LogLevel
		want string
	}{
		{config.LogDebug, "DEBUG"},
		{config.LogInfo, "INFO"},
		{config.LogWarn, "WARN"},
		{config.LogError, "ERROR"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := tt.in.Level().String(); got != tt.want {
			t.Errorf("LogLevel(%q).Level(): got %s, want %s", tt.in, got, tt.want)
		}
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownMatcher(t *testing.T) {
	reg := config.DefaultRegistry()
	_, err := reg.CreateMatcher(config.MatcherConfig{Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown matcher")
	}
	if !errors.Is(err, config.ErrMatcherNotRegistered) {
		t.Errorf("expected ErrMatcherNotRegistered, got: %v", err)
	}
}

func TestRegistry_EmptyNameSelectsRatio(t *testing.T) {
	reg := config.DefaultRegistry()
	m, err := reg.CreateMatcher(config.MatcherConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*similarity.RatioMatcher); !ok {
		t.Errorf("expected a *similarity.RatioMatcher, got %T", m)
	}
}

func TestRegistry_CreateJaroWinkler(t *testing.T) {
	reg := config.DefaultRegistry()
	m, err := reg.CreateMatcher(config.MatcherConfig{Name: config.MatcherJaroWinkler})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*similarity.JaroWinklerMatcher); !ok {
		t.Errorf("expected a *similarity.JaroWinklerMatcher, got %T", m)
	}
}

func TestRegistry_JaroWinklerOptionsApplied(t *testing.T) {
	reg := config.DefaultRegistry()

	relaxed, err := reg.CreateMatcher(config.MatcherConfig{Name: config.MatcherJaroWinkler})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strict, err := reg.CreateMatcher(config.MatcherConfig{
		Name: config.MatcherJaroWinkler,
		Options: map[string]any{
			"min_score":          1.0,
			"phonetic_min_score": 1.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A classic near-transposition pair: well above the defaults, below a
	// perfect-score requirement.
	if !relaxed.Match("martha", "marhta") {
		t.Error("default thresholds should accept martha/marhta")
	}
	if strict.Match("martha", "marhta") {
		t.Error("min_score 1.0 should reject martha/marhta")
	}
	if !strict.Match("martha", "martha") {
		t.Error("identical tokens should match at any threshold")
	}
}

func TestRegistry_RatioOptionsApplied(t *testing.T) {
	reg := config.DefaultRegistry()

	relaxed, err := reg.CreateMatcher(config.MatcherConfig{Name: config.MatcherRatio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strict, err := reg.CreateMatcher(config.MatcherConfig{
		Name: config.MatcherRatio,
		Options: map[string]any{
			"thresholds":     []any{0.99, 0.99, 0.99},
			"phonetic_floor": 1.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !relaxed.Match("problem", "prowe") {
		t.Error("default thresholds should accept problem/prowe")
	}
	if strict.Match("problem", "prowe") {
		t.Error("thresholds of 0.99 should reject problem/prowe")
	}
	if !strict.Match("problem", "problem") {
		t.Error("identical tokens should match at any threshold")
	}
}

func TestRegistry_BadOptionType(t *testing.T) {
	reg := config.DefaultRegistry()
	_, err := reg.CreateMatcher(config.MatcherConfig{
		Name:    config.MatcherRatio,
		Options: map[string]any{"phonetic_floor": "high"},
	})
	if err == nil {
		t.Fatal("expected error for non-numeric option, got nil")
	}
	if !strings.Contains(err.Error(), "phonetic_floor") {
		t.Errorf("error should mention the option key, got: %v", err)
	}
}

func TestRegistry_CustomMatcher(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubMatcher{}
	reg.RegisterMatcher("stub", func(mc config.MatcherConfig) (similarity.Matcher, error) {
		return want, nil
	})
	got, err := reg.CreateMatcher(config.MatcherConfig{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned matcher is not the expected instance")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterMatcher("broken", func(mc config.MatcherConfig) (similarity.Matcher, error) {
		return nil, wantErr
	})
	_, err := reg.CreateMatcher(config.MatcherConfig{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}

// stubMatcher satisfies similarity.Matcher for registry tests.
type stubMatcher struct{}

func (*stubMatcher) Match(a, b string) bool { return a == b }
