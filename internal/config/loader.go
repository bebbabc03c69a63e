package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidMatcherNames lists the matcher names that ship with cutmark. Used by
// [Validate] to warn about unrecognised names; registrations on a [Registry]
// may add more.
var ValidMatcherNames = []string{MatcherRatio, MatcherJaroWinkler}

// matcherOptionKeys lists the option keys each built-in matcher understands.
var matcherOptionKeys = map[string][]string{
	MatcherRatio:       {"thresholds", "phonetic_floor"},
	MatcherJaroWinkler: {"min_score", "phonetic_min_score"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Matcher name validation only warns; an unknown name errors at create
	// time when no factory turns out to be registered for it.
	validateMatcherName(cfg.Matcher.Name)
	errs = append(errs, validateMatcherOptions(cfg.Matcher)...)

	// Engine tuning. Zero means default, so only negatives are rejected.
	if n := cfg.Engine.RetakeWindow; n < 0 {
		errs = append(errs, fmt.Errorf("engine.retake_window %d is invalid; must be greater than zero", n))
	}
	if n := cfg.Engine.DeletionHorizon; n < 0 {
		errs = append(errs, fmt.Errorf("engine.deletion_horizon %d is invalid; must be greater than zero", n))
	}
	if n := cfg.Engine.NumericRunLimit; n < 0 {
		errs = append(errs, fmt.Errorf("engine.numeric_run_limit %d is invalid; must be greater than zero", n))
	}

	return errors.Join(errs...)
}

// validateMatcherName logs a warning if name is non-empty and not one of the
// built-in matchers. It may be a typo or a custom registration.
func validateMatcherName(name string) {
	if name == "" {
		return
	}
	if slices.Contains(ValidMatcherNames, name) {
		return
	}
	slog.Warn("unknown matcher name, may be a typo or a custom registration",
		"name", name,
		"known", ValidMatcherNames,
	)
}

// validateMatcherOptions checks the tuning values of the built-in matchers.
// Scores are ratios in (0, 1]; the ratio matcher's threshold triple must be
// ascending.
func validateMatcherOptions(mc MatcherConfig) []error {
	name := mc.Name
	if name == "" {
		name = MatcherRatio
	}
	known, builtin := matcherOptionKeys[name]
	if !builtin {
		// Custom matchers validate their own options at create time.
		return nil
	}

	var errs []error
	for key := range mc.Options {
		if !slices.Contains(known, key) {
			slog.Warn("unknown matcher option", "matcher", name, "option", key)
		}
	}

	switch name {
	case MatcherRatio:
		ts, ok, err := optionFloatList(mc.Options, "thresholds")
		if err != nil {
			errs = append(errs, fmt.Errorf("matcher.options: %w", err))
		} else if ok {
			if len(ts) != 3 {
				errs = append(errs, fmt.Errorf("matcher.options.thresholds needs exactly 3 values (short, mid, long), got %d", len(ts)))
			} else {
				for i, v := range ts {
					if v <= 0 || v > 1 {
						errs = append(errs, fmt.Errorf("matcher.options.thresholds[%d] %v is out of range (0, 1]", i, v))
					}
				}
				if ts[0] > ts[1] || ts[1] > ts[2] {
					errs = append(errs, fmt.Errorf("matcher.options.thresholds %v must be ascending", ts))
				}
			}
		}
		errs = append(errs, validateScore(mc.Options, "phonetic_floor")...)

	case MatcherJaroWinkler:
		errs = append(errs, validateScore(mc.Options, "min_score")...)
		errs = append(errs, validateScore(mc.Options, "phonetic_min_score")...)
		minScore, okMin, _ := optionFloat(mc.Options, "min_score")
		phonetic, okPh, _ := optionFloat(mc.Options, "phonetic_min_score")
		if okMin && okPh && phonetic > minScore {
			errs = append(errs, fmt.Errorf("matcher.options.phonetic_min_score %v must not exceed min_score %v", phonetic, minScore))
		}
	}
	return errs
}

// validateScore checks that the named option, when set, is a ratio in (0, 1].
func validateScore(options map[string]any, key string) []error {
	v, ok, err := optionFloat(options, key)
	if err != nil {
		return []error{fmt.Errorf("matcher.options: %w", err)}
	}
	if !ok {
		return nil
	}
	if v <= 0 || v > 1 {
		return []error{fmt.Errorf("matcher.options.%s %v is out of range (0, 1]", key, v)}
	}
	return nil
}
