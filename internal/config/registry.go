package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/cutmark/internal/similarity"
)

// Built-in matcher names.
const (
	// MatcherRatio selects [similarity.RatioMatcher], the default.
	MatcherRatio = "ratio"

	// MatcherJaroWinkler selects [similarity.JaroWinklerMatcher].
	MatcherJaroWinkler = "jarowinkler"
)

// ErrMatcherNotRegistered is returned by [Registry.CreateMatcher] when no
// factory has been registered under the requested matcher name.
var ErrMatcherNotRegistered = errors.New("config: matcher not registered")

// Registry maps matcher names to their constructor functions. It is safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	matchers map[string]func(MatcherConfig) (similarity.Matcher, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		matchers: make(map[string]func(MatcherConfig) (similarity.Matcher, error)),
	}
}

// DefaultRegistry returns a [Registry] with the built-in matchers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterMatcher(MatcherRatio, newRatioMatcher)
	r.RegisterMatcher(MatcherJaroWinkler, newJaroWinklerMatcher)
	return r
}

// RegisterMatcher registers a matcher factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterMatcher(name string, factory func(MatcherConfig) (similarity.Matcher, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers[name] = factory
}

// CreateMatcher instantiates the matcher selected by mc. An empty name
// selects [MatcherRatio]. Returns [ErrMatcherNotRegistered] if no factory
// has been registered for that name.
func (r *Registry) CreateMatcher(mc MatcherConfig) (similarity.Matcher, error) {
	name := mc.Name
	if name == "" {
		name = MatcherRatio
	}
	r.mu.RLock()
	factory, ok := r.matchers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMatcherNotRegistered, name)
	}
	return factory(mc)
}

// newRatioMatcher builds the default matcher. Options: "thresholds" (list of
// exactly three ratios: short, mid, long) and "phonetic_floor" (ratio).
func newRatioMatcher(mc MatcherConfig) (similarity.Matcher, error) {
	var opts []similarity.RatioOption

	ts, ok, err := optionFloatList(mc.Options, "thresholds")
	if err != nil {
		return nil, fmt.Errorf("config: matcher %s: %w", MatcherRatio, err)
	}
	if ok {
		if len(ts) != 3 {
			return nil, fmt.Errorf("config: matcher %s: option %q needs exactly 3 values, got %d", MatcherRatio, "thresholds", len(ts))
		}
		opts = append(opts, similarity.WithThresholds(ts[0], ts[1], ts[2]))
	}

	floor, ok, err := optionFloat(mc.Options, "phonetic_floor")
	if err != nil {
		return nil, fmt.Errorf("config: matcher %s: %w", MatcherRatio, err)
	}
	if ok {
		opts = append(opts, similarity.WithPhoneticFloor(floor))
	}
	return similarity.NewRatioMatcher(opts...), nil
}

// newJaroWinklerMatcher builds the alternative matcher. Options: "min_score"
// and "phonetic_min_score" (ratios).
func newJaroWinklerMatcher(mc MatcherConfig) (similarity.Matcher, error) {
	var opts []similarity.JaroWinklerOption

	score, ok, err := optionFloat(mc.Options, "min_score")
	if err != nil {
		return nil, fmt.Errorf("config: matcher %s: %w", MatcherJaroWinkler, err)
	}
	if ok {
		opts = append(opts, similarity.WithMinScore(score))
	}

	score, ok, err = optionFloat(mc.Options, "phonetic_min_score")
	if err != nil {
		return nil, fmt.Errorf("config: matcher %s: %w", MatcherJaroWinkler, err)
	}
	if ok {
		opts = append(opts, similarity.WithPhoneticMinScore(score))
	}
	return similarity.NewJaroWinklerMatcher(opts...), nil
}

// optionFloat extracts a numeric option from a matcher Options map.
// The second return reports whether the key was present.
func optionFloat(options map[string]any, key string) (float64, bool, error) {
	v, ok := options[key]
	if !ok {
		return 0, false, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return 0, false, fmt.Errorf("option %q: %w", key, err)
	}
	return f, true, nil
}

// optionFloatList extracts a list-of-numbers option from a matcher Options
// map.
func optionFloatList(options map[string]any, key string) ([]float64, bool, error) {
	v, ok := options[key]
	if !ok {
		return nil, false, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false, fmt.Errorf("option %q: expected a list of numbers, got %T", key, v)
	}
	out := make([]float64, 0, len(list))
	for i, item := range list {
		f, err := asFloat(item)
		if err != nil {
			return nil, false, fmt.Errorf("option %q[%d]: %w", key, i, err)
		}
		out = append(out, f)
	}
	return out, true, nil
}

// asFloat coerces the numeric types the YAML decoder produces.
func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
