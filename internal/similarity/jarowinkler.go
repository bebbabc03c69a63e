package similarity

import (
	"github.com/antzucaro/matchr"

	"github.com/MrWong99/cutmark/internal/token"
)

const (
	defaultJWMinScore         = 0.85
	defaultJWPhoneticMinScore = 0.70
)

// JaroWinklerOption is a functional option for configuring a
// [JaroWinklerMatcher].
type JaroWinklerOption func(*JaroWinklerMatcher)

// WithMinScore sets the minimum Jaro-Winkler score required when the tokens
// do not share a Double Metaphone code. Default: 0.85.
func WithMinScore(score float64) JaroWinklerOption {
	return func(m *JaroWinklerMatcher) {
		m.minScore = score
	}
}

// WithPhoneticMinScore sets the minimum Jaro-Winkler score required for a
// pair that shares a Double Metaphone code. Default: 0.70.
func WithPhoneticMinScore(score float64) JaroWinklerOption {
	return func(m *JaroWinklerMatcher) {
		m.phoneticMinScore = score
	}
}

// JaroWinklerMatcher is an alternative [Matcher] that ranks token pairs by
// Jaro-Winkler similarity. Pairs sharing a Double Metaphone code are
// accepted at a lower score than pairs that merely look alike, so sound-
// preserving misspellings pass while short unrelated words do not. Safe for
// concurrent use, the matcher is read-only after construction.
type JaroWinklerMatcher struct {
	minScore         float64
	phoneticMinScore float64
}

var _ Matcher = (*JaroWinklerMatcher)(nil)

// NewJaroWinklerMatcher returns a [JaroWinklerMatcher] configured with the
// supplied options.
func NewJaroWinklerMatcher(opts ...JaroWinklerOption) *JaroWinklerMatcher {
	m := &JaroWinklerMatcher{
		minScore:         defaultJWMinScore,
		phoneticMinScore: defaultJWPhoneticMinScore,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match reports whether a and b refer to the same word. Tokens that
// normalize to the empty string never match.
func (m *JaroWinklerMatcher) Match(a, b string) bool {
	ca := token.Normalize(a)
	cb := token.Normalize(b)
	if ca == "" || cb == "" {
		return false
	}

	score := matchr.JaroWinkler(ca, cb, false)
	if metaphoneOverlap(ca, cb) {
		return score >= m.phoneticMinScore
	}
	return score >= m.minScore
}

// metaphoneOverlap reports whether the two words share at least one
// non-empty Double Metaphone code.
func metaphoneOverlap(a, b string) bool {
	pa, sa := matchr.DoubleMetaphone(a)
	pb, sb := matchr.DoubleMetaphone(b)
	for _, code := range []string{pa, sa} {
		if code == "" {
			continue
		}
		if code == pb || code == sb {
			return true
		}
	}
	return false
}
