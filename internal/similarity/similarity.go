// Package similarity decides whether two spoken-word tokens should be
// treated as the same word despite transcription noise.
//
// The default implementation proceeds in two stages:
//
//  1. Textual scoring: tokens are reduced to their normalized forms and
//     scored with [Ratio]. The acceptance threshold adapts to token length,
//     since a single wrong character weighs far more in a three letter word
//     than in a twelve letter one.
//
//  2. Phonetic fallback: pairs that score below the textual threshold but
//     above a floor are compared by [PhoneticCode], catching spellings that
//     diverge while the pronunciation stays the same ("setting" vs
//     "settings", "there" vs "their").
//
// An alternative matcher backed by Jaro-Winkler similarity and Double
// Metaphone encoding is provided by [JaroWinklerMatcher].
package similarity

import "github.com/MrWong99/cutmark/internal/token"

// Matcher reports whether two raw tokens refer to the same spoken word.
// Implementations normalize the inputs themselves; callers pass tokens as
// they appear in the script or transcript.
type Matcher interface {
	Match(a, b string) bool
}

// Length-adaptive acceptance thresholds for [RatioMatcher].
const (
	thresholdShort = 0.50 // fewer than 4 characters
	thresholdMid   = 0.65 // 4 to 7 characters
	thresholdLong  = 0.75 // more than 7 characters

	phoneticFloor = 0.50
)

// RatioOption is a functional option for configuring a [RatioMatcher].
type RatioOption func(*RatioMatcher)

// WithThresholds overrides the length-adaptive acceptance thresholds.
// short applies to normalized pairs whose longer side has fewer than 4
// characters, mid up to 7 characters and long beyond that.
// Defaults: 0.50, 0.65, 0.75.
func WithThresholds(short, mid, long float64) RatioOption {
	return func(m *RatioMatcher) {
		m.short = short
		m.mid = mid
		m.long = long
	}
}

// WithPhoneticFloor sets the minimum [Ratio] score at which two tokens with
// equal phonetic codes are still accepted. Default: 0.50.
func WithPhoneticFloor(floor float64) RatioOption {
	return func(m *RatioMatcher) {
		m.floor = floor
	}
}

// RatioMatcher scores token pairs with [Ratio] over their normalized forms
// using a threshold that adapts to token length, falling back to phonetic
// code comparison for borderline pairs. It is the default [Matcher] of the
// alignment engine. Safe for concurrent use, the matcher is read-only after
// construction.
type RatioMatcher struct {
	short, mid, long float64
	floor            float64
}

var _ Matcher = (*RatioMatcher)(nil)

// NewRatioMatcher returns a [RatioMatcher] configured with the supplied
// options.
func NewRatioMatcher(opts ...RatioOption) *RatioMatcher {
	m := &RatioMatcher{
		short: thresholdShort,
		mid:   thresholdMid,
		long:  thresholdLong,
		floor: phoneticFloor,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match reports whether a and b refer to the same word. Tokens that
// normalize to the empty string never match.
func (m *RatioMatcher) Match(a, b string) bool {
	ca := token.Normalize(a)
	cb := token.Normalize(b)
	if ca == "" || cb == "" {
		return false
	}

	sim := Ratio(ca, cb)

	threshold := m.long
	if length := max(len(ca), len(cb)); length < 4 {
		threshold = m.short
	} else if length <= 7 {
		threshold = m.mid
	}
	if sim >= threshold {
		return true
	}

	if sim >= m.floor {
		pa, pb := PhoneticCode(ca), PhoneticCode(cb)
		if pa != "" && pa == pb {
			return true
		}
	}
	return false
}
