// Package token provides the text normalization and tokenization helpers
// shared by the alignment and repeat detection pipelines.
//
// Two normalization strengths are used throughout:
//
//  1. [Tokenize] and [Clean] keep word-internal punctuation so that compound
//     tokens such as "192.168.0.1", "wi-fi" or "don't" survive splitting.
//     Only punctuation at the token edges is stripped.
//
//  2. [Normalize] reduces a token to bare ASCII letters and digits. This is
//     the canonical form used for exact comparison and fuzzy scoring, where
//     punctuation and casing must never cause a mismatch.
package token

import (
	"strings"
	"unicode"
)

// EdgePunctuation is the cutset stripped from token boundaries by [Tokenize]
// and [Clean]. Word-internal occurrences are preserved.
const EdgePunctuation = ".,?!:;\"'()[]{}"

// stopWords are short function words treated as interchangeable during
// alignment and skipped entirely during repeat detection.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "of": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"is": {}, "are": {}, "and": {}, "or": {},
}

// Normalize lowercases s and removes every rune that is not an ASCII letter
// or digit. The result may be empty.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize lowercases text, splits it on whitespace and strips
// [EdgePunctuation] from both ends of every token. Tokens that become empty
// are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.Trim(f, EdgePunctuation); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Clean prepares a single transcript word for alignment: [EdgePunctuation]
// is stripped from both ends and the remainder lowercased. Returns "" when
// nothing survives.
func Clean(s string) string {
	return strings.ToLower(strings.Trim(s, EdgePunctuation))
}

// IsStopWord reports whether s (already lowercased) is one of the tolerated
// function words.
func IsStopWord(s string) bool {
	_, ok := stopWords[s]
	return ok
}

// HasDigit reports whether any rune of s is a decimal digit.
func HasDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}

// Digits returns the decimal digits of s in order, with everything else
// removed.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
