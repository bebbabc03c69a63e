// Package align matches a written script against the word stream of a
// recorded read and annotates every transcript word with what happened to
// it: read correctly, mispronounced, abandoned and retaken, or never in the
// script at all.
//
// The engine walks both sides with two cursors and resolves each pair
// through a fixed priority of steps:
//
//  1. Numeric runs: consecutive tokens containing digits are compared by
//     their digit strings alone, so "192.168.0.1" aligns with "192 168 0 1".
//  2. Exact match on the normalized forms.
//  3. Stop-word tolerance: two function words pair up even when they differ.
//  4. Insertion lookahead: when the next transcript word matches exactly,
//     the current one is an insertion and is marked bad.
//  5. Fuzzy matching: a one-to-one typo, one script word split across two
//     transcript words, or two script words merged into one.
//  6. Deletion lookahead: a match a few script words ahead means the words
//     in between were skipped in the recording and are reported missing.
//  7. Retake detection: a match behind the script cursor, confirmed by the
//     following words, rewinds the script and marks the abandoned take as a
//     repeat.
//
// A transcript word no step can place is marked bad. After both sides are
// exhausted, transcript regions that matched the same script word more than
// once are flooded with repeat marks.
package align

import (
	"github.com/MrWong99/cutmark/internal/similarity"
	"github.com/MrWong99/cutmark/internal/token"
	"github.com/MrWong99/cutmark/pkg/words"
)

// Tuning defaults. Each can be overridden with the corresponding option.
const (
	DefaultRetakeWindow    = 150
	DefaultDeletionHorizon = 4
	DefaultNumericRunLimit = 10
)

// Result is the outcome of a comparison run.
type Result struct {
	// Words is the annotated word list. It is the same slice that was
	// passed to [New]; statuses are written in place.
	Words []*words.Word `json:"words"`

	// MissingScriptIndices lists the positions in ScriptTokens that never
	// appeared in the recording.
	MissingScriptIndices []int `json:"missing_script_indices"`

	// ScriptTokens is the tokenized script the indices refer to.
	ScriptTokens []string `json:"script_tokens"`
}

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithMatcher sets the fuzzy matcher used by the typo, deletion and retake
// steps. Default: [similarity.NewRatioMatcher].
func WithMatcher(m similarity.Matcher) Option {
	return func(e *Engine) {
		e.matcher = m
	}
}

// WithRetakeWindow sets how many script words behind the cursor the retake
// step may scan for an anchor. n <= 0 disables retake detection.
// Default: 150.
func WithRetakeWindow(n int) Option {
	return func(e *Engine) {
		e.retakeWindow = n
	}
}

// WithDeletionHorizon sets how many script words past the cursor the
// deletion step may peek. n <= 0 disables the step. Default: 4.
func WithDeletionHorizon(n int) Option {
	return func(e *Engine) {
		e.deletionHorizon = n
	}
}

// WithNumericRunLimit caps the number of consecutive tokens a digit run may
// span. n <= 0 disables numeric matching. Default: 10.
func WithNumericRunLimit(n int) Option {
	return func(e *Engine) {
		e.numericRunLimit = n
	}
}

// WithProgress registers a callback invoked as the run advances, with the
// number of transcript tokens consumed so far and the total. A final call
// with done == total signals completion. The callback runs on the calling
// goroutine.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// Engine aligns one script against one transcript. Engines are single use:
// create one with [New], call [Engine.Run] once and read the [Result].
type Engine struct {
	matcher         similarity.Matcher
	retakeWindow    int
	deletionHorizon int
	numericRunLimit int
	progress        func(done, total int)

	words []*words.Word

	scriptTokens []string
	scriptNorm   []string

	// Transcript tokens after filtering out silences, inaudible regions and
	// words that clean to nothing. transIndices maps a token position back
	// to its index in words.
	transTokens  []string
	transNorm    []string
	transIndices []int

	i, j int // script and transcript cursors

	// history records, per script index, the last transcript position it
	// matched at. The retake step uses it to locate the abandoned take.
	history map[int]int

	// trace records confirmed transcript-to-script matches and feeds the
	// fragment fill pass.
	trace map[int]int

	missing []int
}

// New builds an [Engine] for the given script text and word list. Words of
// type silence, words flagged inaudible and words whose text cleans to
// nothing are left out of the comparison and keep whatever status they
// already carry.
func New(script string, ws []*words.Word, opts ...Option) *Engine {
	e := &Engine{
		matcher:         similarity.NewRatioMatcher(),
		retakeWindow:    DefaultRetakeWindow,
		deletionHorizon: DefaultDeletionHorizon,
		numericRunLimit: DefaultNumericRunLimit,
		words:           ws,
		scriptTokens:    token.Tokenize(script),
		history:         make(map[int]int),
		trace:           make(map[int]int),
		missing:         []int{},
	}
	for idx, w := range ws {
		if !w.Comparable() {
			continue
		}
		clean := token.Clean(w.Text)
		if clean == "" {
			continue
		}
		e.transTokens = append(e.transTokens, clean)
		e.transIndices = append(e.transIndices, idx)
	}
	for _, o := range opts {
		o(e)
	}
	e.scriptNorm = normalizeAll(e.scriptTokens)
	e.transNorm = normalizeAll(e.transTokens)
	return e
}

func normalizeAll(tokens []string) []string {
	norm := make([]string, len(tokens))
	for i, t := range tokens {
		norm[i] = token.Normalize(t)
	}
	return norm
}
