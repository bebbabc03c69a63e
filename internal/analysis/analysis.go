// Package analysis bundles the two analysis entry points over a word list:
// the script comparison run and the script-free repeat scan. It owns the
// shared post-processing (inaudible absorption) and the telemetry around a
// run, so the CLI commands and HTTP handlers stay thin.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/internal/observe"
	"github.com/MrWong99/cutmark/pkg/words"
)

// Analyzer runs analysis passes over word lists. It holds no per-run state;
// each call owns the word list it is given. Safe for concurrent use as long
// as no two calls share a word list.
type Analyzer struct {
	log        *slog.Logger
	metrics    *observe.Metrics
	engineOpts []align.Option
}

// Option is a functional option for configuring an [Analyzer].
type Option func(*Analyzer)

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithEngineOptions sets alignment engine options applied to every
// [Analyzer.Compare] call, before any per-call options.
func WithEngineOptions(opts ...align.Option) Option {
	return func(a *Analyzer) {
		a.engineOpts = opts
	}
}

// New creates an [Analyzer].
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		log:     slog.Default(),
		metrics: observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Compare aligns script against the word list, writing statuses in place,
// then absorbs inaudible gaps enclosed by repeats. Per-call engine options
// are applied after the Analyzer-wide ones.
func (a *Analyzer) Compare(ctx context.Context, script string, ws []*words.Word, opts ...align.Option) *align.Result {
	ctx, span := observe.StartSpan(ctx, "analysis.compare")
	defer span.End()

	start := time.Now()
	engineOpts := append(append([]align.Option{}, a.engineOpts...), opts...)
	res := align.New(script, ws, engineOpts...).Run()
	AbsorbInaudible(res.Words)
	duration := time.Since(start)

	a.metrics.CompareDuration.Record(ctx, duration.Seconds())
	a.metrics.RecordAnalyzedWords(ctx, "compare", int64(len(ws)))
	a.metrics.RecordMissingWords(ctx, int64(len(res.MissingScriptIndices)))
	a.recordMarks(ctx, "compare", res.Words)

	a.log.LogAttrs(ctx, slog.LevelInfo, "comparison finished",
		slog.Int("script_tokens", len(res.ScriptTokens)),
		slog.Int("words", len(ws)),
		slog.Int("missing", len(res.MissingScriptIndices)),
		slog.Duration("duration", duration),
	)
	return res
}

// Standalone runs the script-free repeat scan over the word list, absorbs
// inaudible gaps enclosed by repeats, and returns the number of words the
// scan marked.
func (a *Analyzer) Standalone(ctx context.Context, ws []*words.Word) int {
	ctx, span := observe.StartSpan(ctx, "analysis.repeats")
	defer span.End()

	start := time.Now()
	count := MarkRepeats(ws)
	absorbed := AbsorbInaudible(ws)
	duration := time.Since(start)

	a.metrics.RepeatsDuration.Record(ctx, duration.Seconds())
	a.metrics.RecordAnalyzedWords(ctx, "repeats", int64(len(ws)))
	a.metrics.RecordMarks(ctx, "repeats", string(words.StatusRepeat), int64(count+absorbed))

	a.log.LogAttrs(ctx, slog.LevelInfo, "repeat scan finished",
		slog.Int("words", len(ws)),
		slog.Int("marked", count),
		slog.Int("absorbed", absorbed),
		slog.Duration("duration", duration),
	)
	return count
}

// recordMarks tallies the cut-relevant statuses over ws and records them.
func (a *Analyzer) recordMarks(ctx context.Context, mode string, ws []*words.Word) {
	counts := make(map[words.Status]int64)
	for _, w := range ws {
		switch w.Status {
		case words.StatusBad, words.StatusTypo, words.StatusRepeat:
			counts[w.Status]++
		}
	}
	for status, n := range counts {
		a.metrics.RecordMarks(ctx, mode, string(status), n)
	}
}
