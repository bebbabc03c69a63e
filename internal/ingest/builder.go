package ingest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/MrWong99/cutmark/pkg/words"
)

// SilenceText is the display text of generated silence records.
const SilenceText = "[SILENCE]"

const defaultInaudibleText = "inaudible"

// Gap handling thresholds, in seconds.
const (
	minInitialSilence = 0.1 // leading silence shorter than this is dropped
	minSilenceSlice   = 0.1 // silence overlap shorter than this is dropped
	minBareGap        = 0.5 // word gap without silence that counts as inaudible
	minEdgeGap        = 0.3 // leftover before/after a silence that counts as inaudible
)

// BuilderOption is a functional option for configuring a [Builder].
type BuilderOption func(*Builder)

// WithFillerWords sets the words that are pre-marked as bad the moment they
// enter the stream. Comparison is case-insensitive.
func WithFillerWords(fillers []string) BuilderOption {
	return func(b *Builder) {
		for _, f := range fillers {
			if t := strings.ToLower(strings.TrimSpace(f)); t != "" {
				b.fillers[t] = struct{}{}
			}
		}
	}
}

// WithInaudibleText sets the display text of generated inaudible records.
// Default: "inaudible".
func WithInaudibleText(text string) BuilderOption {
	return func(b *Builder) {
		b.inaudible = text
	}
}

// Builder assembles the editable word stream from a transcription and the
// silences detected on the audio track.
type Builder struct {
	fillers   map[string]struct{}
	inaudible string
}

// NewBuilder returns a [Builder] configured with the supplied options.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		fillers:   make(map[string]struct{}),
		inaudible: defaultInaudibleText,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build produces the word stream for tr, weaving silence and inaudible
// records into the gaps between spoken words. Records are numbered
// sequentially.
func (b *Builder) Build(tr *Transcription, silences []Silence) []*words.Word {
	var spoken []*words.Word
	for _, seg := range tr.Segments {
		first := true
		for _, sw := range seg.Words {
			clean := cleanWord(sw.Word)
			if clean == "" {
				continue
			}
			w := &words.Word{
				Text:         clean,
				Start:        sw.Start,
				End:          sw.End,
				Type:         words.TypeWord,
				SegStart:     seg.Start,
				SegEnd:       seg.End,
				SegmentStart: first,
			}
			if _, filler := b.fillers[strings.ToLower(clean)]; filler {
				w.Status = words.StatusBad
				w.Selected = true
			}
			first = false
			spoken = append(spoken, w)
		}
	}

	var out []*words.Word
	if len(silences) > 0 && len(spoken) > 0 && silences[0].End < spoken[0].Start {
		if s := silences[0]; s.End-s.Start > minInitialSilence {
			out = append(out, silenceWord(s.Start, s.End, 0, 0))
		}
	}
	if len(spoken) == 0 {
		return out
	}

	out = append(out, spoken[0])
	for i := 1; i < len(spoken); i++ {
		prev, curr := spoken[i-1], spoken[i]
		out = append(out, b.gapWords(prev.End, curr.Start, curr, silences)...)
		out = append(out, curr)
	}
	words.Renumber(out)
	return out
}

// gapWords explains the gap between two spoken words. Silences overlapping
// the gap become silence records; whatever stretch they leave unexplained
// becomes an inaudible record when long enough.
func (b *Builder) gapWords(gapStart, gapEnd float64, next *words.Word, silences []Silence) []*words.Word {
	var relevant []Silence
	for _, s := range silences {
		if s.End > gapStart && s.Start < gapEnd {
			relevant = append(relevant, s)
		}
	}
	sort.Slice(relevant, func(i, j int) bool { return relevant[i].Start < relevant[j].Start })

	var out []*words.Word
	if len(relevant) == 0 {
		if gapEnd-gapStart >= minBareGap {
			out = append(out, b.inaudibleWord(gapStart, gapEnd, next))
		}
		return out
	}

	pos := gapStart
	for _, s := range relevant {
		start := max(pos, s.Start)
		end := min(s.End, gapEnd)
		if start-pos > minEdgeGap {
			out = append(out, b.inaudibleWord(pos, start, next))
			pos = start
		}
		if end-start > minSilenceSlice {
			out = append(out, silenceWord(start, end, next.SegStart, next.SegEnd))
			pos = end
		}
	}
	if gapEnd-pos > minEdgeGap {
		out = append(out, b.inaudibleWord(pos, gapEnd, next))
	}
	return out
}

func (b *Builder) inaudibleWord(start, end float64, next *words.Word) *words.Word {
	return &words.Word{
		Text:      b.inaudible,
		Start:     start,
		End:       end,
		Type:      words.TypeInaudible,
		Status:    words.StatusInaudible,
		Selected:  true,
		Inaudible: true,
		SegStart:  next.SegStart,
		SegEnd:    next.SegEnd,
	}
}

func silenceWord(start, end, segStart, segEnd float64) *words.Word {
	return &words.Word{
		Text:     SilenceText,
		Start:    start,
		End:      end,
		Type:     words.TypeSilence,
		Status:   words.StatusSilence,
		SegStart: segStart,
		SegEnd:   segEnd,
	}
}

// cleanWord trims a recognized word and removes everything that is not a
// letter, digit, underscore, apostrophe, hyphen or inner whitespace.
func cleanWord(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '_' || r == '\'' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
