// Package words defines the timed word records shared across all cutmark
// packages.
//
// A word list is produced by an external transcription and silence-detection
// pipeline (or by [github.com/MrWong99/cutmark/internal/ingest] from that
// pipeline's raw output), annotated in place by the analysis passes, and
// consumed by downstream review and cut tooling. The JSON field names follow
// the upstream producer's format, so a list can round-trip through cutmark
// without losing fields.
package words

import (
	"encoding/json"
	"fmt"
	"io"
)

// Type discriminates the three kinds of records in a word list.
type Type string

const (
	// TypeWord is a spoken word with timestamps.
	TypeWord Type = "word"

	// TypeSilence is a detected silence span. Silence records never enter
	// the comparable token stream.
	TypeSilence Type = "silence"

	// TypeInaudible is a gap where speech is presumed but nothing was
	// transcribed.
	TypeInaudible Type = "inaudible"
)

// IsValid reports whether t is a recognised record type.
func (t Type) IsValid() bool {
	switch t {
	case TypeWord, TypeSilence, TypeInaudible:
		return true
	}
	return false
}

// Status is the classification written onto a record. The empty value means
// the record is unclassified (or matched the script cleanly).
type Status string

const (
	StatusNone      Status = ""
	StatusBad       Status = "bad"
	StatusTypo      Status = "typo"
	StatusRepeat    Status = "repeat"
	StatusSilence   Status = "silence"
	StatusInaudible Status = "inaudible"
)

// IsValid reports whether s is a recognised status. The empty status is
// valid: it marks a record with no classification.
func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusBad, StatusTypo, StatusRepeat, StatusSilence, StatusInaudible:
		return true
	}
	return false
}

// Word is one record of a transcription word list. Start/End and the segment
// bounds are seconds from the start of the recording.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  Type    `json:"type"`

	// Status is the analysis classification. Empty means unclassified or a
	// clean match.
	Status Status `json:"status,omitempty"`

	// Selected marks the record as pre-selected for removal by the
	// downstream cut tooling.
	Selected bool `json:"selected"`

	// Inaudible marks presumed-speech gaps. Set together with
	// [TypeInaudible] by the ingest builder.
	Inaudible bool `json:"is_inaudible,omitempty"`

	// SegStart/SegEnd are the bounds of the transcription segment the word
	// came from.
	SegStart float64 `json:"seg_start"`
	SegEnd   float64 `json:"seg_end"`

	// SegmentStart is true on the first word of each transcription segment.
	SegmentStart bool `json:"is_segment_start"`

	// ID is the record's position in the list, assigned by [Renumber].
	ID int `json:"id"`
}

// Comparable reports whether the record takes part in script alignment.
// Silence and inaudible records are excluded; they keep their ingest status
// unless a surrounding repeat span absorbs them.
func (w *Word) Comparable() bool {
	return w.Type != TypeSilence && !w.Inaudible
}

// Decode reads a JSON array of word records from r.
func Decode(r io.Reader) ([]*Word, error) {
	var ws []*Word
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return nil, fmt.Errorf("words: decode: %w", err)
	}
	return ws, nil
}

// Encode writes ws to w as an indented JSON array.
func Encode(w io.Writer, ws []*Word) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ws); err != nil {
		return fmt.Errorf("words: encode: %w", err)
	}
	return nil
}

// Renumber assigns sequential IDs to ws in list order.
func Renumber(ws []*Word) {
	for i, w := range ws {
		w.ID = i
	}
}

// Segments groups ws into transcription segments. A new group starts at every
// record with SegmentStart set; records before the first such marker form the
// leading group.
func Segments(ws []*Word) [][]*Word {
	var segs [][]*Word
	var cur []*Word
	for _, w := range ws {
		if w.SegmentStart && len(cur) > 0 {
			segs = append(segs, cur)
			cur = nil
		}
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}
