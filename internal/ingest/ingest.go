// Package ingest assembles the editable word stream that the analysis
// passes operate on. It combines the word-level output of a speech
// recognizer with the silence ranges detected on the audio track:
//
//   - recognized words are cleaned and become word records, with known
//     filler words pre-marked as bad;
//   - silences overlapping a gap between words become silence records;
//   - gaps that neither words nor silences explain become inaudible
//     records, pre-selected for review.
//
// Record ids are assigned sequentially over the final stream.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
)

// Transcription is the word-level output of a speech recognizer.
type Transcription struct {
	Segments []Segment `json:"segments"`
}

// Segment is a single recognized utterance.
type Segment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []SegmentWord `json:"words"`
}

// SegmentWord is one recognized word with its timing.
type SegmentWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ParseTranscription decodes a recognizer result from r. Unknown fields are
// ignored; recognizers ship plenty of metadata beyond the segments.
func ParseTranscription(r io.Reader) (*Transcription, error) {
	var tr Transcription
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return nil, fmt.Errorf("ingest: decode transcription: %w", err)
	}
	return &tr, nil
}
