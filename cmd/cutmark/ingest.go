package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/analysis"
	"github.com/MrWong99/cutmark/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the word list from recognizer output and silences",
	Long: `Ingest runs the full preprocessing pipeline: the recognizer's word-level
JSON and an optional ffmpeg silencedetect log are woven into one word list,
filler words are pre-marked as bad, unexplained gaps become inaudible
records, and the repeat scan runs over the result. The list is written as
JSON, ready for align or for review.`,
	RunE: runIngest,
}

var (
	ingestTranscription string
	ingestSilences      string
	ingestFillers       []string
	ingestOut           string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestTranscription, "transcription", "", "path to the recognizer word-level JSON")
	ingestCmd.Flags().StringVar(&ingestSilences, "silences", "", "path to an ffmpeg silencedetect log")
	ingestCmd.Flags().StringArrayVar(&ingestFillers, "filler", nil, "filler word to pre-mark as bad (repeatable)")
	ingestCmd.Flags().StringVarP(&ingestOut, "output", "o", "", "output path for the word list (default: stdout)")
	ingestCmd.MarkFlagRequired("transcription")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(ingestTranscription)
	if err != nil {
		return fmt.Errorf("open transcription: %w", err)
	}
	tr, err := ingest.ParseTranscription(f)
	f.Close()
	if err != nil {
		return err
	}

	var silences []ingest.Silence
	if ingestSilences != "" {
		sf, err := os.Open(ingestSilences)
		if err != nil {
			return fmt.Errorf("open silence log: %w", err)
		}
		silences, err = ingest.ParseSilenceLog(sf)
		sf.Close()
		if err != nil {
			return err
		}
	}

	var opts []ingest.BuilderOption
	if len(ingestFillers) > 0 {
		opts = append(opts, ingest.WithFillerWords(ingestFillers))
	}
	ws := ingest.NewBuilder(opts...).Build(tr, silences)

	if len(ws) > 0 {
		analysis.New().Standalone(cmd.Context(), ws)
	}

	return writeWords(ingestOut, ws)
}
