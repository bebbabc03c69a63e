package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/pkg/words"
)

// logLevel is the persistent --log-level flag value.
var logLevel string

// levelVar backs the process logger. The serve command hands it to the app
// so config reloads can adjust verbosity.
var levelVar = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "cutmark",
	Short: "Script-aware cut marking for recorded transcripts",
	Long: `Cutmark prepares the word list of a recording for rough-cut editing: it
aligns the spoken words against the script, marks mistakes, retakes and
repeated passages, and weaves recognizer output and detected silences into
one editable word list. The serve command exposes the same analyses over
HTTP, including an asynchronous job API with live progress streaming.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	levelVar.Set(config.LogLevel(logLevel).Level())
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelVar,
	})
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log verbosity: debug, info, warn or error")
}

// readWords loads a word list JSON file.
func readWords(path string) ([]*words.Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return words.Decode(f)
}

// writeWords writes ws to path, or to stdout when path is empty.
func writeWords(path string, ws []*words.Word) error {
	if path == "" {
		return words.Encode(os.Stdout, ws)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := words.Encode(f, ws); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
