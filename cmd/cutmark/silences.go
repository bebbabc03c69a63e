package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/ingest"
)

var silencesCmd = &cobra.Command{
	Use:   "silences",
	Short: "Parse an ffmpeg silencedetect log into JSON ranges",
	Long: `Silences extracts the silence_start/silence_end pairs from the log output
of ffmpeg's silencedetect filter and prints them as a JSON array of
{start, end} ranges in seconds.`,
	RunE: runSilences,
}

var silencesLog string

func init() {
	silencesCmd.Flags().StringVar(&silencesLog, "log", "", "path to the ffmpeg silencedetect log")
	silencesCmd.MarkFlagRequired("log")
	rootCmd.AddCommand(silencesCmd)
}

func runSilences(cmd *cobra.Command, args []string) error {
	f, err := os.Open(silencesLog)
	if err != nil {
		return fmt.Errorf("open silence log: %w", err)
	}
	defer f.Close()

	silences, err := ingest.ParseSilenceLog(f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(silences)
}
