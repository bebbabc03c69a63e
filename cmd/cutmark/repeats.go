package main

import (
	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/analysis"
)

var repeatsCmd = &cobra.Command{
	Use:   "repeats",
	Short: "Mark repeated passages without a script",
	Long: `Repeats scans the word list for phrases spoken more than once within a
short window, the tell-tale of a redone take, and marks both occurrences.
No script is needed. The annotated list is written as JSON; the marked-word
count is logged.`,
	RunE: runRepeats,
}

var (
	repeatsWords string
	repeatsOut   string
)

func init() {
	repeatsCmd.Flags().StringVar(&repeatsWords, "words", "", "path to the word list JSON")
	repeatsCmd.Flags().StringVarP(&repeatsOut, "output", "o", "", "output path for the annotated word list (default: stdout)")
	repeatsCmd.MarkFlagRequired("words")
	rootCmd.AddCommand(repeatsCmd)
}

func runRepeats(cmd *cobra.Command, args []string) error {
	ws, err := readWords(repeatsWords)
	if err != nil {
		return err
	}

	analysis.New().Standalone(cmd.Context(), ws)

	return writeWords(repeatsOut, ws)
}
