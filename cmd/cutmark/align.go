package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/cutmark/internal/analysis"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Compare a word list against the script",
	Long: `Align reads the script and the recorded word list, matches the spoken
words against the script in order, and annotates every word: mistakes and
filler speech become bad, near-misses typo, abandoned takes repeat. The
annotated list is written as JSON; --missing additionally prints the script
words that never made it into the recording, one "index<TAB>word" line per
miss, before the list.`,
	RunE: runAlign,
}

var (
	alignScript  string
	alignWords   string
	alignOut     string
	alignMissing bool
)

func init() {
	alignCmd.Flags().StringVar(&alignScript, "script", "", "path to the script text file")
	alignCmd.Flags().StringVar(&alignWords, "words", "", "path to the word list JSON")
	alignCmd.Flags().StringVarP(&alignOut, "output", "o", "", "output path for the annotated word list (default: stdout)")
	alignCmd.Flags().BoolVar(&alignMissing, "missing", false, "also report script words missing from the recording")
	alignCmd.MarkFlagRequired("script")
	alignCmd.MarkFlagRequired("words")
	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, args []string) error {
	script, err := os.ReadFile(alignScript)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	ws, err := readWords(alignWords)
	if err != nil {
		return err
	}

	res := analysis.New().Compare(cmd.Context(), string(script), ws)

	if alignMissing {
		for _, i := range res.MissingScriptIndices {
			fmt.Printf("%d\t%s\n", i, res.ScriptTokens[i])
		}
	}
	return writeWords(alignOut, res.Words)
}
