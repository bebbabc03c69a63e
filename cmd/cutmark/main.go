// Command cutmark annotates recorded word lists for rough-cut video
// editing: it aligns the transcript against the script, marks mistakes and
// repeated takes, builds word lists from recognizer output, and serves the
// same analyses over HTTP.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
