package align_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/pkg/words"
)

func wordList(texts ...string) []*words.Word {
	ws := make([]*words.Word, len(texts))
	for i, t := range texts {
		ws[i] = &words.Word{Text: t, Type: words.TypeWord, ID: i}
	}
	return ws
}

func statuses(ws []*words.Word) []words.Status {
	out := make([]words.Status, len(ws))
	for i, w := range ws {
		out[i] = w.Status
	}
	return out
}

// checkSelection verifies that among the compared words exactly the bad ones
// are selected for cutting.
func checkSelection(t *testing.T, ws []*words.Word) {
	t.Helper()
	for i, w := range ws {
		if !w.Comparable() {
			continue
		}
		if want := w.Status == words.StatusBad; w.Selected != want {
			t.Errorf("word %d (%q, status %q): selected = %v, want %v", i, w.Text, w.Status, w.Selected, want)
		}
	}
}

func TestEngine_PerfectRead(t *testing.T) {
	t.Parallel()

	ws := wordList("The", "quick", "brown", "fox")
	res := align.New("The quick brown fox.", ws).Run()

	for i, w := range res.Words {
		if w.Status != words.StatusNone {
			t.Errorf("word %d (%q): status = %q, want none", i, w.Text, w.Status)
		}
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
	if want := []string{"the", "quick", "brown", "fox"}; !slices.Equal(res.ScriptTokens, want) {
		t.Errorf("script tokens = %q, want %q", res.ScriptTokens, want)
	}
	checkSelection(t, res.Words)
}

func TestEngine_FillerInsertionMarkedBad(t *testing.T) {
	t.Parallel()

	ws := wordList("please", "open", "um", "settings")
	res := align.New("please open settings", ws).Run()

	want := []words.Status{words.StatusNone, words.StatusNone, words.StatusBad, words.StatusNone}
	if got := statuses(res.Words); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if !ws[2].Selected {
		t.Error("the inserted filler must be selected for cutting")
	}
	checkSelection(t, res.Words)
}

func TestEngine_TypoToleratedButMarked(t *testing.T) {
	t.Parallel()

	ws := wordList("open", "the", "configurashun", "panel")
	res := align.New("open the configuration panel", ws).Run()

	if ws[2].Status != words.StatusTypo {
		t.Fatalf("word 2 status = %q, want typo", ws[2].Status)
	}
	if ws[2].Selected {
		t.Error("a typo is kept in the cut, it must not be selected")
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
	checkSelection(t, res.Words)
}

func TestEngine_NumberSplitAcrossWords(t *testing.T) {
	t.Parallel()

	ws := wordList("server", "at", "192", "168", "0", "1", "responds")
	res := align.New("server at 192.168.0.1 responds", ws).Run()

	for i, w := range res.Words {
		if w.Status != words.StatusNone {
			t.Errorf("word %d (%q): status = %q, want none", i, w.Text, w.Status)
		}
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
}

func TestEngine_StopWordSwapTolerated(t *testing.T) {
	t.Parallel()

	ws := wordList("go", "to", "a", "store")
	res := align.New("go to the store", ws).Run()

	for i, w := range res.Words {
		if w.Status != words.StatusNone {
			t.Errorf("word %d (%q): status = %q, want none", i, w.Text, w.Status)
		}
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
}

func TestEngine_SkippedScriptWordsReportedMissing(t *testing.T) {
	t.Parallel()

	ws := wordList("alpha", "omega")
	res := align.New("alpha beta gamma omega", ws).Run()

	if want := []int{1, 2}; !slices.Equal(res.MissingScriptIndices, want) {
		t.Errorf("missing = %v, want %v", res.MissingScriptIndices, want)
	}
	for i, w := range res.Words {
		if w.Status != words.StatusNone {
			t.Errorf("word %d (%q): status = %q, want none", i, w.Text, w.Status)
		}
	}
}

func TestEngine_RetakeRewindsScript(t *testing.T) {
	t.Parallel()

	ws := wordList("the", "server", "needs", "the", "server", "needs", "a", "restart", "now")
	res := align.New("the server needs a restart now", ws).Run()

	// The abandoned take plus the words it was flooded together with read as
	// a repeat; only the opener and the completed phrase tail survive.
	want := []words.Status{
		words.StatusNone,
		words.StatusRepeat, words.StatusRepeat, words.StatusRepeat,
		words.StatusRepeat, words.StatusRepeat, words.StatusRepeat,
		words.StatusNone, words.StatusNone,
	}
	if got := statuses(ws); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	for i, w := range ws {
		if w.Selected {
			t.Errorf("word %d (%q): repeats must not be selected", i, w.Text)
		}
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
}

func TestEngine_RetakeWindowDisabled(t *testing.T) {
	t.Parallel()

	ws := wordList("the", "server", "needs", "the", "server", "needs", "a", "restart", "now")
	align.New("the server needs a restart now", ws, align.WithRetakeWindow(0)).Run()

	// Without rewinding the first take keeps its match and the second one
	// reads as noise until the script word after the jump aligns again.
	want := []words.Status{
		words.StatusNone, words.StatusNone, words.StatusNone, words.StatusNone,
		words.StatusBad, words.StatusBad, words.StatusBad,
		words.StatusNone, words.StatusNone,
	}
	if got := statuses(ws); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
}

func TestEngine_SplitWordInTranscript(t *testing.T) {
	t.Parallel()

	ws := wordList("face", "book", "is", "great")
	res := align.New("facebook is great", ws).Run()

	want := []words.Status{words.StatusTypo, words.StatusTypo, words.StatusNone, words.StatusNone}
	if got := statuses(res.Words); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	checkSelection(t, res.Words)
}

func TestEngine_MergedWordsInTranscript(t *testing.T) {
	t.Parallel()

	ws := wordList("everything", "works")
	res := align.New("every thing works", ws).Run()

	want := []words.Status{words.StatusTypo, words.StatusNone}
	if got := statuses(res.Words); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
}

func TestEngine_TrailingTranscriptMarkedBad(t *testing.T) {
	t.Parallel()

	ws := wordList("one", "plus", "extra", "chatter")
	res := align.New("one", ws).Run()

	want := []words.Status{words.StatusNone, words.StatusBad, words.StatusBad, words.StatusBad}
	if got := statuses(res.Words); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	checkSelection(t, res.Words)
}

func TestEngine_TrailingScriptReportedMissing(t *testing.T) {
	t.Parallel()

	ws := wordList("one")
	res := align.New("one two three", ws).Run()

	if want := []int{1, 2}; !slices.Equal(res.MissingScriptIndices, want) {
		t.Errorf("missing = %v, want %v", res.MissingScriptIndices, want)
	}
}

func TestEngine_EmptyScript(t *testing.T) {
	t.Parallel()

	ws := wordList("stray", "words")
	res := align.New("   ", ws).Run()

	for i, w := range res.Words {
		if w.Status != words.StatusBad {
			t.Errorf("word %d (%q): status = %q, want bad", i, w.Text, w.Status)
		}
	}
	if len(res.ScriptTokens) != 0 {
		t.Errorf("script tokens = %q, want none", res.ScriptTokens)
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingScriptIndices)
	}
}

func TestEngine_EmptyTranscript(t *testing.T) {
	t.Parallel()

	res := align.New("read me", nil).Run()

	if want := []int{0, 1}; !slices.Equal(res.MissingScriptIndices, want) {
		t.Errorf("missing = %v, want %v", res.MissingScriptIndices, want)
	}
}

func TestEngine_SkipsSilenceAndInaudible(t *testing.T) {
	t.Parallel()

	ws := []*words.Word{
		{Text: "hello", Type: words.TypeWord},
		{Text: "[SILENCE]", Type: words.TypeSilence, Status: words.StatusSilence},
		{Text: "(inaudible)", Type: words.TypeInaudible, Status: words.StatusInaudible, Inaudible: true, Selected: true},
		{Text: "...", Type: words.TypeWord},
		{Text: "world", Type: words.TypeWord},
	}
	align.New("hello world", ws).Run()

	if ws[0].Status != words.StatusNone || ws[4].Status != words.StatusNone {
		t.Errorf("spoken words: statuses = %q/%q, want none/none", ws[0].Status, ws[4].Status)
	}
	if ws[1].Status != words.StatusSilence {
		t.Errorf("silence status = %q, want silence untouched", ws[1].Status)
	}
	if ws[2].Status != words.StatusInaudible || !ws[2].Selected {
		t.Errorf("inaudible record changed: status %q, selected %v", ws[2].Status, ws[2].Selected)
	}
	if ws[3].Status != words.StatusNone || ws[3].Selected {
		t.Errorf("punctuation-only word must stay untouched, got status %q selected %v", ws[3].Status, ws[3].Selected)
	}
}

func TestEngine_ResetsPreviousMarks(t *testing.T) {
	t.Parallel()

	ws := wordList("um", "hello")
	ws[0].Status = words.StatusBad
	ws[0].Selected = true

	align.New("um hello", ws).Run()

	if ws[0].Status != words.StatusNone || ws[0].Selected {
		t.Errorf("matched word keeps old mark: status %q, selected %v", ws[0].Status, ws[0].Selected)
	}
}

func TestEngine_DeletionHorizonOption(t *testing.T) {
	t.Parallel()

	ws := wordList("alpha", "omega")
	res := align.New("alpha beta gamma omega", ws, align.WithDeletionHorizon(1)).Run()

	// With a horizon of one the jump to "omega" is out of reach, so the word
	// reads as noise and the remaining script counts as missing.
	if ws[1].Status != words.StatusBad {
		t.Errorf("word 1 status = %q, want bad", ws[1].Status)
	}
	if want := []int{1, 2, 3}; !slices.Equal(res.MissingScriptIndices, want) {
		t.Errorf("missing = %v, want %v", res.MissingScriptIndices, want)
	}
}

func TestEngine_ProgressCallback(t *testing.T) {
	t.Parallel()

	type call struct{ done, total int }
	var calls []call
	ws := wordList("a", "b", "c")
	align.New("a b c", ws, align.WithProgress(func(done, total int) {
		calls = append(calls, call{done, total})
	})).Run()

	if len(calls) < 2 {
		t.Fatalf("got %d progress calls, want at least 2", len(calls))
	}
	last := calls[len(calls)-1]
	if last.done != 3 || last.total != 3 {
		t.Errorf("final progress = %+v, want done == total == 3", last)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].done < calls[i-1].done {
			t.Fatalf("progress went backwards: %+v after %+v", calls[i], calls[i-1])
		}
	}
}
