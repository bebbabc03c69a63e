package align

import (
	"sort"
	"strings"

	"github.com/MrWong99/cutmark/internal/token"
	"github.com/MrWong99/cutmark/pkg/words"
)

// Run executes the alignment and returns the annotated result. Statuses are
// written into the word list in place. Run must be called at most once per
// engine.
func (e *Engine) Run() *Result {
	steps := []func() bool{
		e.stepNumericRun,
		e.stepExact,
		e.stepStopWords,
		e.stepInsertion,
		e.stepFuzzy,
		e.stepDeletion,
		e.stepRetake,
	}

	for e.i < len(e.scriptTokens) && e.j < len(e.transTokens) {
		e.reportProgress(e.j)

		advanced := false
		for _, step := range steps {
			if step() {
				advanced = true
				break
			}
		}
		if !advanced {
			// No step could place the transcript word: it was never in the
			// script.
			e.mark(e.j, e.j, words.StatusBad)
			e.j++
		}
	}

	// The script ran out first: everything still unread is noise.
	if e.j < len(e.transTokens) {
		e.mark(e.j, len(e.transTokens)-1, words.StatusBad)
	}
	// The recording ran out first: the rest of the script was never read.
	for ; e.i < len(e.scriptTokens); e.i++ {
		e.missing = append(e.missing, e.i)
	}

	e.fillFragments()
	e.reportProgress(len(e.transTokens))

	return &Result{
		Words:                e.words,
		MissingScriptIndices: e.missing,
		ScriptTokens:         e.scriptTokens,
	}
}

// stepNumericRun compares runs of digit-bearing tokens by their digit
// strings alone, so numbers split differently on the two sides still align.
func (e *Engine) stepNumericRun() bool {
	if !token.HasDigit(e.scriptTokens[e.i]) {
		return false
	}
	sDigits, sCount := numericRun(e.scriptTokens, e.i, e.numericRunLimit)
	tDigits, tCount := numericRun(e.transTokens, e.j, e.numericRunLimit)
	if sDigits == "" || tDigits == "" || sDigits != tDigits {
		return false
	}

	e.mark(e.j, e.j+tCount-1, words.StatusNone)

	// Digit runs are sequences already, no neighbour confirmation needed.
	for off := 0; off < tCount; off++ {
		e.trace[e.j+off] = e.i
	}
	for off := 0; off < sCount; off++ {
		e.history[e.i+off] = min(e.j+off, e.j+tCount-1)
	}

	e.i += sCount
	e.j += tCount
	return true
}

func (e *Engine) stepExact() bool {
	if e.scriptNorm[e.i] != e.transNorm[e.j] {
		return false
	}
	e.matchAt(words.StatusNone)
	return true
}

func (e *Engine) stepStopWords() bool {
	if !token.IsStopWord(e.scriptTokens[e.i]) || !token.IsStopWord(e.transTokens[e.j]) {
		return false
	}
	e.matchAt(words.StatusNone)
	return true
}

// stepInsertion marks the current transcript word bad when the one after it
// matches the script cursor exactly.
func (e *Engine) stepInsertion() bool {
	if e.j+1 >= len(e.transTokens) || e.scriptNorm[e.i] != e.transNorm[e.j+1] {
		return false
	}
	e.mark(e.j, e.j, words.StatusBad)
	e.j++
	return true
}

func (e *Engine) stepFuzzy() bool {
	s, t := e.scriptTokens[e.i], e.transTokens[e.j]
	switch {
	case e.matcher.Match(s, t):
		e.matchAt(words.StatusTypo)

	case e.j+1 < len(e.transTokens) && e.matcher.Match(s, t+e.transTokens[e.j+1]):
		// One script word arrived split across two transcript words.
		e.mark(e.j, e.j+1, words.StatusTypo)
		e.history[e.i] = e.j + 1
		e.addTrace(e.j, e.i)
		e.addTrace(e.j+1, e.i)
		e.i++
		e.j += 2

	case e.i+1 < len(e.scriptTokens) && e.matcher.Match(s+e.scriptTokens[e.i+1], t):
		// Two script words were spoken as a single transcript word.
		e.mark(e.j, e.j, words.StatusTypo)
		e.history[e.i] = e.j
		e.history[e.i+1] = e.j
		e.addTrace(e.j, e.i)
		e.i += 2
		e.j++

	default:
		return false
	}
	return true
}

// stepDeletion peeks up to deletionHorizon script words ahead. A hit means
// the words between the cursor and the hit were skipped in the recording;
// they are reported missing and the script cursor jumps forward.
func (e *Engine) stepDeletion() bool {
	t := e.transTokens[e.j]
	for off := 1; off <= e.deletionHorizon; off++ {
		if e.i+off >= len(e.scriptTokens) {
			break
		}
		if e.scriptNorm[e.i+off] != e.transNorm[e.j] && !e.matcher.Match(e.scriptTokens[e.i+off], t) {
			continue
		}
		for skipped := 0; skipped < off; skipped++ {
			e.missing = append(e.missing, e.i+skipped)
		}
		e.i += off
		return true
	}
	return false
}

// stepRetake scans backwards for a script word the speaker jumped back to.
// An anchor candidate must be confirmed before the take between its last
// known transcript position and the cursor is marked as a repeat.
func (e *Engine) stepRetake() bool {
	t := e.transTokens[e.j]
	for k := e.i - 1; k >= max(0, e.i-e.retakeWindow); k-- {
		anchor := e.scriptNorm[k] == e.transNorm[e.j]
		if !anchor && len(e.scriptTokens[k]) > 3 {
			anchor = e.matcher.Match(e.scriptTokens[k], t)
		}
		if !anchor || !e.confirmRetake(k) {
			continue
		}
		jStart, ok := e.history[k]
		if !ok || jStart >= e.j {
			// Nothing usable recorded for this anchor, keep scanning.
			continue
		}
		e.mark(jStart, e.j, words.StatusRepeat)
		e.i = k + 1
		e.history[k] = e.j
		e.addTrace(e.j, k)
		e.j++
		return true
	}
	return false
}

// confirmRetake decides whether script position k really is where the
// speaker restarted. A long anchor that matches the transcript word exactly
// is trusted on its own; otherwise the script word after the anchor must
// reappear within the next three transcript words.
func (e *Engine) confirmRetake(k int) bool {
	if len(e.scriptNorm[k]) > 6 && e.scriptNorm[k] == e.transNorm[e.j] {
		return true
	}
	if k+1 >= len(e.scriptTokens) || e.j+1 >= len(e.transTokens) {
		return false
	}
	for lj := e.j + 1; lj < len(e.transTokens) && lj < e.j+4; lj++ {
		if e.scriptNorm[k+1] == e.transNorm[lj] || e.matcher.Match(e.scriptTokens[k+1], e.transTokens[lj]) {
			return true
		}
	}
	return false
}

// matchAt records a one-to-one match at the current cursors and advances
// both.
func (e *Engine) matchAt(status words.Status) {
	e.mark(e.j, e.j, status)
	e.history[e.i] = e.j
	e.addTrace(e.j, e.i)
	e.i++
	e.j++
}

// mark writes status to the words behind transcript positions t0 through t1
// inclusive. StatusNone clears any previous annotation; everything else
// overwrites it. Only bad words end up selected for cutting.
func (e *Engine) mark(t0, t1 int, status words.Status) {
	for k := t0; k <= t1; k++ {
		if k >= len(e.transTokens) {
			break
		}
		w := e.words[e.transIndices[k]]
		w.Status = words.StatusNone
		w.Selected = false
		if status != words.StatusNone {
			w.Status = status
			w.Selected = status == words.StatusBad
		}
	}
}

// addTrace records a transcript-to-script match only when it is part of a
// sequence: the previous pair already matched, or the following pair
// matches. Isolated hits stay out of the trace.
func (e *Engine) addTrace(t, s int) {
	if prev, ok := e.trace[t-1]; ok && prev == s-1 {
		e.trace[t] = s
		return
	}
	if t+1 >= len(e.transTokens) || s+1 >= len(e.scriptTokens) {
		return
	}
	if e.scriptNorm[s+1] == e.transNorm[t+1] || e.matcher.Match(e.scriptTokens[s+1], e.transTokens[t+1]) {
		e.trace[t] = s
	}
}

// fillFragments floods repeat marks over transcript spans that matched the
// same script word more than once. Occurrences are grouped into consecutive
// runs first, so a number spread over several tokens does not count as a
// repeat of itself.
func (e *Engine) fillFragments() {
	occurrences := make(map[int][]int)
	for t, s := range e.trace {
		occurrences[s] = append(occurrences[s], t)
	}
	for _, times := range occurrences {
		if len(times) < 2 {
			continue
		}
		sort.Ints(times)
		groups := 1
		for k := 1; k < len(times); k++ {
			if times[k] != times[k-1]+1 {
				groups++
			}
		}
		if groups < 2 {
			continue
		}
		e.mark(times[0], times[len(times)-1], words.StatusRepeat)
	}
}

func (e *Engine) reportProgress(done int) {
	if e.progress != nil {
		e.progress(done, len(e.transTokens))
	}
}

// numericRun collects the digit characters of up to limit consecutive
// tokens starting at start. A token without a digit ends the run. count is
// the number of tokens consumed.
func numericRun(tokens []string, start, limit int) (digits string, count int) {
	end := min(len(tokens), start+limit)
	var b strings.Builder
	for k := start; k < end; k++ {
		if !token.HasDigit(tokens[k]) {
			break
		}
		b.WriteString(token.Digits(tokens[k]))
		count++
	}
	return b.String(), count
}
