package analysis

import (
	"strings"
	"unicode"

	"github.com/MrWong99/cutmark/internal/token"
	"github.com/MrWong99/cutmark/pkg/words"
)

// Repeat scan tuning.
const (
	// repeatLookahead bounds how far ahead, in flow positions, the scan
	// searches for a second occurrence of the current word.
	repeatLookahead = 30

	// repeatMinRun is the shortest common run that counts as a repeat.
	repeatMinRun = 2
)

// flowWord is one entry of the linear word flow: the folded text and the
// index of the word it came from.
type flowWord struct {
	text string
	idx  int
}

// MarkRepeats detects repeated phrases in a word list without consulting a
// script. Earlier repeat marks are cleared first. Every run of two or more
// consecutive flow words that occurs again within the next thirty flow
// positions has both occurrences marked repeat and deselected. Silences,
// inaudible regions and stop words never enter the flow. Returns the number
// of words marked.
func MarkRepeats(ws []*words.Word) int {
	for _, w := range ws {
		if w.Status == words.StatusRepeat {
			w.Status = words.StatusNone
			w.Selected = false
		}
	}

	flow := make([]flowWord, 0, len(ws))
	for idx, w := range ws {
		if w.Type == words.TypeSilence || w.Type == words.TypeInaudible || w.Inaudible {
			continue
		}
		txt := foldWord(w.Text)
		if txt == "" || token.IsStopWord(txt) {
			continue
		}
		flow = append(flow, flowWord{text: txt, idx: idx})
	}

	marked := make(map[int]struct{})
	for i := range flow {
		limit := min(len(flow), i+repeatLookahead)
		bestLen, bestAt := 0, -1
		for j := i + 1; j < limit; j++ {
			if flow[i].text != flow[j].text {
				continue
			}
			k := 1
			for i+k < len(flow) && j+k < len(flow) && flow[i+k].text == flow[j+k].text {
				k++
			}
			if k >= repeatMinRun && k > bestLen {
				bestLen, bestAt = k, j
			}
		}
		if bestLen < repeatMinRun {
			continue
		}
		for m := 0; m < bestLen; m++ {
			marked[flow[i+m].idx] = struct{}{}
			marked[flow[bestAt+m].idx] = struct{}{}
		}
	}

	for idx := range marked {
		ws[idx].Status = words.StatusRepeat
		ws[idx].Selected = false
	}
	return len(marked)
}

// AbsorbInaudible merges inaudible gaps into surrounding repeat blocks: a
// run of inaudible records, silences in between tolerated, whose nearest
// non-silence neighbours on both sides are marked repeat becomes repeat
// itself. A cut over the repeated phrase then also removes the mumbled part.
// Returns the number of words absorbed.
func AbsorbInaudible(ws []*words.Word) int {
	if len(ws) < 3 {
		return 0
	}

	absorbed := 0
	for i := 0; i < len(ws); {
		if ws[i].Type == words.TypeSilence || !ws[i].Inaudible {
			i++
			continue
		}

		start := i
		end := i
		for end < len(ws) && (ws[end].Inaudible || ws[end].Type == words.TypeSilence) {
			end++
		}

		// The walk stops on the first effective word, so ws[end] is the right
		// neighbour.
		if repeatBefore(ws, start) && end < len(ws) && ws[end].Status == words.StatusRepeat {
			for k := start; k < end; k++ {
				if ws[k].Inaudible {
					ws[k].Status = words.StatusRepeat
					ws[k].Selected = false
					absorbed++
				}
			}
		}
		i = end
	}
	return absorbed
}

// repeatBefore reports whether the nearest non-silence word before idx is
// marked repeat.
func repeatBefore(ws []*words.Word, idx int) bool {
	for k := idx - 1; k >= 0; k-- {
		if ws[k].Type == words.TypeSilence {
			continue
		}
		return ws[k].Status == words.StatusRepeat
	}
	return false
}

// foldWord reduces a word to its comparable form for the repeat scan: word
// characters only, lowercased.
func foldWord(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
