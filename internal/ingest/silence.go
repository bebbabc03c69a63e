package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// OpenEnd is the end timestamp assigned to a silence that was still running
// when the log ended.
const OpenEnd = 999999.0

// Silence is one detected silence range, in seconds.
type Silence struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start: (\d+\.?\d*)`)
	silenceEndRe   = regexp.MustCompile(`silence_end: (\d+\.?\d*)`)
)

// ParseSilenceLog extracts silence ranges from the log output of ffmpeg's
// silencedetect filter. Starts and ends are paired in order of appearance;
// a trailing unpaired start becomes a range ending at [OpenEnd].
func ParseSilenceLog(r io.Reader) ([]Silence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: read silence log: %w", err)
	}
	starts := timestamps(silenceStartRe, string(data))
	ends := timestamps(silenceEndRe, string(data))

	n := min(len(starts), len(ends))
	out := make([]Silence, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, Silence{Start: starts[i], End: ends[i]})
	}
	if len(starts) > len(ends) {
		out = append(out, Silence{Start: starts[len(starts)-1], End: OpenEnd})
	}
	return out, nil
}

func timestamps(re *regexp.Regexp, s string) []float64 {
	var out []float64
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		// The pattern only admits valid floats.
		v, _ := strconv.ParseFloat(m[1], 64)
		out = append(out, v)
	}
	return out
}
