// Package subtitles encodes word-level timestamps into a SubRip caption track.
// Cues hold at most three words for a fast-cadence caption feel, and the
// time-code format is a wire contract consumed by the caption burner: it must
// be exactly HH:MM:SS,mmm with a comma before the milliseconds.
package subtitles

import (
	"fmt"
	"strings"
)

// WordsPerCue is the fixed batch size for caption grouping.
const WordsPerCue = 3

// fallbackTail extends the last unit when no explicit end time is given.
const fallbackTail = 0.5

// Unit is one timestamped caption unit: a word, or a pre-chunked phrase when
// that is the granularity upstream provides.
type Unit struct {
	Text   string
	Start  float64
	End    float64
	HasEnd bool
}

// Cue is one subtitle display unit.
type Cue struct {
	Index int // 1-based, required by the SRT format
	Start float64
	End   float64
	Text  string
}

// BuildCues groups units into fixed-size batches of WordsPerCue. A cue starts
// at its first unit's start and ends at its last unit's end, falling back to
// start+0.5s when the last unit carries no end time. Batches whose combined
// text is empty are dropped without advancing the cue counter.
func BuildCues(units []Unit) []Cue {
	var cues []Cue
	index := 1

	for i := 0; i < len(units); i += WordsPerCue {
		end := i + WordsPerCue
		if end > len(units) {
			end = len(units)
		}
		batch := units[i:end]

		var parts []string
		for _, u := range batch {
			if t := strings.TrimSpace(u.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) == 0 {
			continue
		}

		last := batch[len(batch)-1]
		cueEnd := last.End
		if !last.HasEnd {
			cueEnd = last.Start + fallbackTail
		}

		cues = append(cues, Cue{
			Index: index,
			Start: batch[0].Start,
			End:   cueEnd,
			Text:  strings.Join(parts, " "),
		})
		index++
	}
	return cues
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm, zero-padded. Bit-exact
// output matters: the burner's external renderer parses this format.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// EncodeSRT serializes cues as sequential SubRip blocks separated by blank
// lines.
func EncodeSRT(cues []Cue) string {
	var b strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, FormatTimestamp(c.Start), FormatTimestamp(c.End), c.Text)
	}
	return b.String()
}
