// Package transcribe wraps the external speech-to-text step. The rest of the
// system only depends on the Result shape: full text plus optional word-level
// timestamps.
package transcribe

import (
	"context"
)

// WordChunk is one timestamped word. Timestamp is [start, end] in seconds; the
// end element may be absent for the final word of a recording.
type WordChunk struct {
	Text      string    `json:"text"`
	Timestamp []float64 `json:"timestamp"`
}

// Start returns the word's start time, 0 when no timing is present.
func (c WordChunk) Start() float64 {
	if len(c.Timestamp) == 0 {
		return 0
	}
	return c.Timestamp[0]
}

// End returns the word's end time and whether one was actually recorded.
func (c WordChunk) End() (float64, bool) {
	if len(c.Timestamp) < 2 || c.Timestamp[1] <= c.Timestamp[0] {
		return 0, false
	}
	return c.Timestamp[1], true
}

// Valid reports whether the chunk carries a usable two-element time range.
func (c WordChunk) Valid() bool {
	return len(c.Timestamp) == 2
}

// Result is the transcriber output. Chunks may be empty when the engine could
// not produce word-level timing.
type Result struct {
	Text   string      `json:"text"`
	Chunks []WordChunk `json:"chunks,omitempty"`
}

// HasWordTimestamps reports whether the result carries well-formed word-level
// timing: a non-empty chunk list whose first element has a valid time range.
func (r Result) HasWordTimestamps() bool {
	return len(r.Chunks) > 0 && r.Chunks[0].Valid()
}

// Transcriber produces a transcript with word timestamps from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}
