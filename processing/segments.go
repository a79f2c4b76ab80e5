package processing

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/drewmudry/voicereel-api/transcribe"
)

// Segment is one narrative beat of the video with its timing and the visual
// direction the sourcing step needs.
type Segment struct {
	SegmentID      int     `json:"segment_id"`
	TextContent    string  `json:"text_content"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	Duration       float64 `json:"duration"`
	VisualTopic    string  `json:"visual_topic"`
	ImagePrompt    string  `json:"image_prompt"`
	Sentiment      string  `json:"sentiment"`
	ContainsPeople bool    `json:"contains_people"`
}

const (
	// minSegmentDuration floor-clamps segment spans so no render is ever
	// asked for a degenerate zero-length clip.
	minSegmentDuration = 0.5

	// defaultSegmentDuration is assumed when the timestamp-free fallback path
	// gets no duration estimate for a segment.
	defaultSegmentDuration = 3

	// singleSegmentDuration is the span of the last-resort single segment.
	singleSegmentDuration = 10

	// visualBatchSize bounds segments per visual-analysis call to stay inside
	// token limits.
	visualBatchSize = 10
)

// CreateSegments turns a transcript into timed, visually-annotated segments.
// With well-formed word timestamps it maps LLM-chosen boundaries onto precise
// times; without them it falls back to LLM-estimated durations laid end to
// end from zero.
func CreateSegments(ctx context.Context, tr transcribe.Result) ([]Segment, error) {
	if !tr.HasWordTimestamps() {
		log.Printf("[Segmentation] No valid word-level timestamps, using estimated durations")
		return analyzeWithoutTimestamps(ctx, tr.Text)
	}

	log.Printf("[Segmentation] Processing %d word chunks with timestamps", len(tr.Chunks))

	boundaries, err := identifyBoundaries(ctx, tr.Text)
	if err != nil {
		log.Printf("[Segmentation] Boundary detection failed (%v), splitting on sentences", err)
		boundaries = sentenceBoundaries(tr.Text)
	}

	ranges := allocateWordRanges(boundaries, len(tr.Chunks))
	timed := mapToTimestamps(ranges, tr.Chunks)
	if len(timed) == 0 {
		return analyzeWithoutTimestamps(ctx, tr.Text)
	}

	return enhanceWithVisuals(ctx, timed)
}

// boundarySegment is one LLM-proposed cut of the transcript.
type boundarySegment struct {
	Text      string `json:"text" jsonschema_description:"Exact text from the transcription for this segment"`
	WordCount int    `json:"word_count" jsonschema_description:"Number of words in this segment"`
}

type boundaryBreakdown struct {
	Segments []boundarySegment `json:"segments" jsonschema_description:"The transcript split into natural visual beats, in order"`
}

var boundaryBreakdownSchema = GenerateSchema[boundaryBreakdown]()

// identifyBoundaries asks the model to cut the transcript at points where the
// visual should change.
func identifyBoundaries(ctx context.Context, fullText string) ([]boundarySegment, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are an expert video editor. Break the following transcription into natural, meaningful segments based on:
1. Sentence boundaries (periods, commas, natural pauses)
2. Semantic meaning (complete thoughts, phrases)
3. Speech flow (natural breaks in speech)
4. Optimal segment length: 2-5 seconds of speech (roughly 5-15 words)

Break at points where the visual should change. Each segment must be a complete thought or phrase, and its text must be copied exactly from the transcription, in order, with no overlaps.

Transcription: "%s"`, fullText)

	breakdown, err := getStructuredResponse[boundaryBreakdown](ctx, client, prompt, boundaryBreakdownSchema)
	if err != nil {
		return nil, err
	}
	if len(breakdown.Segments) == 0 {
		return nil, fmt.Errorf("LLM returned no segments")
	}
	return breakdown.Segments, nil
}

// wordRange is a half-open claim on the transcript's word sequence.
type wordRange struct {
	Text      string
	WordStart int
	WordEnd   int // inclusive
}

// allocateWordRanges assigns words to segments greedily in order: each segment
// claims word_count consecutive words starting where the previous one left
// off, and the final index is clamped so the last segment absorbs any
// remainder.
func allocateWordRanges(segments []boundarySegment, totalWords int) []wordRange {
	if totalWords <= 0 {
		return nil
	}

	var ranges []wordRange
	cursor := 0
	for _, seg := range segments {
		if cursor >= totalWords {
			break
		}
		count := seg.WordCount
		if count <= 0 {
			count = len(strings.Fields(seg.Text))
		}
		if count <= 0 {
			continue
		}
		end := cursor + count - 1
		if end > totalWords-1 {
			end = totalWords - 1
		}
		ranges = append(ranges, wordRange{Text: seg.Text, WordStart: cursor, WordEnd: end})
		cursor = end + 1
	}
	return ranges
}

// timedSegment carries segment text with resolved timing, pre-visuals.
type timedSegment struct {
	Text     string
	Start    float64
	End      float64
	Duration float64
}

// mapToTimestamps translates word-index ranges into time ranges: a segment
// starts at its first word's start and ends at its last word's end, with a
// 0.5s tail when the last word has no recorded end. Durations are
// floor-clamped to the minimum.
func mapToTimestamps(ranges []wordRange, chunks []transcribe.WordChunk) []timedSegment {
	var out []timedSegment
	for _, r := range ranges {
		if r.WordStart >= len(chunks) {
			continue
		}
		startChunk := chunks[r.WordStart]
		endIdx := r.WordEnd
		if endIdx > len(chunks)-1 {
			endIdx = len(chunks) - 1
		}
		endChunk := chunks[endIdx]

		start := startChunk.Start()
		end, ok := endChunk.End()
		if !ok {
			end = endChunk.Start() + 0.5
		}
		if start < 0 {
			start = 0
		}
		if end < start {
			end = start
		}
		duration := end - start
		if duration < minSegmentDuration {
			duration = minSegmentDuration
		}

		out = append(out, timedSegment{Text: r.Text, Start: start, End: end, Duration: duration})
	}
	return out
}

// sentenceBoundaries is the non-LLM fallback cut: split on terminal
// punctuation.
func sentenceBoundaries(fullText string) []boundarySegment {
	var out []boundarySegment
	for _, sentence := range regexp.MustCompile(`[.!?]+`).Split(fullText, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		out = append(out, boundarySegment{Text: sentence, WordCount: len(strings.Fields(sentence))})
	}
	return out
}

// visualDetail is the per-segment art direction from the model.
type visualDetail struct {
	VisualTopic    string `json:"visual_topic" jsonschema_description:"Brief description of what should be visually shown"`
	ImagePrompt    string `json:"image_prompt" jsonschema_description:"Detailed prompt for AI image generation"`
	Sentiment      string `json:"sentiment" jsonschema_description:"Emotional tone (Happy, Sad, Intense, Calm, Neutral, etc.)"`
	ContainsPeople bool   `json:"contains_people" jsonschema_description:"True if the visual should show humans or faces"`
}

type visualBreakdown struct {
	Visuals []visualDetail `json:"visuals" jsonschema_description:"One visual direction per segment, in the order given"`
}

var visualBreakdownSchema = GenerateSchema[visualBreakdown]()

// enhanceWithVisuals attaches art direction to each timed segment, batching
// calls and falling back to neutral defaults per batch on failure.
func enhanceWithVisuals(ctx context.Context, segments []timedSegment) ([]Segment, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	all := make([]Segment, 0, len(segments))

	for i := 0; i < len(segments); i += visualBatchSize {
		end := i + visualBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		batch := segments[i:end]

		var lines []string
		for j, s := range batch {
			lines = append(lines, fmt.Sprintf("%d. %q (%.1fs)", i+j+1, s.Text, s.Duration))
		}

		prompt := fmt.Sprintf(`You are an expert video director. For each segment of audio, provide:
1. Visual Topic: what should be visually shown (brief description)
2. Image Prompt: detailed prompt for AI image generation (Stable Diffusion style)
3. Sentiment: emotional tone (Happy, Sad, Intense, Calm, Neutral, etc.)
4. Contains People: true if the visual should show humans/faces, false otherwise

Segments:
%s`, strings.Join(lines, "\n"))

		breakdown, err := getStructuredResponse[visualBreakdown](ctx, client, prompt, visualBreakdownSchema)
		if err != nil {
			log.Printf("[Segmentation] Visual enhancement failed for batch %d-%d: %v", i, end, err)
			for j, s := range batch {
				all = append(all, neutralSegment(i+j+1, s))
			}
			continue
		}

		for j, s := range batch {
			if j < len(breakdown.Visuals) {
				v := breakdown.Visuals[j]
				seg := Segment{
					SegmentID:      i + j + 1,
					TextContent:    s.Text,
					StartTime:      s.Start,
					EndTime:        s.End,
					Duration:       s.Duration,
					VisualTopic:    v.VisualTopic,
					ImagePrompt:    v.ImagePrompt,
					Sentiment:      v.Sentiment,
					ContainsPeople: v.ContainsPeople,
				}
				if seg.VisualTopic == "" {
					seg.VisualTopic = "General visualization"
				}
				if seg.ImagePrompt == "" {
					seg.ImagePrompt = "High quality cinematic shot"
				}
				if seg.Sentiment == "" {
					seg.Sentiment = "Neutral"
				}
				all = append(all, seg)
			} else {
				all = append(all, neutralSegment(i+j+1, s))
			}
		}
	}

	return all, nil
}

func neutralSegment(id int, s timedSegment) Segment {
	return Segment{
		SegmentID:   id,
		TextContent: s.Text,
		StartTime:   s.Start,
		EndTime:     s.End,
		Duration:    s.Duration,
		VisualTopic: "General visualization",
		ImagePrompt: "High quality cinematic shot relevant to the audio",
		Sentiment:   "Neutral",
	}
}

// estimatedSegment is the timestamp-free fallback shape: the model estimates a
// duration per segment directly.
type estimatedSegment struct {
	TextContent    string  `json:"text_content" jsonschema_description:"Part of the transcription text"`
	VisualTopic    string  `json:"visual_topic" jsonschema_description:"What should be visually shown"`
	ImagePrompt    string  `json:"image_prompt" jsonschema_description:"Detailed prompt for AI image generation"`
	Sentiment      string  `json:"sentiment" jsonschema_description:"Emotional tone"`
	ContainsPeople bool    `json:"contains_people" jsonschema_description:"True if the visual should show humans or faces"`
	Duration       float64 `json:"duration" jsonschema_description:"Estimated duration in seconds based on text length at average speaking rate"`
}

type estimatedBreakdown struct {
	Segments []estimatedSegment `json:"segments" jsonschema_description:"The transcript broken into segments with estimated durations"`
}

var estimatedBreakdownSchema = GenerateSchema[estimatedBreakdown]()

// analyzeWithoutTimestamps is the degraded path: segment timing is estimated
// rather than measured, and start/end are assigned by cumulative summation in
// segment order starting at zero.
func analyzeWithoutTimestamps(ctx context.Context, fullText string) ([]Segment, error) {
	client, err := newClient()
	if err != nil {
		log.Printf("[Segmentation] No LLM available (%v), emitting single segment", err)
		return []Segment{singleSegmentFallback(fullText)}, nil
	}

	prompt := fmt.Sprintf(`You are an expert video director. Analyze the transcription and break it into segments.
For each segment, provide the text content, a visual topic, a detailed AI image generation prompt, the sentiment, whether the visual should contain people, and an estimated duration in seconds based on text length at an average speaking rate.

Transcription: "%s"`, fullText)

	breakdown, err := getStructuredResponse[estimatedBreakdown](ctx, client, prompt, estimatedBreakdownSchema)
	if err != nil {
		log.Printf("[Segmentation] LLM segmentation failed (%v), emitting single segment", err)
		return []Segment{singleSegmentFallback(fullText)}, nil
	}
	if len(breakdown.Segments) == 0 {
		return []Segment{singleSegmentFallback(fullText)}, nil
	}

	return assignSequentialTimes(breakdown.Segments), nil
}

// assignSequentialTimes lays estimated segments end to end from zero.
func assignSequentialTimes(estimates []estimatedSegment) []Segment {
	out := make([]Segment, 0, len(estimates))
	var cursor float64
	for i, e := range estimates {
		duration := e.Duration
		if duration <= 0 {
			duration = defaultSegmentDuration
		}
		if duration < minSegmentDuration {
			duration = minSegmentDuration
		}
		out = append(out, Segment{
			SegmentID:      i + 1,
			TextContent:    e.TextContent,
			StartTime:      cursor,
			EndTime:        cursor + duration,
			Duration:       duration,
			VisualTopic:    e.VisualTopic,
			ImagePrompt:    e.ImagePrompt,
			Sentiment:      e.Sentiment,
			ContainsPeople: e.ContainsPeople,
		})
		cursor += duration
	}
	return out
}

// singleSegmentFallback covers the whole transcript with one fixed-span
// segment when nothing better is available.
func singleSegmentFallback(fullText string) Segment {
	return Segment{
		SegmentID:   1,
		TextContent: fullText,
		StartTime:   0,
		EndTime:     singleSegmentDuration,
		Duration:    singleSegmentDuration,
		VisualTopic: "General visualization",
		ImagePrompt: "High quality cinematic shot",
		Sentiment:   "Neutral",
	}
}
