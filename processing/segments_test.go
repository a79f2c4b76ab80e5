package processing

import (
	"context"
	"testing"

	"github.com/drewmudry/voicereel-api/transcribe"
)

func TestAllocateWordRangesGreedy(t *testing.T) {
	segments := []boundarySegment{
		{Text: "the quick brown", WordCount: 3},
		{Text: "fox jumps", WordCount: 2},
	}

	ranges := allocateWordRanges(segments, 5)
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].WordStart != 0 || ranges[0].WordEnd != 2 {
		t.Fatalf("range 0 = [%d, %d], want [0, 2]", ranges[0].WordStart, ranges[0].WordEnd)
	}
	if ranges[1].WordStart != 3 || ranges[1].WordEnd != 4 {
		t.Fatalf("range 1 = [%d, %d], want [3, 4]", ranges[1].WordStart, ranges[1].WordEnd)
	}
}

func TestAllocateWordRangesClampsOverclaim(t *testing.T) {
	segments := []boundarySegment{
		{Text: "a b", WordCount: 2},
		{Text: "c d e f", WordCount: 10},
		{Text: "never reached", WordCount: 2},
	}

	ranges := allocateWordRanges(segments, 4)
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[1].WordEnd != 3 {
		t.Fatalf("last range end = %d, want clamp to 3", ranges[1].WordEnd)
	}
}

func TestAllocateWordRangesFallsBackToFieldCount(t *testing.T) {
	segments := []boundarySegment{{Text: "one two three"}}

	ranges := allocateWordRanges(segments, 3)
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	if ranges[0].WordStart != 0 || ranges[0].WordEnd != 2 {
		t.Fatalf("range = [%d, %d], want [0, 2]", ranges[0].WordStart, ranges[0].WordEnd)
	}
}

func TestAllocateWordRangesNoWords(t *testing.T) {
	if got := allocateWordRanges([]boundarySegment{{Text: "x", WordCount: 1}}, 0); got != nil {
		t.Fatalf("expected nil for empty transcript, got %v", got)
	}
}

func TestMapToTimestamps(t *testing.T) {
	chunks := []transcribe.WordChunk{
		{Text: "the", Timestamp: []float64{0.0, 0.4}},
		{Text: "quick", Timestamp: []float64{0.4, 0.8}},
		{Text: "fox", Timestamp: []float64{0.8, 1.3}},
		{Text: "runs", Timestamp: []float64{1.3}},
	}
	ranges := []wordRange{
		{Text: "the quick fox", WordStart: 0, WordEnd: 2},
		{Text: "runs", WordStart: 3, WordEnd: 3},
	}

	timed := mapToTimestamps(ranges, chunks)
	if len(timed) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(timed))
	}

	if timed[0].Start != 0.0 || timed[0].End != 1.3 {
		t.Fatalf("segment 0 span = [%v, %v], want [0, 1.3]", timed[0].Start, timed[0].End)
	}

	// Last word has no end time: +0.5 tail, then the 0.5 duration floor applies
	if timed[1].Start != 1.3 || timed[1].End != 1.8 {
		t.Fatalf("segment 1 span = [%v, %v], want [1.3, 1.8]", timed[1].Start, timed[1].End)
	}
	if timed[1].Duration != 0.5 {
		t.Fatalf("segment 1 duration = %v, want 0.5", timed[1].Duration)
	}
}

func TestMapToTimestampsFloorsDuration(t *testing.T) {
	chunks := []transcribe.WordChunk{
		{Text: "hi", Timestamp: []float64{1.0, 1.1}},
	}
	ranges := []wordRange{{Text: "hi", WordStart: 0, WordEnd: 0}}

	timed := mapToTimestamps(ranges, chunks)
	if len(timed) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(timed))
	}
	if timed[0].Duration != 0.5 {
		t.Fatalf("duration = %v, want floor of 0.5", timed[0].Duration)
	}
}

func TestMapToTimestampsSkipsOutOfRange(t *testing.T) {
	chunks := []transcribe.WordChunk{
		{Text: "only", Timestamp: []float64{0.0, 0.5}},
	}
	ranges := []wordRange{
		{Text: "only", WordStart: 0, WordEnd: 0},
		{Text: "phantom", WordStart: 5, WordEnd: 7},
	}

	timed := mapToTimestamps(ranges, chunks)
	if len(timed) != 1 {
		t.Fatalf("expected out-of-range segment skipped, got %d segments", len(timed))
	}
}

func TestSentenceBoundaries(t *testing.T) {
	got := sentenceBoundaries("Hello world. How are you?  Fine!")
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(got), got)
	}
	if got[0].Text != "Hello world" || got[0].WordCount != 2 {
		t.Fatalf("unexpected first sentence: %+v", got[0])
	}
	if got[2].Text != "Fine" || got[2].WordCount != 1 {
		t.Fatalf("unexpected last sentence: %+v", got[2])
	}
}

func TestAssignSequentialTimes(t *testing.T) {
	estimates := []estimatedSegment{
		{TextContent: "a", Duration: 2.5},
		{TextContent: "b", Duration: 0},   // no estimate: default applies
		{TextContent: "c", Duration: 0.2}, // below floor: clamp up
	}

	segs := assignSequentialTimes(estimates)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}

	if segs[0].StartTime != 0 || segs[0].EndTime != 2.5 {
		t.Fatalf("segment 0 span = [%v, %v]", segs[0].StartTime, segs[0].EndTime)
	}
	if segs[1].StartTime != 2.5 || segs[1].Duration != 3 {
		t.Fatalf("segment 1 start=%v duration=%v, want start=2.5 duration=3", segs[1].StartTime, segs[1].Duration)
	}
	if segs[2].StartTime != 5.5 || segs[2].Duration != 0.5 {
		t.Fatalf("segment 2 start=%v duration=%v, want start=5.5 duration=0.5", segs[2].StartTime, segs[2].Duration)
	}
	for i, s := range segs {
		if s.SegmentID != i+1 {
			t.Fatalf("segment %d has id %d", i, s.SegmentID)
		}
	}
}

func TestSingleSegmentFallback(t *testing.T) {
	seg := singleSegmentFallback("whole transcript")
	if seg.SegmentID != 1 || seg.StartTime != 0 || seg.EndTime != 10 || seg.Duration != 10 {
		t.Fatalf("unexpected fallback segment: %+v", seg)
	}
	if seg.TextContent != "whole transcript" {
		t.Fatalf("fallback must carry the full transcript, got %q", seg.TextContent)
	}
}

func TestCreateSegmentsWithoutChunksAndNoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	segs, err := CreateSegments(context.Background(), transcribe.Result{Text: "just text"})
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected single fallback segment, got %d", len(segs))
	}
	if segs[0].Duration != 10 {
		t.Fatalf("fallback duration = %v, want 10", segs[0].Duration)
	}
}
