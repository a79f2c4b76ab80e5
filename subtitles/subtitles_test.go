package subtitles

import (
	"strings"
	"testing"
)

func TestBuildCuesGroupsThreeWords(t *testing.T) {
	units := []Unit{
		{Text: "a", Start: 0.0, End: 0.3, HasEnd: true},
		{Text: "b", Start: 0.3, End: 0.6, HasEnd: true},
		{Text: "c", Start: 0.6, End: 0.9, HasEnd: true},
		{Text: "d", Start: 1.0},
	}

	cues := BuildCues(units)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}

	if cues[0].Index != 1 || cues[0].Text != "a b c" {
		t.Fatalf("unexpected first cue: %+v", cues[0])
	}
	if cues[0].Start != 0.0 || cues[0].End != 0.9 {
		t.Fatalf("first cue span = [%v, %v], want [0, 0.9]", cues[0].Start, cues[0].End)
	}

	// The trailing word has no end time: the cue falls back to start+0.5
	if cues[1].Index != 2 || cues[1].Text != "d" {
		t.Fatalf("unexpected second cue: %+v", cues[1])
	}
	if cues[1].Start != 1.0 || cues[1].End != 1.5 {
		t.Fatalf("second cue span = [%v, %v], want [1, 1.5]", cues[1].Start, cues[1].End)
	}
}

func TestBuildCuesDropsEmptyBatchesWithoutGaps(t *testing.T) {
	units := []Unit{
		{Text: " ", Start: 0.0},
		{Text: "", Start: 0.1},
		{Text: "\t", Start: 0.2},
		{Text: "hello", Start: 0.3, End: 0.6, HasEnd: true},
	}

	cues := BuildCues(units)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].Index != 1 {
		t.Fatalf("index numbering must not skip dropped batches, got %d", cues[0].Index)
	}
	if cues[0].Text != "hello" {
		t.Fatalf("unexpected text %q", cues[0].Text)
	}
}

func TestBuildCuesEmptyInput(t *testing.T) {
	if cues := BuildCues(nil); len(cues) != 0 {
		t.Fatalf("expected no cues, got %d", len(cues))
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.007, "00:01:01,007"},
		{3661.25, "01:01:01,250"},
		{-5, "00:00:00,000"},
		{0.0004, "00:00:00,000"},
		{0.0006, "00:00:00,001"},
	}
	for _, c := range cases {
		if got := FormatTimestamp(c.seconds); got != c.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestEncodeSRT(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: 0.9, Text: "a b c"},
		{Index: 2, Start: 1.0, End: 1.5, Text: "d"},
	}

	got := EncodeSRT(cues)
	want := "1\n00:00:00,000 --> 00:00:00,900\na b c\n\n" +
		"2\n00:00:01,000 --> 00:00:01,500\nd\n\n"
	if got != want {
		t.Fatalf("EncodeSRT mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}

	if !strings.Contains(got, ",") || strings.Contains(got, ".900") {
		t.Fatal("timestamps must use a comma before milliseconds")
	}
}
