package assembly

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteConcatManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "files.txt")

	err := writeConcatManifest(manifest, []string{
		filepath.Join(dir, "clip_1.mp4"),
		filepath.Join(dir, "clip_2.mp4"),
	})
	if err != nil {
		t.Fatalf("writeConcatManifest failed: %v", err)
	}

	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, "'") {
			t.Fatalf("line %d not in concat format: %q", i, line)
		}
		if !filepath.IsAbs(strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")) {
			t.Fatalf("line %d path is not absolute: %q", i, line)
		}
	}
	if !strings.Contains(lines[0], "clip_1") || !strings.Contains(lines[1], "clip_2") {
		t.Fatalf("manifest out of playback order:\n%s", string(data))
	}
}

func TestAudioSliceStartsTracked(t *testing.T) {
	segments := []Segment{
		{ID: 1, StartTime: 0.0, Duration: 2.0},
		{ID: 2, StartTime: 2.2, Duration: 1.0},
		{ID: 3, StartTime: 3.4, Duration: 1.5},
	}
	starts := audioSliceStarts(segments)
	want := []float64{0.0, 2.2, 3.4}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("start %d = %v, want %v (tracked starts must be used as-is)", i, starts[i], want[i])
		}
	}
}

func TestAudioSliceStartsSequentialFallback(t *testing.T) {
	// All-zero starts beyond the first mean timing was estimated: slices
	// fall back to cumulative allocation.
	segments := []Segment{
		{ID: 1, StartTime: 0, Duration: 2.0},
		{ID: 2, StartTime: 0, Duration: 1.0},
		{ID: 3, StartTime: 0, Duration: 1.5},
	}
	starts := audioSliceStarts(segments)
	want := []float64{0.0, 2.0, 3.0}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("start %d = %v, want %v", i, starts[i], want[i])
		}
	}
}

func TestTotalDuration(t *testing.T) {
	segments := []Segment{
		{Duration: 2.0},
		{Duration: 1.5},
		{Duration: 0.5},
	}
	if got := totalDuration(segments); got != 4.0 {
		t.Fatalf("totalDuration = %v, want 4.0", got)
	}
}
