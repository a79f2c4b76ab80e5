package assembly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testAsset(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "asset.mp4")
	if err := os.WriteFile(p, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestVideoRendererLoopsShortSources(t *testing.T) {
	runner := &stubRunner{}
	r := &VideoRenderer{runner: runner}
	seg := Segment{ID: 1, Duration: 5.0, MediaPath: testAsset(t)}

	if err := r.Render(context.Background(), seg, CanvasFor("16:9"), filepath.Join(t.TempDir(), "clip.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := runner.argLines()
	if len(lines) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(lines))
	}
	// A source shorter than the segment must still produce a full-length
	// clip: the input loops and the output duration bound stops the read.
	if !strings.Contains(lines[0], "-stream_loop -1 -i") {
		t.Fatalf("video render must loop the source: %s", lines[0])
	}
	if !strings.Contains(lines[0], "-t 5.000") {
		t.Fatalf("video render must bound the looped output: %s", lines[0])
	}
	if !strings.Contains(lines[0], "trim=duration=5.000,setpts=PTS-STARTPTS") {
		t.Fatalf("video render must hard-trim to the segment span: %s", lines[0])
	}
}

func TestImageRendererClipShape(t *testing.T) {
	runner := &stubRunner{}
	r := &ImageRenderer{runner: runner}
	seg := Segment{ID: 2, Duration: 2.0, MediaPath: testAsset(t)}

	if err := r.Render(context.Background(), seg, CanvasFor("9:16"), filepath.Join(t.TempDir(), "clip.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := runner.argLines()
	if !strings.Contains(lines[0], "-loop 1 -t 2.000 -i") {
		t.Fatalf("image render must loop the still for the segment span: %s", lines[0])
	}
	if !strings.Contains(lines[0], "s=1080x1920") {
		t.Fatalf("image render must target the vertical canvas: %s", lines[0])
	}
}

func TestRendererMissingSource(t *testing.T) {
	runner := &stubRunner{}
	for name, r := range map[string]Renderer{
		"image": &ImageRenderer{runner: runner},
		"video": &VideoRenderer{runner: runner},
	} {
		seg := Segment{ID: 3, Duration: 1.0, MediaPath: filepath.Join(t.TempDir(), "gone.mp4")}
		if err := r.Render(context.Background(), seg, CanvasFor("16:9"), "out.mp4"); err == nil {
			t.Errorf("%s renderer must fail on a missing source", name)
		}
	}
	if len(runner.argLines()) != 0 {
		t.Fatal("missing sources must not reach ffmpeg")
	}
}
