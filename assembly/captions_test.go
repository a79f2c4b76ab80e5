package assembly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStyleFor(t *testing.T) {
	for _, name := range []string{"classic", "modern", "neon"} {
		if _, ok := StyleFor(name); !ok {
			t.Errorf("style %q must exist", name)
		}
	}
	for _, name := range []string{"none", "", "bogus"} {
		if _, ok := StyleFor(name); ok {
			t.Errorf("style %q must not resolve", name)
		}
	}
}

func TestForceStyleVerticalUsesSmallerFont(t *testing.T) {
	style, _ := StyleFor("classic")

	wide := style.ForceStyle(CanvasFor("16:9"))
	if !strings.Contains(wide, "FontSize=28") {
		t.Fatalf("widescreen force_style missing FontSize=28: %s", wide)
	}

	tall := style.ForceStyle(CanvasFor("9:16"))
	if !strings.Contains(tall, "FontSize=22") {
		t.Fatalf("vertical force_style missing FontSize=22: %s", tall)
	}

	for _, s := range []string{wide, tall} {
		if !strings.Contains(s, "Alignment=2") {
			t.Fatalf("force_style missing bottom-center alignment: %s", s)
		}
	}
}

func TestBurnCaptionsPassthrough(t *testing.T) {
	runner := &stubRunner{}
	p := New(runner)
	dir := t.TempDir()
	visual := filepath.Join(dir, "visuals.mp4")

	// Unknown style: passthrough, no ffmpeg call
	out, reencoded, err := p.burnCaptions(context.Background(), visual, "subs.srt", "none", CanvasFor("16:9"), filepath.Join(dir, "out.mp4"))
	if err != nil || reencoded || out != visual {
		t.Fatalf("expected passthrough for style none, got (%s, %v, %v)", out, reencoded, err)
	}

	// Known style but the caption file does not exist: also passthrough
	out, reencoded, err = p.burnCaptions(context.Background(), visual, filepath.Join(dir, "missing.srt"), "classic", CanvasFor("16:9"), filepath.Join(dir, "out.mp4"))
	if err != nil || reencoded || out != visual {
		t.Fatalf("expected passthrough for missing caption file, got (%s, %v, %v)", out, reencoded, err)
	}

	if len(runner.argLines()) != 0 {
		t.Fatalf("passthrough must not invoke ffmpeg, saw %d calls", len(runner.argLines()))
	}
}

func TestBurnCaptionsReencodes(t *testing.T) {
	runner := &stubRunner{}
	p := New(runner)
	dir := t.TempDir()
	visual := filepath.Join(dir, "visuals.mp4")
	subPath := filepath.Join(dir, "subs.srt")
	if err := os.WriteFile(subPath, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "captioned.mp4")

	out, reencoded, err := p.burnCaptions(context.Background(), visual, subPath, "modern", CanvasFor("16:9"), outPath)
	if err != nil {
		t.Fatalf("burnCaptions failed: %v", err)
	}
	if !reencoded || out != outPath {
		t.Fatalf("expected re-encode to %s, got (%s, %v)", outPath, out, reencoded)
	}

	lines := runner.argLines()
	if len(lines) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "-c:v libx264") {
		t.Fatalf("burn must re-encode video: %s", lines[0])
	}
}
