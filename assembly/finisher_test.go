package assembly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMuxSpaceInDestination(t *testing.T) {
	runner := &stubRunner{}
	p := New(runner)
	dir := t.TempDir()

	outPath := filepath.Join(dir, "my videos", "final_video.mp4")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		t.Fatal(err)
	}

	err := p.mux(context.Background(), filepath.Join(dir, "v.mp4"), filepath.Join(dir, "a.wav"), outPath, 5.0)
	if err != nil {
		t.Fatalf("mux failed: %v", err)
	}

	// ffmpeg must never have seen the space-bearing path
	lines := runner.argLines()
	if len(lines) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(lines))
	}
	if strings.Contains(lines[0], outPath) {
		t.Fatalf("ffmpeg wrote directly to a space-bearing path: %s", lines[0])
	}

	// but the file must end up there anyway
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("final video not relocated: %v", err)
	}
}

func TestMuxCleanDestinationRendersInPlace(t *testing.T) {
	runner := &stubRunner{}
	p := New(runner)
	dir := t.TempDir()

	outPath := filepath.Join(dir, "final_video.mp4")
	if err := p.mux(context.Background(), "v.mp4", "a.wav", outPath, 4.0); err != nil {
		t.Fatalf("mux failed: %v", err)
	}

	lines := runner.argLines()
	if !strings.Contains(lines[0], outPath) {
		t.Fatalf("expected direct render to %s: %s", outPath, lines[0])
	}
	if !strings.Contains(lines[0], "-t 4.500") {
		t.Fatalf("mux missing duration cap with slack: %s", lines[0])
	}
}

func TestMoveFileAcrossDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "nested", "dst.mp4")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("destination content wrong: %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source must be gone after move, stat err = %v", err)
	}
}
