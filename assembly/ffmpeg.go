package assembly

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner abstracts the external media toolchain so the pipeline stages can be
// exercised in tests without ffmpeg installed.
type Runner interface {
	// Run invokes ffmpeg with the given arguments and blocks until it exits.
	Run(ctx context.Context, args ...string) error

	// Probe returns the container duration of a media file in seconds.
	Probe(ctx context.Context, path string) (float64, error)
}

// FFmpegRunner shells out to the ffmpeg and ffprobe binaries on PATH.
type FFmpegRunner struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// NewFFmpegRunner returns a runner with default binary names and a timeout
// sized for multi-minute renders.
func NewFFmpegRunner() *FFmpegRunner {
	return &FFmpegRunner{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     15 * time.Minute,
	}
}

// AssertReady verifies the required binaries exist before any job starts.
func (r *FFmpegRunner) AssertReady() error {
	for _, bin := range []string{r.FFmpegPath, r.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	return nil
}

func (r *FFmpegRunner) Run(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.FFmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w; out=%s", err, tail(string(out), 2048))
	}
	return nil
}

func (r *FFmpegRunner) Probe(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w; out=%s", path, err, tail(string(out), 512))
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration for %s: %q", path, strings.TrimSpace(string(out)))
	}
	return dur, nil
}

// tail keeps error messages bounded; ffmpeg dumps its full config banner on
// every failure.
func tail(s string, n int) string {
	if len(s) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[len(s)-n:])
}
