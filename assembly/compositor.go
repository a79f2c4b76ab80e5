package assembly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The compositor joins the rendered clips into one continuous visual track and
// re-slices the original audio into per-segment pieces that concatenate to the
// same cumulative timeline. Slicing against the original audio (instead of
// laying the full track underneath) keeps sync even when review changed a
// segment's effective span.

// writeConcatManifest writes the concat-demuxer file list, one absolute path
// per line, in playback order.
func writeConcatManifest(path string, clipPaths []string) error {
	var b strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve clip path %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}

// concatClips joins already-matching clips without re-encoding. Any re-encode
// the caption burn needs happens once, downstream, not here.
func (p *Pipeline) concatClips(ctx context.Context, manifestPath, outPath string) error {
	err := p.runner.Run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("concatenate clips: %w", err)
	}
	return nil
}

// audioSliceStarts returns the slice start offset for each segment. When the
// upstream data carries real start times they are used as-is; otherwise slices
// fall back to sequential allocation by cumulative duration. The fallback is a
// deliberate degraded mode for jobs whose segment timing was estimated rather
// than measured.
func audioSliceStarts(segments []Segment) []float64 {
	starts := make([]float64, len(segments))
	if hasTrackedStarts(segments) {
		for i, seg := range segments {
			starts[i] = seg.StartTime
		}
		return starts
	}
	var cursor float64
	for i, seg := range segments {
		starts[i] = cursor
		cursor += seg.Duration
	}
	return starts
}

// hasTrackedStarts reports whether segment start times were actually measured.
// Estimated segments all arrive with zeroed starts (beyond the first).
func hasTrackedStarts(segments []Segment) bool {
	for i, seg := range segments {
		if i > 0 && seg.StartTime > 0 {
			return true
		}
	}
	return false
}

// sliceAudio cuts one PCM slice per segment out of the original audio file,
// timestamps reset, and returns the slice paths in segment order.
func (p *Pipeline) sliceAudio(ctx context.Context, audioPath string, segments []Segment, workDir string) ([]string, error) {
	starts := audioSliceStarts(segments)
	paths := make([]string, len(segments))

	for i, seg := range segments {
		slicePath := filepath.Join(workDir, fmt.Sprintf("audio_%d.wav", seg.ID))
		err := p.runner.Run(ctx,
			"-y",
			"-i", audioPath,
			"-af", audioSliceFilter(starts[i], seg.Duration),
			"-vn",
			"-c:a", "pcm_s16le",
			slicePath,
		)
		if err != nil {
			return nil, fmt.Errorf("slice audio for segment %d: %w", seg.ID, err)
		}
		paths[i] = slicePath
	}
	return paths, nil
}

// concatAudio joins the slices into one continuous track, bounded to the total
// segment duration so the audio track can never outrun the visual track. Both
// tracks derive from the same duration sum, which is what keeps them equal.
func (p *Pipeline) concatAudio(ctx context.Context, manifestPath, outPath string, totalDuration float64) error {
	err := p.runner.Run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-t", formatSeconds(totalDuration),
		"-c", "copy",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("concatenate audio slices: %w", err)
	}
	return nil
}

// totalDuration is the cumulative timeline length both tracks must span.
func totalDuration(segments []Segment) float64 {
	var sum float64
	for _, seg := range segments {
		sum += seg.Duration
	}
	return sum
}
