package assembly

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Renderer turns one segment's visual asset into a clip of exactly the
// segment's duration at the target canvas. One variant per media kind; the
// pipeline dispatches on Segment.MediaKind.
type Renderer interface {
	Render(ctx context.Context, seg Segment, c Canvas, outPath string) error
}

// ImageRenderer animates a still image with a continuous zoom-and-pan so the
// clip does not read as frozen.
type ImageRenderer struct {
	runner Runner
}

func (r *ImageRenderer) Render(ctx context.Context, seg Segment, c Canvas, outPath string) error {
	if _, err := os.Stat(seg.MediaPath); err != nil {
		return fmt.Errorf("render segment %d: source image missing: %w", seg.ID, err)
	}

	filters := strings.Join([]string{
		supersampleFilter(c),
		zoomPanFilter(c, seg.Duration),
		trimResetFilter(seg.Duration),
	}, ",")

	args := []string{
		"-y",
		"-loop", "1",
		"-t", formatSeconds(seg.Duration),
		"-i", seg.MediaPath,
		"-vf", filters,
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", c.FPS),
		"-f", "mp4",
		outPath,
	}
	if err := r.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("render segment %d (image): %w", seg.ID, err)
	}
	return nil
}

// VideoRenderer cover-fits a source video onto the canvas and trims it to the
// segment's span.
type VideoRenderer struct {
	runner Runner
}

func (r *VideoRenderer) Render(ctx context.Context, seg Segment, c Canvas, outPath string) error {
	if _, err := os.Stat(seg.MediaPath); err != nil {
		return fmt.Errorf("render segment %d: source video missing: %w", seg.ID, err)
	}

	filters := strings.Join([]string{
		coverScaleFilter(c),
		fmt.Sprintf("fps=%d", c.FPS),
		trimResetFilter(seg.Duration),
	}, ",")

	// trim can only cap, never extend: loop the source so a video shorter
	// than the segment still yields a clip of exactly the segment's span.
	// The output -t stops the looped read.
	args := []string{
		"-y",
		"-stream_loop", "-1",
		"-i", seg.MediaPath,
		"-vf", filters,
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-t", formatSeconds(seg.Duration),
		"-f", "mp4",
		outPath,
	}
	if err := r.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("render segment %d (video): %w", seg.ID, err)
	}
	return nil
}
