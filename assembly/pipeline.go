package assembly

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pipeline assembles reviewed segments into one finished video. One invocation
// per job; stages run strictly in order Render -> Compose -> Burn -> Mux
// because each stage's artifact is the next stage's input. Only the
// per-segment renders fan out, bounded by RenderConcurrency.
type Pipeline struct {
	runner    Runner
	renderers map[MediaKind]Renderer

	// RenderConcurrency bounds simultaneous ffmpeg render processes. Renders
	// are CPU and RAM intensive; unbounded fan-out oversubscribes the host.
	RenderConcurrency int
}

// New wires a pipeline around a toolchain runner.
func New(runner Runner) *Pipeline {
	return &Pipeline{
		runner: runner,
		renderers: map[MediaKind]Renderer{
			MediaImage: &ImageRenderer{runner: runner},
			MediaVideo: &VideoRenderer{runner: runner},
		},
		RenderConcurrency: 2,
	}
}

// OutputFilename is the fixed name of the finished video inside a job's
// working directory.
const OutputFilename = "final_video.mp4"

// Assemble runs the whole pipeline and returns the final output path. All
// failures abort the job; partial artifacts are left in the working directory
// for diagnosis but never returned as a success result.
func (p *Pipeline) Assemble(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	sink := req.Sink
	if sink == nil {
		sink = NopSink{}
	}

	canvas := CanvasFor(req.AspectRatio)
	if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	sink.Report("assembly", 5, "Starting video assembly...")
	log.Printf("[Job %s] Assembling %d segments (%dx%d @ %dfps)",
		req.JobID, len(req.Segments), canvas.Width, canvas.Height, canvas.FPS)

	clipPaths, err := p.renderSegments(ctx, req, canvas, sink)
	if err != nil {
		return "", err
	}

	// Visual track
	manifestPath := filepath.Join(req.WorkDir, "files.txt")
	if err := writeConcatManifest(manifestPath, clipPaths); err != nil {
		return "", err
	}
	visualPath := filepath.Join(req.WorkDir, "visuals.mp4")
	if err := p.concatClips(ctx, manifestPath, visualPath); err != nil {
		return "", err
	}
	sink.Report("assembly", 70, "Visual track composed")

	// Audio track, re-sliced against the original upload
	total := totalDuration(req.Segments)
	slicePaths, err := p.sliceAudio(ctx, req.AudioPath, req.Segments, req.WorkDir)
	if err != nil {
		return "", err
	}
	audioManifest := filepath.Join(req.WorkDir, "audio_files.txt")
	if err := writeConcatManifest(audioManifest, slicePaths); err != nil {
		return "", err
	}
	audioPath := filepath.Join(req.WorkDir, "audio_track.wav")
	if err := p.concatAudio(ctx, audioManifest, audioPath, total); err != nil {
		return "", err
	}
	sink.Report("assembly", 80, "Audio track composed")

	// Optional caption burn-in
	captionedPath := filepath.Join(req.WorkDir, "visuals_captioned.mp4")
	finalVisual, _, err := p.burnCaptions(ctx, visualPath, req.SubtitlePath, req.CaptionStyle, canvas, captionedPath)
	if err != nil {
		return "", err
	}

	sink.Report("assembly", 90, "Muxing final video...")
	outPath := filepath.Join(req.WorkDir, OutputFilename)
	if err := p.mux(ctx, finalVisual, audioPath, outPath, total); err != nil {
		return "", err
	}

	log.Printf("[Job %s] Assembly complete: %s", req.JobID, outPath)
	return outPath, nil
}

// renderSegments renders every segment's clip, fanning out up to
// RenderConcurrency at a time. Completion order does not matter; results are
// indexed by segment order so the compositor always sees playback order.
func (p *Pipeline) renderSegments(ctx context.Context, req Request, canvas Canvas, sink Sink) ([]string, error) {
	clipPaths := make([]string, len(req.Segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.RenderConcurrency)

	var mu sync.Mutex
	done := 0

	for i, seg := range req.Segments {
		i, seg := i, seg
		g.Go(func() error {
			renderer, ok := p.renderers[seg.MediaKind]
			if !ok {
				return fmt.Errorf("render segment %d: unknown media kind %q", seg.ID, seg.MediaKind)
			}

			clipPath := filepath.Join(req.WorkDir, fmt.Sprintf("clip_%d.mp4", seg.ID))
			if err := renderer.Render(gctx, seg, canvas, clipPath); err != nil {
				return err
			}
			clipPaths[i] = clipPath

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			sink.Report("render", 5+(60*n)/len(req.Segments),
				fmt.Sprintf("Rendered clip %d/%d", n, len(req.Segments)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clipPaths, nil
}

// validate rejects malformed input before any external process starts.
func validate(req Request) error {
	if len(req.Segments) == 0 {
		return fmt.Errorf("assemble: no segments")
	}
	if req.WorkDir == "" {
		return fmt.Errorf("assemble: work dir required")
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return fmt.Errorf("assemble: audio file unreadable: %w", err)
	}
	for _, seg := range req.Segments {
		if seg.Duration <= 0 {
			return fmt.Errorf("assemble: segment %d has non-positive duration", seg.ID)
		}
		if seg.MediaPath == "" {
			return fmt.Errorf("assemble: segment %d has no visual asset", seg.ID)
		}
	}
	return nil
}
