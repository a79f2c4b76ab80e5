package assembly

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// durationEpsilon is the slack added to the output duration cap. The cap only
// exists to stop upstream drift from producing a runaway-length file.
const durationEpsilon = 0.5

// mux combines the final visual and audio tracks into one playable file.
// Video is stream-copied when no caption burn forced a re-encode; audio is
// always encoded to AAC because the uploaded source format is arbitrary.
//
// ffmpeg's concat/subtitle handling chokes on destination paths containing
// spaces, so a space-bearing destination is rendered to a temp path first and
// moved into place afterwards.
func (p *Pipeline) mux(ctx context.Context, visualPath, audioPath, outPath string, maxDuration float64) error {
	renderPath := outPath
	relocate := strings.Contains(outPath, " ")
	if relocate {
		renderPath = filepath.Join(os.TempDir(), fmt.Sprintf("voicereel_%s.mp4", uuid.NewString()))
	}

	args := []string{
		"-y",
		"-i", visualPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-t", formatSeconds(maxDuration + durationEpsilon),
		renderPath,
	}
	if err := p.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("mux final video: %w", err)
	}

	if relocate {
		if err := moveFile(renderPath, outPath); err != nil {
			return fmt.Errorf("relocate final video to %s: %w", outPath, err)
		}
	}
	return nil
}

// moveFile renames when possible and falls back to copy+remove for cross-device
// destinations.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
