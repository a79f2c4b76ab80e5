package assembly

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Filter-expression construction lives behind these small pure functions so
// the textual ffmpeg boundary stays unit-testable without running ffmpeg.

// zoomTarget is the scale the Ken Burns effect reaches at the end of a clip.
const zoomTarget = 1.5

// frameCount is the number of frames a clip of the given duration occupies at
// the canvas frame rate, rounded up so the zoom always completes.
func frameCount(duration float64, fps int) int {
	return int(math.Ceil(duration * float64(fps)))
}

// supersampleFilter scales a source up to 2x the canvas and center-crops it.
// Zooming on a raster at final resolution aliases badly; the extra pixels give
// zoompan room to sample from.
func supersampleFilter(c Canvas) string {
	w, h := c.Width*2, c.Height*2
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1", w, h, w, h)
}

// zoomPanFilter builds the continuous linear zoom from 1.0 to zoomTarget over
// the whole clip, holding the crop centered, emitting frames at the canvas
// resolution and frame rate.
func zoomPanFilter(c Canvas, duration float64) string {
	frames := frameCount(duration, c.FPS)
	return fmt.Sprintf(
		"zoompan=z='1+(%s*on/%d)':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d",
		formatSeconds(zoomTarget-1), frames, frames, c.Width, c.Height, c.FPS,
	)
}

// coverScaleFilter fits a video source onto the canvas by matching the
// constraining dimension and cropping the overflow. Never letterboxes.
func coverScaleFilter(c Canvas) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1", c.Width, c.Height, c.Width, c.Height)
}

// trimResetFilter hard-trims to the exact requested duration and re-zeroes the
// presentation timestamps so downstream concatenation sees zero-based clips.
func trimResetFilter(duration float64) string {
	return fmt.Sprintf("trim=duration=%s,setpts=PTS-STARTPTS", formatSeconds(duration))
}

// audioSliceFilter cuts one segment's span out of the original audio track and
// re-zeroes its timestamps.
func audioSliceFilter(start, duration float64) string {
	return fmt.Sprintf("atrim=start=%s:duration=%s,asetpts=PTS-STARTPTS", formatSeconds(start), formatSeconds(duration))
}

// subtitleBurnFilter renders the caption file into the pixel data. The
// subtitles filter parses its argument as a colon-delimited option string, so
// the path must be escaped before interpolation.
func subtitleBurnFilter(subtitlePath string, style StyleProfile, c Canvas) string {
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(subtitlePath), style.ForceStyle(c))
}

// escapeFilterPath escapes the characters the filter-graph parser treats as
// structure: backslashes, colons (option separators) and single quotes.
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
	)
	return r.Replace(p)
}

// formatSeconds renders a duration argument with millisecond precision and no
// exponent notation, the way ffmpeg expects it.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
