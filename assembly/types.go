package assembly

// MediaKind selects the render strategy for a segment's visual asset.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Segment is one narrative beat of the final video. The pipeline is a pure
// consumer: segments arrive finalized from the review stage and are never
// mutated here.
type Segment struct {
	ID        int
	Text      string
	StartTime float64
	EndTime   float64
	Duration  float64
	MediaPath string
	MediaKind MediaKind
}

// Request carries everything one assembly run needs. Segments must be supplied
// in final playback order; the pipeline does not sort them.
type Request struct {
	JobID        string
	AudioPath    string
	Segments     []Segment
	WorkDir      string
	AspectRatio  string // "16:9" or "9:16"
	SubtitlePath string // optional SRT file; empty disables captions
	CaptionStyle string // none|classic|modern|neon
	Sink         Sink
}

// Sink receives progress events during an assembly run. Inject NopSink in
// tests; the worker injects a redis-backed publisher.
type Sink interface {
	Report(step string, progress int, message string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Report(string, int, string) {}

// Canvas is the output raster for one job. Every clip in a job renders at the
// same canvas so concatenation never re-scales.
type Canvas struct {
	Width  int
	Height int
	FPS    int
}

// DefaultFPS is the one frame rate used across a whole job.
const DefaultFPS = 30

// CanvasFor maps an aspect-ratio name onto concrete output dimensions.
// Anything that is not the vertical format gets the widescreen canvas.
func CanvasFor(aspectRatio string) Canvas {
	if aspectRatio == "9:16" {
		return Canvas{Width: 1080, Height: 1920, FPS: DefaultFPS}
	}
	return Canvas{Width: 1920, Height: 1080, FPS: DefaultFPS}
}

// Vertical reports whether the canvas is taller than wide. Caption styles use
// a smaller font on vertical canvases.
func (c Canvas) Vertical() bool {
	return c.Height > c.Width
}
