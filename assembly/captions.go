package assembly

import (
	"context"
	"fmt"
	"os"
)

// StyleProfile is one named caption look. The shape is fixed (four named
// profiles, each overriding color, outline, margin and background); the
// concrete values are product styling, not a structural contract.
type StyleProfile struct {
	Name          string
	FontName      string
	FontSize      int // widescreen size; vertical canvases scale down
	VerticalSize  int
	PrimaryColour string // &HAABBGGRR, libass order
	OutlineColour string
	BackColour    string
	Outline       int
	Shadow        int
	MarginV       int
	BorderStyle   int // 1 = outline, 3 = opaque box
	Bold          int
}

var captionStyles = map[string]StyleProfile{
	"classic": {
		Name:          "classic",
		FontName:      "Arial",
		FontSize:      28,
		VerticalSize:  22,
		PrimaryColour: "&H00FFFFFF",
		OutlineColour: "&H00000000",
		BackColour:    "&H80000000",
		Outline:       2,
		Shadow:        1,
		MarginV:       40,
		BorderStyle:   1,
		Bold:          0,
	},
	"modern": {
		Name:          "modern",
		FontName:      "Arial",
		FontSize:      32,
		VerticalSize:  24,
		PrimaryColour: "&H00FFFFFF",
		OutlineColour: "&H00000000",
		BackColour:    "&HA0000000",
		Outline:       0,
		Shadow:        0,
		MarginV:       60,
		BorderStyle:   3,
		Bold:          1,
	},
	"neon": {
		Name:          "neon",
		FontName:      "Arial",
		FontSize:      32,
		VerticalSize:  24,
		PrimaryColour: "&H0000FFFF",
		OutlineColour: "&H00FF00FF",
		BackColour:    "&H00000000",
		Outline:       3,
		Shadow:        2,
		MarginV:       50,
		BorderStyle:   1,
		Bold:          1,
	},
}

// StyleFor resolves a caption style by name. "none", the empty string and
// unknown names all mean no burn-in.
func StyleFor(name string) (StyleProfile, bool) {
	s, ok := captionStyles[name]
	return s, ok
}

// ForceStyle renders the profile as a libass force_style string.
func (s StyleProfile) ForceStyle(c Canvas) string {
	size := s.FontSize
	if c.Vertical() {
		size = s.VerticalSize
	}
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,BackColour=%s,BorderStyle=%d,Outline=%d,Shadow=%d,MarginV=%d,Bold=%d,Alignment=2",
		s.FontName, size, s.PrimaryColour, s.OutlineColour, s.BackColour,
		s.BorderStyle, s.Outline, s.Shadow, s.MarginV, s.Bold,
	)
}

// burnCaptions overlays the subtitle track onto the visual track. Returns the
// path of the track to carry forward and whether a re-encode happened. With
// style "none" or no caption file on disk this is a passthrough: the input
// path is returned untouched.
func (p *Pipeline) burnCaptions(ctx context.Context, visualPath, subtitlePath, styleName string, c Canvas, outPath string) (string, bool, error) {
	style, ok := StyleFor(styleName)
	if !ok || subtitlePath == "" {
		return visualPath, false, nil
	}
	if _, err := os.Stat(subtitlePath); err != nil {
		return visualPath, false, nil
	}

	err := p.runner.Run(ctx,
		"-y",
		"-i", visualPath,
		"-vf", subtitleBurnFilter(subtitlePath, style, c),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	if err != nil {
		return "", false, fmt.Errorf("burn captions (style %s): %w", style.Name, err)
	}
	return outPath, true, nil
}
