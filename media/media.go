// Package media sources one visual asset per segment: stock footage and
// photos from Pexels, generated images from a local Stable Diffusion API with
// Pollinations as the last-resort fallback.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Kind distinguishes the two asset flavors the render pipeline handles.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Result is a sourced asset on local disk.
type Result struct {
	Path string `json:"path"`
	Type Kind   `json:"type"`
}

// Request describes what to source for one segment.
type Request struct {
	Prompt         string
	VisualTopic    string
	JobID          string
	SegmentKey     string // "3" or "3_alt_1" for alternatives
	AspectRatio    string // "16:9" or "9:16"
	ImageSource    string // ai|stock|mixed
	ContainsPeople bool
	MediaType      string // image|video|both
	VariationIndex int    // bumps seeds/result pages so alternatives differ
	OutputDir      string
}

// Source holds provider configuration. Zero values disable the corresponding
// provider and the fallback chain skips it.
type Source struct {
	PexelsAPIKey string
	SDAPIURL     string
	HTTP         *http.Client
}

// NewSource reads provider configuration from the environment.
func NewSource() *Source {
	sdURL := os.Getenv("SD_API_URL")
	if sdURL == "" {
		sdURL = "http://127.0.0.1:7860/sdapi/v1/txt2img"
	}
	return &Source{
		PexelsAPIKey: os.Getenv("PEXELS_API_KEY"),
		SDAPIURL:     sdURL,
		HTTP:         &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate sources one asset per the request's source preferences, walking the
// provider fallback chain until something succeeds.
func (s *Source) Generate(ctx context.Context, req Request) (Result, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create media dir: %w", err)
	}

	switch req.MediaType {
	case "video":
		res, err := s.tryPexelsVideo(ctx, req)
		if err == nil {
			return res, nil
		}
		log.Printf("[Media] Video sourcing failed (%v), falling back to image", err)
		return s.generateImage(ctx, req)
	case "both":
		if rand.Float64() > 0.5 {
			if res, err := s.tryPexelsVideo(ctx, req); err == nil {
				return res, nil
			}
		}
		return s.generateImage(ctx, req)
	default:
		return s.generateImage(ctx, req)
	}
}

// generateImage walks the still-image chain: stock vs AI per source
// preference, Pollinations as the ultimate fallback.
func (s *Source) generateImage(ctx context.Context, req Request) (Result, error) {
	useStock := req.ImageSource == "stock"
	if req.ImageSource == "mixed" {
		// Faces from diffusion models read as uncanny; use stock when the
		// segment calls for people.
		useStock = req.ContainsPeople
	}

	imagePath := filepath.Join(req.OutputDir, fmt.Sprintf("segment_%s.png", req.SegmentKey))

	if useStock {
		if err := s.tryPexelsImage(ctx, req, imagePath); err == nil {
			return Result{Path: imagePath, Type: KindImage}, nil
		}
		if err := s.tryStableDiffusion(ctx, req, imagePath); err == nil {
			return Result{Path: imagePath, Type: KindImage}, nil
		}
	} else {
		if err := s.tryStableDiffusion(ctx, req, imagePath); err == nil {
			return Result{Path: imagePath, Type: KindImage}, nil
		}
	}

	if err := s.tryPollinations(ctx, req, imagePath); err != nil {
		return Result{}, fmt.Errorf("all media providers failed for segment %s: %w", req.SegmentKey, err)
	}
	return Result{Path: imagePath, Type: KindImage}, nil
}

type pexelsVideoResponse struct {
	Videos []struct {
		VideoFiles []struct {
			Link string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (s *Source) tryPexelsVideo(ctx context.Context, req Request) (Result, error) {
	if s.PexelsAPIKey == "" || req.VisualTopic == "" {
		return Result{}, fmt.Errorf("pexels video skipped (no key or topic)")
	}

	page := req.VariationIndex + 1
	log.Printf("[Media] Searching Pexels video for %q (page %d)", req.VisualTopic, page)

	endpoint := fmt.Sprintf(
		"https://api.pexels.com/videos/search?query=%s&per_page=1&page=%d&orientation=%s&size=medium",
		url.QueryEscape(req.VisualTopic), page, orientation(req.AspectRatio),
	)
	var parsed pexelsVideoResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return Result{}, err
	}
	if len(parsed.Videos) == 0 || len(parsed.Videos[0].VideoFiles) == 0 {
		return Result{}, fmt.Errorf("no videos found on pexels")
	}

	videoPath := filepath.Join(req.OutputDir, fmt.Sprintf("segment_%s.mp4", req.SegmentKey))
	if err := s.download(ctx, parsed.Videos[0].VideoFiles[0].Link, videoPath); err != nil {
		return Result{}, err
	}
	return Result{Path: videoPath, Type: KindVideo}, nil
}

type pexelsPhotoResponse struct {
	Photos []struct {
		Src struct {
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

func (s *Source) tryPexelsImage(ctx context.Context, req Request, imagePath string) error {
	if s.PexelsAPIKey == "" || req.VisualTopic == "" {
		return fmt.Errorf("pexels skipped (no key or topic)")
	}

	page := req.VariationIndex + 1
	log.Printf("[Media] Searching Pexels image for %q (page %d)", req.VisualTopic, page)

	endpoint := fmt.Sprintf(
		"https://api.pexels.com/v1/search?query=%s&per_page=1&page=%d&orientation=%s",
		url.QueryEscape(req.VisualTopic), page, orientation(req.AspectRatio),
	)
	var parsed pexelsPhotoResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return err
	}
	if len(parsed.Photos) == 0 {
		return fmt.Errorf("no photos found on pexels")
	}
	return s.download(ctx, parsed.Photos[0].Src.Original, imagePath)
}

type sdResponse struct {
	Images []string `json:"images"`
}

func (s *Source) tryStableDiffusion(ctx context.Context, req Request, imagePath string) error {
	w, h := sdDimensions(req.AspectRatio)
	log.Printf("[Media] Trying Stable Diffusion (%dx%d)...", w, h)

	payload := map[string]interface{}{
		"prompt":          req.Prompt + ", high quality, 4k, photorealistic",
		"negative_prompt": "blur, low quality, distortion, ugly",
		"steps":           20,
		"width":           w,
		"height":          h,
		"cfg_scale":       7,
		"seed":            rand.Intn(1000000) + req.VariationIndex*12345,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.SDAPIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stable diffusion returned %d", resp.StatusCode)
	}

	var parsed sdResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if len(parsed.Images) == 0 {
		return fmt.Errorf("no image from stable diffusion")
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Images[0])
	if err != nil {
		return fmt.Errorf("decode stable diffusion image: %w", err)
	}
	return os.WriteFile(imagePath, raw, 0o644)
}

func (s *Source) tryPollinations(ctx context.Context, req Request, imagePath string) error {
	log.Printf("[Media] Trying Pollinations...")

	prompt := req.Prompt + ", 4k"
	if req.VisualTopic != "" {
		prompt = req.VisualTopic + ", cinematic lighting, 4k"
	}
	w, h := canvasDimensions(req.AspectRatio)
	seed := rand.Intn(1000) + req.VariationIndex*99

	endpoint := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&seed=%d&nologo=true",
		url.PathEscape(prompt), w, h, seed,
	)
	return s.download(ctx, endpoint, imagePath)
}

// getJSON issues an authorized Pexels GET and decodes the response.
func (s *Source) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", s.PexelsAPIKey)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pexels returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// download streams a URL to a local file.
func (s *Source) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orientation(aspectRatio string) string {
	if aspectRatio == "9:16" {
		return "portrait"
	}
	return "landscape"
}

// sdDimensions are the diffusion-friendly generation sizes; the render stage
// upscales to the canvas.
func sdDimensions(aspectRatio string) (int, int) {
	if aspectRatio == "9:16" {
		return 576, 1024
	}
	return 1024, 576
}

func canvasDimensions(aspectRatio string) (int, int) {
	if aspectRatio == "9:16" {
		return 1080, 1920
	}
	return 1920, 1080
}
