package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WhisperCLI runs an external whisper binary that emits a JSON transcript with
// word-level timestamps on stdout. The audio is first normalized to 16kHz mono
// WAV, which is what the speech models expect.
type WhisperCLI struct {
	Binary string // defaults to "whisper-json"
	Model  string // defaults to "base"
}

// NewWhisperCLI reads WHISPER_BIN and WHISPER_MODEL from the environment.
func NewWhisperCLI() *WhisperCLI {
	bin := os.Getenv("WHISPER_BIN")
	if bin == "" {
		bin = "whisper-json"
	}
	model := os.Getenv("WHISPER_MODEL")
	if model == "" {
		model = "base"
	}
	return &WhisperCLI{Binary: bin, Model: model}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	wavPath, err := convertToWav(ctx, audioPath)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(wavPath)

	log.Printf("Transcribing %s with %s (model %s)...", filepath.Base(audioPath), w.Binary, w.Model)

	cmd := exec.CommandContext(ctx, w.Binary,
		"--model", w.Model,
		"--word-timestamps",
		"--output-format", "json",
		wavPath,
	)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return Result{}, fmt.Errorf("whisper failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return Result{}, fmt.Errorf("run whisper: %w", err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return Result{}, fmt.Errorf("parse whisper output: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return Result{}, fmt.Errorf("whisper produced an empty transcript for %s", audioPath)
	}
	return result, nil
}

// convertToWav normalizes arbitrary uploaded audio to 16kHz mono WAV next to
// the source file.
func convertToWav(ctx context.Context, inputPath string) (string, error) {
	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".wav"

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg wav conversion failed: %w; out=%s", err, string(out))
	}
	return outputPath, nil
}
