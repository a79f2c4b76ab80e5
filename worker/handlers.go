package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/drewmudry/voicereel-api/assembly"
	"github.com/drewmudry/voicereel-api/media"
	"github.com/drewmudry/voicereel-api/models"
	"github.com/drewmudry/voicereel-api/processing"
	"github.com/drewmudry/voicereel-api/progress"
	"github.com/drewmudry/voicereel-api/subtitles"
	"github.com/drewmudry/voicereel-api/tasks"
	"github.com/drewmudry/voicereel-api/transcribe"
)

// HandleAnalyze processes tasks from QueueAudioAnalyze: transcribe the
// upload, segment the transcript, source a first visual per segment and park
// the job for human review.
func (p *Processor) HandleAnalyze(ctx context.Context, payload string) error {
	var task tasks.AnalyzeTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var job models.Job
	if err := p.DB.Where("job_id = ?", task.JobID).First(&job).Error; err != nil {
		return fmt.Errorf("job %s not found: %w", task.JobID, err)
	}

	pub := progress.NewPublisher(p.RDB, job.JobID)
	workDir := job.WorkDir(p.UploadRoot)

	fail := func(stage string, err error) error {
		log.Printf("[Job %s] %s failed: %v", job.JobID, stage, err)
		p.DB.Model(&job).Updates(map[string]interface{}{"status": models.StatusFailed, "error": err.Error()})
		pub.Fail(err.Error())
		return err
	}

	// 1. Transcription
	p.DB.Model(&job).Update("status", models.StatusTranscribing)
	pub.Report("transcription", 10, "Transcribing audio...")

	tr, err := p.Transcriber.Transcribe(ctx, job.AudioPath)
	if err != nil {
		return fail("transcription", err)
	}

	totalDuration, err := p.Runner.Probe(ctx, job.AudioPath)
	if err != nil {
		return fail("probe", err)
	}

	updates := map[string]interface{}{
		"transcript":     tr.Text,
		"total_duration": totalDuration,
	}

	// Encode the caption track while the word timing is at hand.
	if tr.HasWordTimestamps() && job.CaptionStyle != "none" {
		srt := subtitles.EncodeSRT(subtitles.BuildCues(cueUnits(tr.Chunks)))
		subtitlePath := filepath.Join(workDir, "subtitles.srt")
		if err := os.WriteFile(subtitlePath, []byte(srt), 0o644); err != nil {
			log.Printf("[Job %s] Failed to write subtitles: %v", job.JobID, err)
		} else {
			updates["subtitle_path"] = subtitlePath
		}
	}
	p.DB.Model(&job).Updates(updates)
	pub.Report("transcription", 30, "Transcription complete")

	// 2. Segmentation + analysis
	p.DB.Model(&job).Update("status", models.StatusAnalyzing)
	pub.Report("analysis", 35, "Analyzing content...")

	segments, err := processing.CreateSegments(ctx, tr)
	if err != nil {
		return fail("analysis", err)
	}
	if len(segments) == 0 {
		return fail("analysis", fmt.Errorf("segmentation produced no segments"))
	}

	// When timing was estimated rather than measured, stretch the estimate
	// over the real audio length by even division.
	if !tr.HasWordTimestamps() {
		evenDuration := totalDuration / float64(len(segments))
		var cursor float64
		for i := range segments {
			segments[i].StartTime = cursor
			segments[i].Duration = evenDuration
			segments[i].EndTime = cursor + evenDuration
			cursor += evenDuration
		}
	}
	pub.Report("analysis", 50, "Analysis complete")

	// 3. Initial visual suggestions
	p.DB.Model(&job).Update("status", models.StatusSourcingVisuals)
	pub.Report("media", 55, "Generating visuals...")

	prog := 55.0
	step := 30.0 / float64(len(segments))

	for _, seg := range segments {
		res, err := p.Media.Generate(ctx, media.Request{
			Prompt:         seg.ImagePrompt,
			VisualTopic:    seg.VisualTopic,
			JobID:          job.JobID,
			SegmentKey:     strconv.Itoa(seg.SegmentID),
			AspectRatio:    job.AspectRatio,
			ImageSource:    job.ImageSource,
			ContainsPeople: seg.ContainsPeople,
			MediaType:      job.MediaType,
			OutputDir:      workDir,
		})
		if err != nil {
			return fail("media", fmt.Errorf("visual sourcing for segment %d: %w", seg.SegmentID, err))
		}

		row := models.Segment{
			JobRef:         job.JobID,
			SegmentID:      seg.SegmentID,
			TextContent:    seg.TextContent,
			VisualTopic:    seg.VisualTopic,
			ImagePrompt:    seg.ImagePrompt,
			Sentiment:      seg.Sentiment,
			ContainsPeople: seg.ContainsPeople,
			StartTime:      seg.StartTime,
			EndTime:        seg.EndTime,
			Duration:       seg.Duration,
			MediaPath:      res.Path,
			MediaType:      string(res.Type),
			MediaURL:       fmt.Sprintf("/api/media/%s/%s", job.JobID, filepath.Base(res.Path)),
		}
		if err := p.DB.Create(&row).Error; err != nil {
			return fail("media", fmt.Errorf("save segment %d: %w", seg.SegmentID, err))
		}

		prog += step
		pub.Report("media", min85(prog), fmt.Sprintf("Generated visual %d/%d", seg.SegmentID, len(segments)))
	}

	p.DB.Model(&job).Update("status", models.StatusAwaitingReview)
	pub.Report("review", 85, fmt.Sprintf("%d segments ready for review", len(segments)))
	log.Printf("[Job %s] Analysis complete, %d segments awaiting review", job.JobID, len(segments))
	return nil
}

// HandleAssemble processes tasks from QueueVideoAssemble: run the assembly
// pipeline over the confirmed segments and publish the final video URL.
func (p *Processor) HandleAssemble(ctx context.Context, payload string) error {
	var task tasks.AssembleTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var job models.Job
	if err := p.DB.Where("job_id = ?", task.JobID).First(&job).Error; err != nil {
		return fmt.Errorf("job %s not found: %w", task.JobID, err)
	}

	pub := progress.NewPublisher(p.RDB, job.JobID)

	fail := func(err error) error {
		log.Printf("[Job %s] Assembly failed: %v", job.JobID, err)
		p.DB.Model(&job).Updates(map[string]interface{}{"status": models.StatusFailed, "error": err.Error()})
		pub.Fail(err.Error())
		return err
	}

	var rows []models.Segment
	if err := p.DB.Where("job_id = ?", job.JobID).Order("segment_id asc").Find(&rows).Error; err != nil {
		return fail(err)
	}
	if len(rows) == 0 {
		return fail(fmt.Errorf("job %s has no segments", job.JobID))
	}

	// The review workflow must have signed off on every segment.
	for _, row := range rows {
		if !row.Confirmed {
			return fail(fmt.Errorf("segment %d is not confirmed", row.SegmentID))
		}
	}

	segments := make([]assembly.Segment, len(rows))
	for i, row := range rows {
		segments[i] = assembly.Segment{
			ID:        row.SegmentID,
			Text:      row.TextContent,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Duration:  row.Duration,
			MediaPath: row.MediaPath,
			MediaKind: assembly.MediaKind(row.EffectiveMediaType()),
		}
	}

	p.DB.Model(&job).Update("status", models.StatusAssembling)

	outPath, err := p.Pipeline.Assemble(ctx, assembly.Request{
		JobID:        job.JobID,
		AudioPath:    job.AudioPath,
		Segments:     segments,
		WorkDir:      job.WorkDir(p.UploadRoot),
		AspectRatio:  job.AspectRatio,
		SubtitlePath: job.SubtitlePath,
		CaptionStyle: job.CaptionStyle,
		Sink:         pub,
	})
	if err != nil {
		return fail(err)
	}

	p.DB.Model(&job).Updates(map[string]interface{}{
		"status":     models.StatusComplete,
		"video_path": outPath,
		"error":      "",
	})
	pub.Done(fmt.Sprintf("/api/download/%s/%s", job.JobID, assembly.OutputFilename))
	log.Printf("[Job %s] Complete: %s", job.JobID, outPath)
	return nil
}

// cueUnits adapts transcriber word chunks to subtitle units.
func cueUnits(chunks []transcribe.WordChunk) []subtitles.Unit {
	units := make([]subtitles.Unit, len(chunks))
	for i, c := range chunks {
		end, ok := c.End()
		units[i] = subtitles.Unit{Text: c.Text, Start: c.Start(), End: end, HasEnd: ok}
	}
	return units
}

func min85(v float64) int {
	if v > 85 {
		return 85
	}
	return int(v)
}
