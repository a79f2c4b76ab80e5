package jobs

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/drewmudry/voicereel-api/assembly"
	"github.com/drewmudry/voicereel-api/media"
	"github.com/drewmudry/voicereel-api/models"
	"github.com/drewmudry/voicereel-api/progress"
	"github.com/drewmudry/voicereel-api/tasks"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Media      *media.Source
	UploadRoot string
}

func NewHandler(db *gorm.DB, rdb *redis.Client, uploadRoot string) *Handler {
	return &Handler{
		DB:         db,
		Redis:      rdb,
		Media:      media.NewSource(),
		UploadRoot: uploadRoot,
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Analyze accepts an audio upload and queues the analysis phase. The response
// returns immediately with the job id; progress streams over the job's event
// channel.
func (h *Handler) Analyze(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	jobID := uuid.NewString()
	workDir := filepath.Join(h.UploadRoot, jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job directory"})
		return
	}

	sanitized := unsafeFilename.ReplaceAllString(filepath.Base(file.Filename), "_")
	audioPath := filepath.Join(workDir, sanitized)
	if err := c.SaveUploadedFile(file, audioPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save upload"})
		return
	}

	job := models.Job{
		JobID:        jobID,
		UserID:       c.GetUint("user_id"),
		AudioPath:    audioPath,
		OriginalName: file.Filename,
		AspectRatio:  c.DefaultPostForm("aspectRatio", "16:9"),
		CaptionStyle: c.DefaultPostForm("captionStyle", "none"),
		ImageSource:  c.DefaultPostForm("imageSource", "mixed"),
		MediaType:    c.DefaultPostForm("mediaType", "image"),
		Status:       models.StatusQueued,
	}
	if err := h.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	payload, err := tasks.Marshal(tasks.AnalyzeTaskPayload{JobID: jobID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue job"})
		return
	}
	if err := h.Redis.LPush(c.Request.Context(), tasks.QueueAudioAnalyze, payload).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue job"})
		return
	}

	log.Printf("[Job %s] Uploaded %s, queued for analysis", jobID, file.Filename)
	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"jobId":   jobID,
	})
}

// GetJob returns the job with its segments and review progress.
func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	var segments []models.Segment
	if err := h.DB.Where("job_id = ?", job.JobID).Order("segment_id asc").Find(&segments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve segments"})
		return
	}

	confirmed := 0
	for _, s := range segments {
		if s.Confirmed {
			confirmed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"jobId":          job.JobID,
		"status":         job.Status,
		"allConfirmed":   len(segments) > 0 && confirmed == len(segments),
		"totalSegments":  len(segments),
		"confirmedCount": confirmed,
		"segments":       segments,
	})
}

// Alternatives sources a handful of fresh visual candidates for one segment.
func (h *Handler) Alternatives(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	segmentID, err := strconv.Atoi(c.Param("segmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid segment ID"})
		return
	}

	var segment models.Segment
	if err := h.DB.Where("job_id = ? AND segment_id = ?", job.JobID, segmentID).First(&segment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	mediaType := c.Query("type")
	if mediaType == "" {
		mediaType = segment.EffectiveMediaType()
	}

	alternatives := make([]gin.H, 0, 4)
	for i := 0; i < 4; i++ {
		altKey := fmt.Sprintf("%d_alt_%d", segmentID, i+1)
		res, err := h.Media.Generate(c.Request.Context(), media.Request{
			Prompt:         segment.ImagePrompt,
			VisualTopic:    segment.VisualTopic,
			JobID:          job.JobID,
			SegmentKey:     altKey,
			AspectRatio:    job.AspectRatio,
			ImageSource:    job.ImageSource,
			ContainsPeople: segment.ContainsPeople,
			MediaType:      mediaType,
			VariationIndex: i,
			OutputDir:      filepath.Join(h.UploadRoot, job.JobID),
		})
		if err != nil {
			log.Printf("[Job %s] Alternative %s failed: %v", job.JobID, altKey, err)
			continue
		}
		alternatives = append(alternatives, gin.H{
			"id":         altKey,
			"media_path": res.Path,
			"media_type": res.Type,
			"media_url":  fmt.Sprintf("/api/media/%s/%s", job.JobID, filepath.Base(res.Path)),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"segmentId":    segmentID,
		"alternatives": alternatives,
	})
}

type confirmSegmentRequest struct {
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	MediaPath string `json:"media_path"`
	Confirmed *bool  `json:"confirmed"`
}

// ConfirmSegment updates one segment's visual choice and confirmation flag.
func (h *Handler) ConfirmSegment(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	segmentID, err := strconv.Atoi(c.Param("segmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid segment ID"})
		return
	}

	var req confirmSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var segment models.Segment
	if err := h.DB.Where("job_id = ? AND segment_id = ?", job.JobID, segmentID).First(&segment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.MediaURL != "" {
		updates["media_url"] = req.MediaURL
	}
	if req.MediaType != "" {
		updates["user_media_type"] = req.MediaType
	}
	if req.MediaPath != "" {
		updates["media_path"] = req.MediaPath
	}
	if req.Confirmed != nil {
		updates["confirmed"] = *req.Confirmed
	}
	if len(updates) > 0 {
		if err := h.DB.Model(&segment).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update segment"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "segment": segment})
}

// ConfirmAll confirms every segment at once.
func (h *Handler) ConfirmAll(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	result := h.DB.Model(&models.Segment{}).Where("job_id = ?", job.JobID).Update("confirmed", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm segments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "All segments confirmed",
		"confirmedCount": result.RowsAffected,
	})
}

// Generate queues the assembly phase. Refuses while any segment is
// unconfirmed: the pipeline only runs on reviewed data.
func (h *Handler) Generate(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	var unconfirmed []models.Segment
	if err := h.DB.Where("job_id = ? AND confirmed = false", job.JobID).Find(&unconfirmed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check segments"})
		return
	}
	if len(unconfirmed) > 0 {
		ids := make([]int, len(unconfirmed))
		for i, s := range unconfirmed {
			ids[i] = s.SegmentID
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"message":             "Not all segments are confirmed",
			"unconfirmedCount":    len(unconfirmed),
			"unconfirmedSegments": ids,
		})
		return
	}

	payload, err := tasks.Marshal(tasks.AssembleTaskPayload{JobID: job.JobID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue assembly"})
		return
	}
	if err := h.Redis.LPush(c.Request.Context(), tasks.QueueVideoAssemble, payload).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue assembly"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Video generation started",
		"jobId":   job.JobID,
	})
}

// Status reports the job's current state.
func (h *Handler) Status(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	resp := gin.H{
		"id":    job.JobID,
		"state": job.Status,
		"error": job.Error,
	}
	if job.Status == models.StatusComplete {
		resp["videoUrl"] = fmt.Sprintf("/api/download/%s/%s", job.JobID, assembly.OutputFilename)
	}
	c.JSON(http.StatusOK, resp)
}

// ServeMedia serves a job-scoped media file for the review UI.
func (h *Handler) ServeMedia(c *gin.Context) {
	h.serveJobFile(c, false)
}

// Download serves the final output as an attachment.
func (h *Handler) Download(c *gin.Context) {
	h.serveJobFile(c, true)
}

func (h *Handler) serveJobFile(c *gin.Context, attachment bool) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	filename := filepath.Base(c.Param("filename"))

	path := filepath.Join(h.UploadRoot, job.JobID, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
		return
	}
	if attachment {
		c.FileAttachment(path, filename)
		return
	}
	c.File(path)
}

// Events streams the job's progress events over SSE, bridging the redis
// pub/sub channel to the HTTP client.
func (h *Handler) Events(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	pubsub := h.Redis.Subscribe(c.Request.Context(), progress.Channel(job.JobID))
	defer pubsub.Close()
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("message", msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// loadJob resolves the :jobId path parameter, writing the error response
// itself. Job ids are always uuids, so anything else is rejected before it
// can reach a query or a filesystem path, and lookups are scoped to the
// authenticated owner.
func (h *Handler) loadJob(c *gin.Context) (models.Job, bool) {
	var job models.Job
	jobID := c.Param("jobId")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid job ID"})
		return job, false
	}
	if err := h.DB.Where("job_id = ? AND user_id = ?", jobID, c.GetUint("user_id")).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
		return job, false
	}
	return job, true
}
