package models

import (
	"time"
)

// Job statuses, in pipeline order. A job parks at StatusAwaitingReview until
// every segment is confirmed, then moves through assembly.
const (
	StatusQueued          = "queued"
	StatusTranscribing    = "transcribing"
	StatusAnalyzing       = "analyzing"
	StatusSourcingVisuals = "sourcing_visuals"
	StatusAwaitingReview  = "awaiting_review"
	StatusAssembling      = "assembling"
	StatusComplete        = "complete"
	StatusFailed          = "failed"
)

// Job is one audio-to-video run: an uploaded audio file plus everything
// derived from it.
type Job struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	JobID  string `gorm:"uniqueIndex;not null" json:"job_id"`
	UserID uint   `gorm:"index" json:"user_id"`

	// Upload parameters
	AudioPath    string `gorm:"not null" json:"audio_path"`
	OriginalName string `json:"original_name"`
	AspectRatio  string `gorm:"default:'16:9'" json:"aspect_ratio"`
	CaptionStyle string `gorm:"default:'none'" json:"caption_style"`
	ImageSource  string `gorm:"default:'mixed'" json:"image_source"`
	MediaType    string `gorm:"default:'image'" json:"media_type"`

	// Derived during analysis
	TotalDuration float64 `json:"total_duration"`
	Transcript    string  `gorm:"type:text" json:"transcript,omitempty"`
	SubtitlePath  string  `json:"subtitle_path,omitempty"`

	// Final output
	VideoPath string `json:"video_path,omitempty"`

	Status    string    `gorm:"default:'queued';index" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Segments []Segment `gorm:"foreignKey:JobRef;references:JobID" json:"segments,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

// WorkDir is where every intermediate artifact for the job lives. Each job
// gets its own directory; no two jobs ever share one.
func (j *Job) WorkDir(uploadRoot string) string {
	return uploadRoot + "/" + j.JobID
}
