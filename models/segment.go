package models

import "time"

// Segment is one reviewed narrative beat of a job's video. The assembly
// pipeline consumes segments as-is; only the review endpoints mutate them.
type Segment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	JobRef string `gorm:"column:job_id;not null;index" json:"job_id"`

	// SegmentID is the 1-based position within the job, stable across the
	// review workflow.
	SegmentID   int    `gorm:"not null" json:"segment_id"`
	TextContent string `gorm:"type:text" json:"text_content"`

	// Art direction from analysis
	VisualTopic    string `json:"visual_topic"`
	ImagePrompt    string `gorm:"type:text" json:"image_prompt"`
	Sentiment      string `json:"sentiment"`
	ContainsPeople bool   `json:"contains_people"`

	// Timing relative to the original audio, seconds
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`

	// Chosen visual asset
	MediaPath     string `json:"media_path"`
	MediaType     string `json:"media_type"` // image|video
	MediaURL      string `json:"media_url"`
	UserMediaType string `json:"user_media_type"` // review override, wins over MediaType

	Confirmed bool `gorm:"default:false" json:"confirmed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Segment) TableName() string {
	return "segments"
}

// EffectiveMediaType returns the review override when set.
func (s *Segment) EffectiveMediaType() string {
	if s.UserMediaType != "" {
		return s.UserMediaType
	}
	return s.MediaType
}
