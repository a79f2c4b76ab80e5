package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
// We define all queue names as constants here.
const (
	// QueueAudioAnalyze is the first step: transcribe the upload, segment the
	// transcript and source initial visuals for review.
	QueueAudioAnalyze = "q_audio_analyze"

	// QueueVideoAssemble is the second step: assemble the final video from
	// the confirmed segments.
	QueueVideoAssemble = "q_video_assemble"
)

// ---
// TASK PAYLOADS
// ---
// These are the structs that will be JSON-marshalled and sent to Redis.

// AnalyzeTaskPayload is the payload for QueueAudioAnalyze
type AnalyzeTaskPayload struct {
	JobID string `json:"job_id"`
}

// AssembleTaskPayload is the payload for QueueVideoAssemble
type AssembleTaskPayload struct {
	JobID string `json:"job_id"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
