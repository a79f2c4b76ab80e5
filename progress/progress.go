// Package progress publishes per-job events over redis pub/sub. Anything
// watching a job (the SSE endpoint, external listeners) subscribes to the
// job's channel; the worker and pipeline only ever see the small publisher
// interface.
package progress

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

// Event is one notification about a job. Progress events carry step/percent;
// error events carry only a message; the completion event carries the final
// video URL.
type Event struct {
	Event    string `json:"event"` // progress|error|complete
	Step     string `json:"step,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message"`
	VideoURL string `json:"videoUrl,omitempty"`
}

// Channel returns the pub/sub channel name for a job.
func Channel(jobID string) string {
	return "job_events:" + jobID
}

// Publisher emits events for one job. It satisfies the assembly pipeline's
// progress-sink interface.
type Publisher struct {
	rdb   *redis.Client
	jobID string
}

func NewPublisher(rdb *redis.Client, jobID string) *Publisher {
	return &Publisher{rdb: rdb, jobID: jobID}
}

// Report publishes a progress event.
func (p *Publisher) Report(step string, pct int, message string) {
	p.publish(Event{Event: "progress", Step: step, Progress: pct, Message: message})
}

// Fail publishes an explicit error event, distinct from any progress event.
// No video URL is ever emitted on failure.
func (p *Publisher) Fail(message string) {
	p.publish(Event{Event: "error", Message: message})
}

// Done publishes the completion event with the final output's relative URL.
func (p *Publisher) Done(videoURL string) {
	p.publish(Event{Event: "complete", Step: "complete", Progress: 100, Message: "Video ready!", VideoURL: videoURL})
}

// publish is best-effort: a dropped notification must never fail a job.
func (p *Publisher) publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("Error marshalling progress event: %v", err)
		return
	}
	if err := p.rdb.Publish(context.Background(), Channel(p.jobID), payload).Err(); err != nil {
		log.Printf("Error publishing progress for job %s: %v", p.jobID, err)
	}
}
