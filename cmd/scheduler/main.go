package main

import (
	"log"
	"time"

	"github.com/drewmudry/voicereel-api/internal/platform"
	"github.com/drewmudry/voicereel-api/models"
	"github.com/drewmudry/voicereel-api/progress"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// A job stuck in an in-flight status for longer than this is assumed dead
// (worker crashed mid-pipeline) and marked failed so the client stops waiting.
const staleJobAge = 2 * time.Hour

const sessionSweepInterval = "@hourly"
const staleJobSweepInterval = "@every 10m"

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	c := cron.New()

	if _, err := c.AddFunc(staleJobSweepInterval, func() { sweepStaleJobs(db, rdb) }); err != nil {
		log.Fatalf("Error scheduling stale job sweep: %v", err)
	}
	if _, err := c.AddFunc(sessionSweepInterval, func() { sweepExpiredSessions(db) }); err != nil {
		log.Fatalf("Error scheduling session sweep: %v", err)
	}

	c.Start()
	defer c.Stop()

	log.Println("Scheduler started")
	// Keep the main thread alive
	select {}
}

// sweepStaleJobs fails jobs that have been in-flight too long and notifies any
// client still watching them.
func sweepStaleJobs(db *gorm.DB, rdb *redis.Client) {
	inFlight := []string{
		models.StatusQueued,
		models.StatusTranscribing,
		models.StatusAnalyzing,
		models.StatusSourcingVisuals,
		models.StatusAssembling,
	}
	cutoff := time.Now().Add(-staleJobAge)

	var stale []models.Job
	if err := db.Where("status IN ? AND updated_at < ?", inFlight, cutoff).Find(&stale).Error; err != nil {
		log.Printf("Error sweeping stale jobs: %v", err)
		return
	}

	for _, job := range stale {
		err := db.Model(&job).Updates(map[string]interface{}{
			"status": models.StatusFailed,
			"error":  "Job timed out",
		}).Error
		if err != nil {
			log.Printf("Error failing stale job %s: %v", job.JobID, err)
			continue
		}
		progress.NewPublisher(rdb, job.JobID).Fail("Job timed out")
		log.Printf("Marked stale job %s as failed (last update %s)", job.JobID, job.UpdatedAt.Format(time.RFC3339))
	}
}

// sweepExpiredSessions deletes sessions past their expiry.
func sweepExpiredSessions(db *gorm.DB) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		log.Printf("Error sweeping expired sessions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Deleted %d expired sessions", result.RowsAffected)
	}
}
