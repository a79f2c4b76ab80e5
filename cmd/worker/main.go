package main

import (
	"context"
	"log"

	"github.com/drewmudry/voicereel-api/assembly"
	"github.com/drewmudry/voicereel-api/internal/platform"
	"github.com/drewmudry/voicereel-api/tasks"
	"github.com/drewmudry/voicereel-api/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	runner := assembly.NewFFmpegRunner()
	if err := runner.AssertReady(); err != nil {
		log.Fatalf("ffmpeg not available: %v", err)
	}

	processor := worker.NewProcessor(db, rdb, runner, platform.UploadRoot())
	processor.Register(tasks.QueueAudioAnalyze, processor.HandleAnalyze)
	processor.Register(tasks.QueueVideoAssemble, processor.HandleAssemble)

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx, tasks.QueueAudioAnalyze, tasks.QueueVideoAssemble)
}
