// main.go
package main

import (
	"log"
	"os"

	"github.com/drewmudry/voicereel-api/auth"
	"github.com/drewmudry/voicereel-api/internal/platform"
	"github.com/drewmudry/voicereel-api/jobs"
	"github.com/drewmudry/voicereel-api/models"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type Server struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
}

func NewServer() (*Server, error) {
	// Use the shared connection initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.Job{}, &models.Segment{}); err != nil {
		return nil, err
	}

	router := gin.Default()

	// CORS for the frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", os.Getenv("FRONTEND_URL"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		DB:     db,
		Redis:  rdb,
		Router: router,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	})

	authHandler := auth.NewHandler(s.DB)
	jobHandler := jobs.NewHandler(s.DB, s.Redis, platform.UploadRoot())

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "VoiceReel API v1"})
	})

	// Auth routes (public - no auth middleware)
	authRoutes := s.Router.Group("/auth")
	{
		authRoutes.GET("/google", authHandler.InitiateGoogleLogin)
		authRoutes.GET("/google/callback", authHandler.GoogleCallback)
		authRoutes.POST("/logout", authHandler.Logout)

		// Protected auth route - requires auth middleware
		authRoutes.GET("/me", auth.AuthMiddleware(s.DB), authHandler.GetCurrentUser)
	}

	// Protected routes that require authentication
	protected := s.Router.Group("/api")
	protected.Use(auth.AuthMiddleware(s.DB))
	{
		protected.POST("/analyze", jobHandler.Analyze)
		protected.GET("/job/:jobId", jobHandler.GetJob)
		protected.GET("/alternatives/:jobId/:segmentId", jobHandler.Alternatives)
		protected.POST("/confirm-segment/:jobId/:segmentId", jobHandler.ConfirmSegment)
		protected.POST("/confirm-all/:jobId", jobHandler.ConfirmAll)
		protected.POST("/generate/:jobId", jobHandler.Generate)
		protected.GET("/status/:jobId", jobHandler.Status)
		protected.GET("/media/:jobId/:filename", jobHandler.ServeMedia)
		protected.GET("/download/:jobId/:filename", jobHandler.Download)
		protected.GET("/events/:jobId", jobHandler.Events)
	}
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		log.Fatal("Failed to create server:", err)
	}

	if err := server.Run(); err != nil {
		log.Fatal("Failed to run server:", err)
	}
}
