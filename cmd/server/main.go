package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tvscribe/internal/api"
	"tvscribe/internal/config"
	"tvscribe/internal/fetcher"
	"tvscribe/internal/job"
	"tvscribe/internal/media"
	"tvscribe/internal/recognize"
	"tvscribe/internal/resolver"
	"tvscribe/internal/retry"
	"tvscribe/internal/runner"
	"tvscribe/internal/scheduler"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	policy := retry.Policy{Attempts: cfg.DownloadRetries, Delay: cfg.DownloadBackoff}
	fetch := fetcher.New(policy)

	engine, err := recognize.NewEngine(cfg, fetch, policy)
	if err != nil {
		log.Fatalf("Failed to initialize recognition engine: %v", err)
	}
	log.Printf("Recognition engine: %s", engine.Name())

	registry := job.NewRegistry()
	server := &api.Server{
		Registry: registry,
		Sched:    scheduler.New(cfg.MaxConcurrentTasks),
		Runner: &runner.Runner{
			Registry:   registry,
			Resolver:   resolver.NewYandexDisk(),
			Fetcher:    fetch,
			Transcoder: media.FFmpeg{},
			Engine:     engine,
			Cfg:        cfg,
		},
		Cfg: cfg,
	}

	r := gin.Default()
	r.Use(corsMiddleware())
	server.RegisterRoutes(r)

	log.Printf("tvscribe backend running on :%s (%d concurrent task(s))", cfg.Port, cfg.MaxConcurrentTasks)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware adds CORS headers for the newsroom web client
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
