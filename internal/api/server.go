// Package api exposes the transcription pipeline over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"tvscribe/internal/config"
	"tvscribe/internal/job"
	"tvscribe/internal/runner"
	"tvscribe/internal/scheduler"
)

type Server struct {
	Registry *job.Registry
	Sched    *scheduler.Scheduler
	Runner   *runner.Runner
	Cfg      *config.Config
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/projects", s.createProject)
		v1.POST("/projects/upload", s.uploadProject)
		v1.GET("/projects/:id/status", s.getProjectStatus)
		v1.GET("/projects/:id", s.getProject)
		v1.POST("/projects/:id/export", s.exportProject)
		v1.POST("/projects/:id/summary", s.summarizeProject)
		v1.POST("/batch/status", s.batchStatus)
		v1.POST("/batch/export", s.batchExport)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	success(c, gin.H{
		"status":  "ok",
		"service": "tvscribe-backend",
	})
}
