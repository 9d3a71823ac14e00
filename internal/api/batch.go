package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tvscribe/internal/export"
	"tvscribe/internal/job"
)

type batchRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// batchStatus reports per-file statuses plus totals for a set of projects, so
// a client tracking a whole shoot does not poll one id at a time.
func (s *Server) batchStatus(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "ids is required")
		return
	}

	files := make([]gin.H, 0, len(req.IDs))
	var completed, errored, inProgress, notFound int
	for _, id := range req.IDs {
		j, ok := s.Registry.Get(id)
		if !ok {
			notFound++
			files = append(files, gin.H{"id": id, "status": "not_found"})
			continue
		}
		entry := gin.H{"id": id, "status": string(j.Status), "original_filename": j.OriginalFilename}
		if j.ProgressPercent != nil {
			entry["progress_percent"] = *j.ProgressPercent
		}
		switch j.Status {
		case job.StatusCompleted:
			completed++
		case job.StatusError:
			errored++
			entry["error"] = j.Error
		default:
			inProgress++
		}
		files = append(files, entry)
	}

	success(c, gin.H{
		"files": files,
		"totals": gin.H{
			"total":       len(req.IDs),
			"completed":   completed,
			"errored":     errored,
			"in_progress": inProgress,
			"not_found":   notFound,
		},
	})
}

// batchExport renders every completed project in the set into the output
// directory and reports what was written and what was skipped.
func (s *Server) batchExport(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "ids is required")
		return
	}

	written := make([]string, 0, len(req.IDs))
	skipped := make([]gin.H, 0)
	for _, id := range req.IDs {
		j, ok := s.Registry.Get(id)
		if !ok {
			skipped = append(skipped, gin.H{"id": id, "reason": "not_found"})
			continue
		}
		if j.Status != job.StatusCompleted {
			skipped = append(skipped, gin.H{"id": id, "reason": string(j.Status)})
			continue
		}
		dest, err := export.AutoExport(*j.Result, s.Cfg.OutputDir, id)
		if err != nil {
			log.Printf("[API] batch export %s: %v", id, err)
			skipped = append(skipped, gin.H{"id": id, "reason": "write_failed"})
			continue
		}
		written = append(written, dest)
	}

	success(c, gin.H{"written": written, "skipped": skipped})
}
