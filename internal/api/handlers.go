package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tvscribe/internal/ai"
	"tvscribe/internal/export"
	"tvscribe/internal/job"
	"tvscribe/internal/runner"
	"tvscribe/internal/validate"
)

type createProjectRequest struct {
	URL string `json:"url" binding:"required"`
}

// createProject accepts a public file-host link and queues a transcription
// job. The link and host are validated synchronously; everything else happens
// in the background.
func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "url is required")
		return
	}
	if err := validate.SourceURL(req.URL); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	s.Registry.Create(id)
	log.Printf("[API] queued %s for %s", id, req.URL)

	src := runner.Source{URL: req.URL}
	s.Sched.Submit(func() {
		s.Runner.Run(context.Background(), id, src)
	})

	success(c, gin.H{"id": id, "status": string(job.StatusQueued)})
}

// uploadProject accepts a direct media upload and queues it, skipping the
// download stage.
func (s *Server) uploadProject(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		if file, err = c.FormFile("media"); err != nil {
			fail(c, http.StatusBadRequest, "file is required")
			return
		}
	}

	if err := validate.FileExtension(file.Filename); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.FileSize(file.Size, s.Cfg.MaxFileSizeBytes); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(file.Filename))
	dest := filepath.Join(s.Cfg.TempDir, id+"_upload"+ext)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		log.Printf("[API] saving upload for %s: %v", id, err)
		fail(c, http.StatusInternalServerError, "failed to save uploaded file")
		return
	}

	s.Registry.Create(id)
	s.Registry.SetOriginalFilename(id, file.Filename)
	log.Printf("[API] queued %s for upload %s (%d bytes)", id, file.Filename, file.Size)

	src := runner.Source{UploadPath: dest, Filename: file.Filename}
	s.Sched.Submit(func() {
		s.Runner.Run(context.Background(), id, src)
	})

	success(c, gin.H{"id": id, "status": string(job.StatusQueued)})
}

func (s *Server) getProjectStatus(c *gin.Context) {
	j, ok := s.Registry.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	data := gin.H{
		"id":                j.ID,
		"status":            string(j.Status),
		"original_filename": j.OriginalFilename,
	}
	if j.ProgressPercent != nil {
		data["progress_percent"] = *j.ProgressPercent
	}
	if j.Status == job.StatusError {
		data["error"] = j.Error
	}
	success(c, data)
}

func (s *Server) getProject(c *gin.Context) {
	j, ok := s.Registry.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	if j.Status != job.StatusCompleted {
		fail(c, http.StatusBadRequest, fmt.Sprintf("project is %s, not completed", j.Status))
		return
	}
	success(c, gin.H{
		"id":     j.ID,
		"result": j.Result,
	})
}

type exportRequest struct {
	Mappings []export.NameMapping `json:"mappings"`
	Filename string               `json:"filename"`
}

// exportProject renders a completed transcript as a downloadable document,
// honoring per-speaker name overrides.
func (s *Server) exportProject(c *gin.Context) {
	j, ok := s.Registry.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	if j.Status != job.StatusCompleted {
		fail(c, http.StatusBadRequest, fmt.Sprintf("project is %s, not completed", j.Status))
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		fail(c, http.StatusBadRequest, "invalid export request: "+err.Error())
		return
	}

	doc := export.Render(*j.Result, req.Mappings, req.Filename)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.DownloadName))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc.Content))
}

func (s *Server) summarizeProject(c *gin.Context) {
	j, ok := s.Registry.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "project not found")
		return
	}
	if j.Status != job.StatusCompleted {
		fail(c, http.StatusBadRequest, fmt.Sprintf("project is %s, not completed", j.Status))
		return
	}

	var b strings.Builder
	for _, seg := range j.Result.Segments {
		name := seg.Speaker
		if info, ok := j.Result.Speakers[seg.Speaker]; ok {
			name = info.SuggestedName
		}
		fmt.Fprintf(&b, "%s %s: %s\n", seg.Timecode, name, seg.Text)
	}

	result, err := ai.SummarizeTranscript(c.Request.Context(), s.Cfg.OpenAIKey, b.String())
	if err != nil {
		log.Printf("[API] summary for %s: %v", j.ID, err)
		fail(c, http.StatusInternalServerError, "summary failed: "+err.Error())
		return
	}
	success(c, gin.H{"id": j.ID, "summary": result})
}
