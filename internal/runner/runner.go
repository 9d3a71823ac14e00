// Package runner drives one job through the transcription pipeline:
// resolve, download, convert, transcribe, aggregate.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"

	"tvscribe/internal/aggregate"
	"tvscribe/internal/config"
	"tvscribe/internal/export"
	"tvscribe/internal/fetcher"
	"tvscribe/internal/job"
	"tvscribe/internal/media"
	"tvscribe/internal/meta"
	"tvscribe/internal/recognize"
	"tvscribe/internal/resolver"
	"tvscribe/internal/validate"
)

// Source describes where a job's media comes from. Exactly one of URL and
// UploadPath is set.
type Source struct {
	URL        string
	UploadPath string
	Filename   string
}

type Runner struct {
	Registry   *job.Registry
	Resolver   resolver.Resolver
	Fetcher    *fetcher.Fetcher
	Transcoder media.Transcoder
	Engine     recognize.Engine
	Cfg        *config.Config
}

// Run executes the full pipeline for one job. Any failure marks the job as
// errored with a stage-labeled trace; temp artifacts are removed exactly once
// no matter where the pipeline stops.
func (r *Runner) Run(ctx context.Context, id string, src Source) {
	// a panicking stage must still leave the job terminal, or it would sit in
	// a non-terminal status forever and never be swept
	defer func() {
		if p := recover(); p != nil {
			r.fail(id, "panic", fmt.Errorf("unexpected fault: %v", p))
		}
	}()

	// opportunistic retention sweep so expired jobs never need a timer
	r.Registry.Sweep(r.Cfg.JobTTL)

	sourcePath := filepath.Join(r.Cfg.TempDir, id+"_source")
	opusPath := filepath.Join(r.Cfg.TempDir, id+".opus")
	defer func() {
		for _, p := range []string{sourcePath, opusPath, src.UploadPath} {
			if p == "" {
				continue
			}
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Printf("[Runner] %s: cleanup %s: %v", id, p, err)
			}
		}
	}()

	filename := src.Filename
	mediaPath := src.UploadPath

	if src.URL != "" {
		resolved, err := r.Resolver.Resolve(ctx, src.URL)
		if err != nil {
			r.fail(id, "resolve", err)
			return
		}
		filename = resolved.Name
		r.Registry.SetOriginalFilename(id, filename)
		if err := validate.FileExtension(filename); err != nil {
			r.fail(id, "resolve", err)
			return
		}
		if err := validate.FileSize(resolved.Size, r.Cfg.MaxFileSizeBytes); err != nil {
			r.fail(id, "resolve", err)
			return
		}

		if err := r.Registry.SetStatus(id, job.StatusDownloading); err != nil {
			r.fail(id, "download", err)
			return
		}
		log.Printf("[Runner] %s: downloading %s", id, filename)
		opts := fetcher.Options{
			Progress: func(received, total int64) {
				if total > 0 {
					r.Registry.SetProgress(id, int(received*100/total))
				}
			},
		}
		if err := r.Fetcher.Fetch(ctx, resolved.DownloadURL, sourcePath, opts); err != nil {
			r.fail(id, "download", err)
			return
		}
		mediaPath = sourcePath
	}

	r.Registry.SetFrameRate(id, media.DetectFrameRate(ctx, mediaPath))

	audioPath := mediaPath
	if !r.Engine.AcceptsRawMedia() {
		if err := r.Registry.SetStatus(id, job.StatusConverting); err != nil {
			r.fail(id, "convert", err)
			return
		}
		log.Printf("[Runner] %s: converting to opus", id)
		if err := r.Transcoder.Convert(ctx, mediaPath, opusPath); err != nil {
			r.fail(id, "convert", err)
			return
		}
		audioPath = opusPath
	}

	if err := r.Registry.SetStatus(id, job.StatusTranscribing); err != nil {
		r.fail(id, "transcribe", err)
		return
	}
	log.Printf("[Runner] %s: transcribing with %s", id, r.Engine.Name())
	recCtx, cancel := context.WithTimeout(ctx, r.Cfg.RecognitionTimeout)
	defer cancel()
	segments, err := r.Engine.Transcribe(recCtx, audioPath)
	if err != nil {
		r.fail(id, "transcribe", err)
		return
	}

	current, ok := r.Registry.Get(id)
	if !ok {
		log.Printf("[Runner] %s: job vanished before finalize", id)
		return
	}
	result := aggregate.Build(segments, meta.ParseFilename(filename), filename, current.FrameRate)
	if err := r.Registry.Complete(id, &result); err != nil {
		log.Printf("[Runner] %s: finalize: %v", id, err)
		return
	}
	log.Printf("[Runner] %s: completed, %d segment(s)", id, len(result.Segments))

	if src.UploadPath != "" {
		if _, err := export.AutoExport(result, r.Cfg.OutputDir, id); err != nil {
			log.Printf("[Runner] %s: auto-export: %v", id, err)
		}
	}
}

func (r *Runner) fail(id, stage string, err error) {
	log.Printf("[Runner] %s: %s failed: %v", id, stage, err)
	r.Registry.Fail(id, err.Error(), fmt.Sprintf("stage=%s: %v\n%s", stage, err, debug.Stack()))
}
