package job

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tvscribe/internal/timecode"
)

// ErrNotFound is returned for lookups and mutations of unknown job ids.
var ErrNotFound = errors.New("job not found")

// Registry is the concurrent-safe store of job records. Each job has a single
// writer (the worker running it) plus the sweeper, so every mutation is atomic
// per key and no cross-job invariants exist.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new queued job under the given id.
func (r *Registry) Create(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &Job{
		ID:        id,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		FrameRate: timecode.DefaultFrameRate,
	}
}

// Get returns a snapshot copy of a job so readers never share memory with the
// worker mutating it.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(j), true
}

// SetStatus advances the job along the state graph. Transitions that would
// move backwards or leave a terminal state are rejected. Progress is cleared
// whenever the job leaves Downloading.
func (r *Registry) SetStatus(id string, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !ValidTransition(j.Status, to) {
		return fmt.Errorf("invalid transition: %s -> %s", j.Status, to)
	}
	if j.Status == StatusDownloading {
		j.ProgressPercent = nil
	}
	j.Status = to
	return nil
}

// SetProgress records download progress. Meaningful only while Downloading.
func (r *Registry) SetProgress(id string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && j.Status == StatusDownloading {
		p := percent
		j.ProgressPercent = &p
	}
}

// SetOriginalFilename stores the source file name once known.
func (r *Registry) SetOriginalFilename(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.OriginalFilename = name
	}
}

// SetFrameRate stores the frame rate detected from the source media.
func (r *Registry) SetFrameRate(id string, fps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && fps > 0 {
		j.FrameRate = fps
	}
}

// Fail moves a job to the terminal Error state, recording the caller-visible
// message and an operator-side failure trace. Failing an already-terminal job
// is a no-op.
func (r *Registry) Fail(id, message, trace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	j.ProgressPercent = nil
	j.Status = StatusError
	j.Error = message
	j.ErrorTrace = trace
}

// Complete atomically stores the result and transitions to Completed. The
// result is set exactly once; a second call is rejected by the transition check.
func (r *Registry) Complete(id string, result *TranscriptResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !ValidTransition(j.Status, StatusCompleted) {
		return fmt.Errorf("invalid transition: %s -> %s", j.Status, StatusCompleted)
	}
	j.ProgressPercent = nil
	j.Status = StatusCompleted
	j.Result = result
	return nil
}

// Delete removes a job record. Safe to call for ids already removed.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Sweep removes terminal jobs older than ttl and reports how many were
// reclaimed. Non-terminal jobs are retained regardless of age.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[Registry] swept %d expired job(s)", removed)
	}
	return removed
}

func snapshot(j *Job) Job {
	out := *j
	if j.ProgressPercent != nil {
		p := *j.ProgressPercent
		out.ProgressPercent = &p
	}
	// Result is written once at completion and never mutated afterwards, so
	// sharing the pointer is safe.
	return out
}
