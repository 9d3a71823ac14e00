// Package job defines the transcription job model and the in-memory registry
// that tracks every job from submission to reclamation.
package job

import "time"

// Status tracks a job through its processing stages.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusDownloading  Status = "downloading"
	StatusConverting   Status = "converting"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ValidTransition enforces the forward-only state machine edges. Error is
// reachable from every non-terminal state; stages may be skipped forward
// (uploads never download, some engines never convert) but never revisited.
func ValidTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusError {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusDownloading || to == StatusConverting || to == StatusTranscribing
	case StatusDownloading:
		return to == StatusConverting || to == StatusTranscribing
	case StatusConverting:
		return to == StatusTranscribing
	case StatusTranscribing:
		return to == StatusCompleted
	default:
		return false
	}
}

// Segment is one speaker turn with its absolute SMPTE timecode.
type Segment struct {
	Timecode string `json:"timecode"`
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
}

// SpeakerInfo describes one detected voice: how long it spoke and the
// best-effort name guessed from the source filename.
type SpeakerInfo struct {
	DurationSec   float64 `json:"duration_sec"`
	SuggestedName string  `json:"suggested_name"`
}

// ResultMeta carries the parsed filename metadata alongside the original name.
type ResultMeta struct {
	Speakers         []string `json:"speakers"`
	StartTC          string   `json:"start_tc"`
	OriginalFilename string   `json:"original_filename"`
}

// TranscriptResult is the final aggregated output of a completed job.
type TranscriptResult struct {
	Segments []Segment              `json:"segments"`
	Speakers map[string]SpeakerInfo `json:"speakers"`
	Meta     ResultMeta             `json:"meta"`
}

// Job is one end-to-end transcription request and its mutable state. Fields
// are mutated through the Registry only; callers receive snapshots.
type Job struct {
	ID               string            `json:"id"`
	Status           Status            `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	ProgressPercent  *int              `json:"progress_percent,omitempty"`
	OriginalFilename string            `json:"original_filename,omitempty"`
	Error            string            `json:"error,omitempty"`
	ErrorTrace       string            `json:"-"`
	Result           *TranscriptResult `json:"result,omitempty"`
	FrameRate        int               `json:"frame_rate"`
}
