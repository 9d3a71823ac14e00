// Package recognize abstracts the speech recognition engines behind a single
// capability and provides the two concrete variants: the SpeechKit cloud
// engine (diarization, per-word timestamps) and a local whisper batch engine.
package recognize

import (
	"context"
	"fmt"
	"log"

	"tvscribe/internal/config"
	"tvscribe/internal/fetcher"
	"tvscribe/internal/retry"
)

// Word is one recognized word with millisecond timestamps.
type Word struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// RawSegment is one recognition result in arrival order: the spoken text, the
// diarization channel it was attributed to, and its word timeline.
type RawSegment struct {
	Text       string
	ChannelTag string
	Words      []Word
}

// Engine is the recognition capability the job runner depends on.
type Engine interface {
	// Transcribe recognizes a local media file and returns segments in
	// arrival order.
	Transcribe(ctx context.Context, mediaPath string) ([]RawSegment, error)
	// AcceptsRawMedia reports whether the engine ingests source media
	// directly, making the transcode stage unnecessary.
	AcceptsRawMedia() bool
	Name() string
}

// ServiceError is a processing failure reported by a recognition engine. It is
// always fatal for the job and never retried automatically.
type ServiceError struct {
	Engine  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Engine, e.Message)
}

// NewEngine builds the engine selected by configuration.
func NewEngine(cfg *config.Config, f *fetcher.Fetcher, policy retry.Policy) (Engine, error) {
	switch cfg.Engine {
	case config.EngineSpeechKit:
		log.Printf("[Recognize] using SpeechKit cloud engine")
		return NewSpeechKitEngine(cfg.YandexAPIKey, policy), nil
	case config.EngineWhisper:
		log.Printf("[Recognize] using local whisper engine (%s)", cfg.WhisperBin)
		return NewWhisperEngine(cfg.WhisperBin, cfg.WhisperModelURL, cfg.WhisperModelChecksum, cfg.ModelsDir, f), nil
	default:
		return nil, fmt.Errorf("unsupported recognition engine: %s", cfg.Engine)
	}
}
