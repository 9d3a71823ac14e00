package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"tvscribe/internal/fetcher"
	"tvscribe/internal/meta"
)

// whisperChannelTag is the single fixed channel the local engine reports:
// it performs no diarization.
const whisperChannelTag = "0"

// WhisperEngine transcribes with a local whisper.cpp binary. Model weights
// are fetched once per process, checksum-verified, and shared by all jobs.
type WhisperEngine struct {
	bin           string
	modelURL      string
	modelChecksum string
	modelsDir     string
	fetch         *fetcher.Fetcher

	modelOnce sync.Once
	modelPath string
	modelErr  error
}

func NewWhisperEngine(bin, modelURL, modelChecksum, modelsDir string, f *fetcher.Fetcher) *WhisperEngine {
	return &WhisperEngine{
		bin:           bin,
		modelURL:      modelURL,
		modelChecksum: modelChecksum,
		modelsDir:     modelsDir,
		fetch:         f,
	}
}

func (e *WhisperEngine) Name() string { return "whisper" }

// AcceptsRawMedia is true: the binary decodes media containers itself, so the
// transcode stage is skipped entirely.
func (e *WhisperEngine) AcceptsRawMedia() bool { return true }

// ensureModel downloads the model weights at most once per process; concurrent
// jobs block on the same download and then share the cached file.
func (e *WhisperEngine) ensureModel(ctx context.Context) (string, error) {
	e.modelOnce.Do(func() {
		dest := filepath.Join(e.modelsDir, path.Base(e.modelURL))
		log.Printf("[Whisper] ensuring model weights at %s", dest)
		e.modelErr = e.fetch.Fetch(ctx, e.modelURL, dest, fetcher.Options{Checksum: e.modelChecksum})
		if e.modelErr == nil {
			e.modelPath = dest
		}
	})
	return e.modelPath, e.modelErr
}

func (e *WhisperEngine) Transcribe(ctx context.Context, mediaPath string) ([]RawSegment, error) {
	model, err := e.ensureModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing whisper model: %w", err)
	}

	outPrefix := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	cmd := exec.CommandContext(ctx, e.bin,
		"-m", model,
		"-f", mediaPath,
		"-oj",
		"-of", outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &ServiceError{Engine: e.Name(), Message: fmt.Sprintf("%v: %s", err, lastLines(string(out), 5))}
	}

	resultPath := outPrefix + ".json"
	raw, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, &ServiceError{Engine: e.Name(), Message: fmt.Sprintf("no JSON output at %s", resultPath)}
	}
	defer os.Remove(resultPath)

	segments, err := parseWhisperOutput(raw)
	if err != nil {
		return nil, &ServiceError{Engine: e.Name(), Message: err.Error()}
	}
	log.Printf("[Whisper] recognition finished: %d segment(s) from %s", len(segments), meta.StripExtension(filepath.Base(mediaPath)))
	return segments, nil
}

// --- JSON output ---

type whisperResult struct {
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Text  string          `json:"text"`
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
	Words []whisperWord   `json:"words"`
}

type whisperWord struct {
	Word  string           `json:"word"`
	Start *decimal.Decimal `json:"start"`
	End   *decimal.Decimal `json:"end"`
}

// parseWhisperOutput converts the binary's JSON (decimal seconds) into raw
// segments with millisecond word timestamps. Words without timestamps are
// dropped; segments left with no words are kept and discarded downstream.
func parseWhisperOutput(raw []byte) ([]RawSegment, error) {
	var parsed whisperResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing whisper output: %w", err)
	}

	thousand := decimal.NewFromInt(1000)
	segments := make([]RawSegment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		words := make([]Word, 0, len(s.Words))
		for _, w := range s.Words {
			if w.Start == nil || w.End == nil {
				continue
			}
			words = append(words, Word{
				Text:    strings.TrimSpace(w.Word),
				StartMs: w.Start.Mul(thousand).IntPart(),
				EndMs:   w.End.Mul(thousand).IntPart(),
			})
		}
		segments = append(segments, RawSegment{
			Text:       strings.TrimSpace(s.Text),
			ChannelTag: whisperChannelTag,
			Words:      words,
		})
	}
	return segments, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
