package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"tvscribe/internal/retry"
)

const (
	defaultRecognizeURL = "https://transcribe.api.cloud.yandex.net/speech/stt/v2/longRunningRecognize"
	defaultOperationURL = "https://operation.api.cloud.yandex.net/operations"
	defaultPollInterval = 3 * time.Second
)

// SpeechKitEngine runs long-running recognition against the SpeechKit REST
// API with speaker diarization and per-word timestamps.
type SpeechKitEngine struct {
	apiKey       string
	client       *http.Client
	policy       retry.Policy
	recognizeURL string
	operationURL string
	pollInterval time.Duration
}

func NewSpeechKitEngine(apiKey string, policy retry.Policy) *SpeechKitEngine {
	return &SpeechKitEngine{
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 90 * time.Second},
		policy:       policy,
		recognizeURL: defaultRecognizeURL,
		operationURL: defaultOperationURL,
		pollInterval: defaultPollInterval,
	}
}

func (e *SpeechKitEngine) Name() string { return "speechkit" }

// AcceptsRawMedia is false: SpeechKit requires mono Ogg/Opus input.
func (e *SpeechKitEngine) AcceptsRawMedia() bool { return false }

// --- wire types ---

type skRecognizeRequest struct {
	Config skConfig `json:"config"`
	Audio  skAudio  `json:"audio"`
}

type skConfig struct {
	Specification skSpecification `json:"specification"`
}

type skSpecification struct {
	LanguageCode    string `json:"languageCode"`
	LiteratureText  bool   `json:"literature_text"`
	ProfanityFilter bool   `json:"profanityFilter"`
	AudioEncoding   string `json:"audioEncoding"`
}

type skAudio struct {
	Content string `json:"content"`
}

type skOperation struct {
	ID       string       `json:"id"`
	Done     bool         `json:"done"`
	Error    *skError     `json:"error,omitempty"`
	Response *skRecogResp `json:"response,omitempty"`
}

type skError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type skRecogResp struct {
	Chunks []skChunk `json:"chunks"`
}

type skChunk struct {
	ChannelTag   string          `json:"channelTag"`
	Alternatives []skAlternative `json:"alternatives"`
}

type skAlternative struct {
	Text  string   `json:"text"`
	Words []skWord `json:"words"`
}

type skWord struct {
	Word      string `json:"word"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Transcribe submits the audio for long-running recognition and polls the
// operation until it completes or ctx expires. Transport faults on submission
// are retried by the shared policy; a failure reported by the service itself
// is fatal.
func (e *SpeechKitEngine) Transcribe(ctx context.Context, audioPath string) ([]RawSegment, error) {
	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	if len(audioBytes) < 1000 {
		return nil, &ServiceError{Engine: e.Name(), Message: fmt.Sprintf("audio file too small (%d bytes), may be empty or corrupted", len(audioBytes))}
	}

	reqBody := skRecognizeRequest{
		Config: skConfig{
			Specification: skSpecification{
				LanguageCode:    "ru-RU",
				LiteratureText:  true,
				ProfanityFilter: false,
				AudioEncoding:   "OGG_OPUS",
			},
		},
		Audio: skAudio{Content: base64.StdEncoding.EncodeToString(audioBytes)},
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling recognition request: %w", err)
	}

	var operationID string
	retryable := func(err error) bool {
		var se *ServiceError
		return !errors.As(err, &se)
	}
	err = e.policy.Do(ctx, "speechkit recognize", retryable, func() error {
		id, err := e.submit(ctx, reqJSON)
		if err != nil {
			return err
		}
		operationID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SpeechKit] recognition operation started: %s", operationID)
	return e.poll(ctx, operationID)
}

func (e *SpeechKitEngine) submit(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.recognizeURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling speechkit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading speechkit response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("speechkit returned status %d: %s", resp.StatusCode, preview(raw))
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{Engine: e.Name(), Message: fmt.Sprintf("recognition rejected with status %d: %s", resp.StatusCode, preview(raw))}
	}

	var op skOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return "", &ServiceError{Engine: e.Name(), Message: fmt.Sprintf("unparseable recognition response: %s", preview(raw))}
	}
	if op.ID == "" {
		return "", &ServiceError{Engine: e.Name(), Message: "no operation id in recognition response"}
	}
	return op.ID, nil
}

func (e *SpeechKitEngine) poll(ctx context.Context, operationID string) ([]RawSegment, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("recognition timed out: %w", ctx.Err())
		case <-time.After(e.pollInterval):
		}

		op, err := e.pollOnce(ctx, operationID)
		if err != nil {
			// transient transport faults keep the poll loop alive; ctx
			// bounds the overall wait
			log.Printf("[SpeechKit] operation poll failed: %v", err)
			continue
		}
		if !op.Done {
			continue
		}
		if op.Error != nil {
			return nil, &ServiceError{Engine: e.Name(), Message: op.Error.Message}
		}
		if op.Response == nil {
			return nil, &ServiceError{Engine: e.Name(), Message: "operation finished without a recognition response"}
		}
		segments := chunksToSegments(op.Response.Chunks)
		log.Printf("[SpeechKit] recognition finished: %d segment(s)", len(segments))
		return segments, nil
	}
}

func (e *SpeechKitEngine) pollOnce(ctx context.Context, operationID string) (*skOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.operationURL+"/"+operationID, nil)
	if err != nil {
		return nil, fmt.Errorf("building poll request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling operation: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading operation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("operation endpoint returned status %d: %s", resp.StatusCode, preview(raw))
	}

	var op skOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, fmt.Errorf("parsing operation response: %w", err)
	}
	return &op, nil
}

func chunksToSegments(chunks []skChunk) []RawSegment {
	segments := make([]RawSegment, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Alternatives) == 0 {
			continue
		}
		alt := chunk.Alternatives[0]
		channel := chunk.ChannelTag
		if channel == "" {
			channel = "1"
		}
		words := make([]Word, 0, len(alt.Words))
		for _, w := range alt.Words {
			words = append(words, Word{
				Text:    w.Word,
				StartMs: parseSeconds(w.StartTime),
				EndMs:   parseSeconds(w.EndTime),
			})
		}
		segments = append(segments, RawSegment{
			Text:       alt.Text,
			ChannelTag: channel,
			Words:      words,
		})
	}
	return segments
}

// parseSeconds converts a SpeechKit duration string like "12.5s" to
// milliseconds. Unparseable values yield 0.
func parseSeconds(s string) int64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "s")
	if s == "" {
		return 0
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(sec*1000 + 0.5)
}

func preview(b []byte) string {
	s := string(b)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
