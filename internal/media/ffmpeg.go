// Package media shells out to ffmpeg/ffprobe for audio normalization and
// frame-rate detection.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"tvscribe/internal/timecode"
)

// Transcoder normalizes source media into the audio format the recognition
// engine requires. Synchronous; may fail.
type Transcoder interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// FFmpeg converts to mono 48 kHz Ogg/Opus, the container the cloud
// recognition engine ingests.
type FFmpeg struct{}

func (FFmpeg) Convert(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "48000",
		"-c:a", "libopus",
		outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(string(out), 400))
	}
	return nil
}

type ffprobeOutput struct {
	Streams []struct {
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// DetectFrameRate probes the first video stream for its frame rate. Audio-only
// sources and probe failures fall back to the broadcast default.
func DetectFrameRate(ctx context.Context, path string) int {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		log.Printf("[Media] ffprobe failed for %s: %v, using %d fps", path, err, timecode.DefaultFrameRate)
		return timecode.DefaultFrameRate
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil || len(probed.Streams) == 0 {
		return timecode.DefaultFrameRate
	}
	if fps := parseFrameRate(probed.Streams[0].RFrameRate); fps > 0 {
		log.Printf("[Media] detected %d fps for %s", fps, path)
		return fps
	}
	return timecode.DefaultFrameRate
}

// parseFrameRate turns an ffprobe rational like "30000/1001" into a rounded
// integer frame rate. Returns 0 when the value is unusable.
func parseFrameRate(rate string) int {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		den = "1"
		num = rate
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d == 0 {
		return 0
	}
	return int(float64(n)/float64(d) + 0.5)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
