package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFrameRate is used when the source media carries no detectable frame rate.
const DefaultFrameRate = 25

// FramesToTimecode converts a frame count into an SMPTE HH:MM:SS:FF timecode
// at the given frame rate.
func FramesToTimecode(frames, fps int) string {
	if fps < 1 {
		fps = 1
	}
	if frames < 0 {
		frames = 0
	}

	h := frames / (fps * 3600)
	rem := frames % (fps * 3600)
	m := rem / (fps * 60)
	rem = rem % (fps * 60)
	s := rem / fps
	f := rem % fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", h, m, s, f)
}

// TimecodeToFrames converts an SMPTE HH:MM:SS:FF timecode into a frame count.
// Malformed input returns 0: source filenames routinely contain partial or
// garbled timecodes and those must not abort processing.
func TimecodeToFrames(tc string, fps int) int {
	if fps < 1 {
		fps = 1
	}

	parts := strings.Split(tc, ":")
	if len(parts) < 4 {
		return 0
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}
	return (nums[0]*3600+nums[1]*60+nums[2])*fps + nums[3]
}
