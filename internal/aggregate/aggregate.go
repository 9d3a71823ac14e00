// Package aggregate turns raw recognition segments into the final ordered,
// speaker-named, SMPTE-timecoded transcript.
package aggregate

import (
	"fmt"
	"log"
	"math"
	"sort"

	"tvscribe/internal/job"
	"tvscribe/internal/meta"
	"tvscribe/internal/recognize"
	"tvscribe/internal/timecode"
)

// Build places each raw segment on the absolute timecode axis, accumulates
// per-channel speaking time, and guesses speaker names from the filename
// candidates by duration rank. Input order is preserved: recognition arrival
// order is chronological for a single-pass stream and is not re-sorted here.
func Build(raw []recognize.RawSegment, md meta.Metadata, originalFilename string, fps int) job.TranscriptResult {
	if fps < 1 {
		fps = timecode.DefaultFrameRate
	}
	startFrames := timecode.TimecodeToFrames(md.StartTC, fps)

	durations := map[string]float64{}
	segments := make([]job.Segment, 0, len(raw))
	for _, seg := range raw {
		// a word timestamp is mandatory to place the segment in time
		if len(seg.Words) == 0 {
			continue
		}
		startS := float64(seg.Words[0].StartMs) / 1000.0
		endS := float64(seg.Words[len(seg.Words)-1].EndMs) / 1000.0
		durations[seg.ChannelTag] += endS - startS

		absFrames := startFrames + int(startS*float64(fps))
		segments = append(segments, job.Segment{
			Timecode: timecode.FramesToTimecode(absFrames, fps),
			Speaker:  seg.ChannelTag,
			Text:     seg.Text,
		})
	}

	speakers := nameByDurationRank(durations, md.Speakers)

	return job.TranscriptResult{
		Segments: segments,
		Speakers: speakers,
		Meta: job.ResultMeta{
			Speakers:         md.Speakers,
			StartTC:          md.StartTC,
			OriginalFilename: originalFilename,
		},
	}
}

// nameByDurationRank assigns the i-th filename-derived candidate to the i-th
// channel by descending speaking time (ties broken by channel id for
// determinism). Channels beyond the candidate list get a placeholder name.
// The mapping is a best-effort guess; the operator relabels downstream.
func nameByDurationRank(durations map[string]float64, candidates []string) map[string]job.SpeakerInfo {
	type voice struct {
		id  string
		dur float64
	}
	voices := make([]voice, 0, len(durations))
	for id, dur := range durations {
		voices = append(voices, voice{id: id, dur: dur})
	}
	sort.Slice(voices, func(i, j int) bool {
		if voices[i].dur != voices[j].dur {
			return voices[i].dur > voices[j].dur
		}
		return voices[i].id < voices[j].id
	})

	if len(voices) != len(candidates) && len(candidates) > 0 {
		log.Printf("[Aggregate] detected %d voice(s) but filename suggests %d name(s); placeholder names used past the list",
			len(voices), len(candidates))
	}

	speakers := make(map[string]job.SpeakerInfo, len(voices))
	for i, v := range voices {
		name := fmt.Sprintf("Speaker %s", v.id)
		if i < len(candidates) {
			name = candidates[i]
		}
		speakers[v.id] = job.SpeakerInfo{
			DurationSec:   math.Round(v.dur*10) / 10,
			SuggestedName: name,
		}
	}
	return speakers
}
