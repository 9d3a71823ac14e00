package aggregate

import (
	"strings"
	"testing"

	"tvscribe/internal/meta"
	"tvscribe/internal/recognize"
)

func seg(channel, text string, startMs, endMs int64) recognize.RawSegment {
	return recognize.RawSegment{
		Text:       text,
		ChannelTag: channel,
		Words: []recognize.Word{
			{Text: strings.Fields(text)[0], StartMs: startMs, EndMs: startMs + 100},
			{Text: "...", StartMs: endMs - 100, EndMs: endMs},
		},
	}
}

// TestNamesByDurationRank: with 40s and 10s of speech and candidates
// [Alice Bob], the longer channel becomes Alice and the shorter Bob.
func TestNamesByDurationRank(t *testing.T) {
	raw := []recognize.RawSegment{
		seg("2", "short remark", 0, 10_000),
		seg("1", "long monologue", 10_000, 50_000),
	}
	md := meta.Metadata{Speakers: []string{"Alice", "Bob"}, StartTC: "00:00:00:00"}

	res := Build(raw, md, "Alice, Bob.mp4", 25)

	if got := res.Speakers["1"].SuggestedName; got != "Alice" {
		t.Errorf("dominant channel name = %q, want Alice", got)
	}
	if got := res.Speakers["2"].SuggestedName; got != "Bob" {
		t.Errorf("secondary channel name = %q, want Bob", got)
	}
	if got := res.Speakers["1"].DurationSec; got != 40.0 {
		t.Errorf("dominant duration = %v, want 40.0", got)
	}
	if got := res.Speakers["2"].DurationSec; got != 10.0 {
		t.Errorf("secondary duration = %v, want 10.0", got)
	}
}

func TestPlaceholderPastCandidateList(t *testing.T) {
	raw := []recognize.RawSegment{
		seg("1", "first voice", 0, 30_000),
		seg("2", "second voice", 0, 20_000),
		seg("3", "third voice", 0, 10_000),
	}
	md := meta.Metadata{Speakers: []string{"Alice"}, StartTC: "00:00:00:00"}

	res := Build(raw, md, "Alice.mp4", 25)
	if got := res.Speakers["1"].SuggestedName; got != "Alice" {
		t.Errorf("first ranked = %q, want Alice", got)
	}
	for _, id := range []string{"2", "3"} {
		want := "Speaker " + id
		if got := res.Speakers[id].SuggestedName; got != want {
			t.Errorf("channel %s name = %q, want %q", id, got, want)
		}
	}
}

func TestDurationTieBrokenByChannelID(t *testing.T) {
	raw := []recognize.RawSegment{
		seg("2", "same length", 0, 10_000),
		seg("1", "same length", 20_000, 30_000),
	}
	md := meta.Metadata{Speakers: []string{"Alice", "Bob"}, StartTC: "00:00:00:00"}

	res := Build(raw, md, "x.mp4", 25)
	if res.Speakers["1"].SuggestedName != "Alice" || res.Speakers["2"].SuggestedName != "Bob" {
		t.Fatalf("tie not broken by ascending channel id: %+v", res.Speakers)
	}
}

func TestDiscardsSegmentsWithoutWords(t *testing.T) {
	raw := []recognize.RawSegment{
		{Text: "untimed", ChannelTag: "1"},
		seg("1", "timed speech", 0, 5_000),
	}
	res := Build(raw, meta.Metadata{StartTC: "00:00:00:00"}, "x.mp4", 25)
	if len(res.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(res.Segments))
	}
	if res.Segments[0].Text != "timed speech" {
		t.Fatalf("kept segment = %q", res.Segments[0].Text)
	}
}

func TestAbsoluteTimecodePlacement(t *testing.T) {
	raw := []recognize.RawSegment{
		seg("1", "opening words", 2_000, 4_000), // starts at 2s
	}
	md := meta.Metadata{Speakers: []string{"Анна"}, StartTC: "10:00:00:00"}

	res := Build(raw, md, "Анна_10:00:00:00.mov", 25)
	if got := res.Segments[0].Timecode; got != "10:00:02:00" {
		t.Fatalf("timecode = %q, want 10:00:02:00", got)
	}
}

func TestPreservesInputOrder(t *testing.T) {
	raw := []recognize.RawSegment{
		seg("1", "third by clock", 30_000, 31_000),
		seg("2", "first by clock", 1_000, 2_000),
	}
	res := Build(raw, meta.Metadata{StartTC: "00:00:00:00"}, "x.mp4", 25)
	if res.Segments[0].Text != "third by clock" {
		t.Fatal("aggregator re-sorted segments; input order must be preserved")
	}
}

func TestMetaCarriedThrough(t *testing.T) {
	md := meta.Metadata{Speakers: []string{"Ivanova", "Petrov"}, StartTC: "01:00:00:00"}
	res := Build(nil, md, "Ivanova, Petrov.mp3", 25)
	if res.Meta.OriginalFilename != "Ivanova, Petrov.mp3" {
		t.Errorf("original filename = %q", res.Meta.OriginalFilename)
	}
	if res.Meta.StartTC != "01:00:00:00" {
		t.Errorf("start_tc = %q", res.Meta.StartTC)
	}
	if len(res.Meta.Speakers) != 2 {
		t.Errorf("meta speakers = %v", res.Meta.Speakers)
	}
}
