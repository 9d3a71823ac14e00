package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tvscribe/internal/job"
)

func sampleResult() job.TranscriptResult {
	return job.TranscriptResult{
		Segments: []job.Segment{
			{Timecode: "10:00:00:00", Speaker: "1", Text: "Hello there."},
			{Timecode: "10:00:05:12", Speaker: "2", Text: "Hi."},
		},
		Speakers: map[string]job.SpeakerInfo{
			"1": {DurationSec: 40, SuggestedName: "Ivanova"},
			"2": {DurationSec: 10, SuggestedName: "Petrov"},
		},
		Meta: job.ResultMeta{OriginalFilename: "Ivanova, Petrov.mp4"},
	}
}

func TestRenderWithSuggestedNames(t *testing.T) {
	doc := Render(sampleResult(), nil, "")
	if doc.DownloadName != "Ivanova, Petrov.md" {
		t.Errorf("download name = %q", doc.DownloadName)
	}
	if !strings.HasPrefix(doc.Content, "SOURCE: Ivanova, Petrov.mp4\n") {
		t.Errorf("missing source header:\n%s", doc.Content)
	}
	for _, want := range []string{
		"Ivanova (IVA)",
		"Petrov (PET)",
		"10:00:00:00 Ivanova: Hello there.",
		"10:00:05:12 Petrov: Hi.",
		strings.Repeat("— ", 20),
	} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("document missing %q:\n%s", want, doc.Content)
		}
	}
}

func TestRenderWithOverrides(t *testing.T) {
	mappings := []NameMapping{
		{SpeakerLabel: "1", MappedName: "Anna Ivanova", Abbreviation: "AI"},
		{SpeakerLabel: "2", MappedName: "Boris Petrov"},
	}
	doc := Render(sampleResult(), mappings, "interview.mp4")
	if doc.DownloadName != "interview.md" {
		t.Errorf("download name = %q", doc.DownloadName)
	}
	for _, want := range []string{
		"Anna Ivanova (AI)",
		"Boris Petrov (BOR)",
		"10:00:00:00 Anna Ivanova: Hello there.",
	} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("document missing %q:\n%s", want, doc.Content)
		}
	}
	if strings.Contains(doc.Content, "Ivanova: Hello there.\n\n10:00:05:12 Petrov") {
		t.Error("override was not applied to segment lines")
	}
}

func TestAutoExport(t *testing.T) {
	dir := t.TempDir()
	dest, err := AutoExport(sampleResult(), dir, "aaaabbbb-cccc")
	if err != nil {
		t.Fatalf("AutoExport: %v", err)
	}
	if dest != filepath.Join(dir, "Ivanova, Petrov.md") {
		t.Errorf("dest = %q", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if !strings.Contains(string(data), "Ivanova: Hello there.") {
		t.Errorf("unexpected document body:\n%s", data)
	}
}

func TestAutoExportKeepsExistingDocument(t *testing.T) {
	dir := t.TempDir()

	first := sampleResult()
	first.Segments[0].Text = "first job"
	firstDest, err := AutoExport(first, dir, "11111111-aaaa")
	if err != nil {
		t.Fatalf("AutoExport: %v", err)
	}

	second := sampleResult()
	second.Segments[0].Text = "second job"
	secondDest, err := AutoExport(second, dir, "22222222-bbbb")
	if err != nil {
		t.Fatalf("AutoExport: %v", err)
	}

	if secondDest == firstDest {
		t.Fatalf("second export reused %q", firstDest)
	}
	if want := filepath.Join(dir, "Ivanova, Petrov_22222222.md"); secondDest != want {
		t.Errorf("second dest = %q, want %q", secondDest, want)
	}

	data, err := os.ReadFile(firstDest)
	if err != nil {
		t.Fatalf("reading first document: %v", err)
	}
	if !strings.Contains(string(data), "first job") {
		t.Errorf("first document was overwritten:\n%s", data)
	}
	data, err = os.ReadFile(secondDest)
	if err != nil {
		t.Fatalf("reading second document: %v", err)
	}
	if !strings.Contains(string(data), "second job") {
		t.Errorf("second document body:\n%s", data)
	}
}
