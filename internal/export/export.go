// Package export renders completed transcripts into downloadable documents.
package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tvscribe/internal/job"
	"tvscribe/internal/meta"
)

// NameMapping overrides the display name and abbreviation for one detected
// speaker label.
type NameMapping struct {
	SpeakerLabel string `json:"speaker_label"`
	MappedName   string `json:"mapped_name"`
	Abbreviation string `json:"abbreviation"`
}

// Document is a rendered transcript ready to be sent or written to disk.
type Document struct {
	DownloadName string
	Content      string
}

// Render builds the markdown transcript document. Speakers without a mapping
// keep their suggested names; filename falls back to the job's original name.
func Render(result job.TranscriptResult, mappings []NameMapping, filename string) Document {
	names := make(map[string]string)
	abbrs := make(map[string]string)
	for label, info := range result.Speakers {
		names[label] = info.SuggestedName
		abbrs[label] = abbreviate(info.SuggestedName)
	}
	for _, m := range mappings {
		if m.MappedName != "" {
			names[m.SpeakerLabel] = m.MappedName
		}
		if m.Abbreviation != "" {
			abbrs[m.SpeakerLabel] = m.Abbreviation
		} else if m.MappedName != "" {
			abbrs[m.SpeakerLabel] = abbreviate(m.MappedName)
		}
	}

	if filename == "" {
		filename = result.Meta.OriginalFilename
	}
	if filename == "" {
		filename = "transcript"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SOURCE: %s\n\n", filename)

	labels := make([]string, 0, len(result.Speakers))
	for label := range result.Speakers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(&b, "%s (%s)\n", names[label], abbrs[label])
	}

	b.WriteString("\n" + strings.Repeat("— ", 20) + "\n\n")

	for _, seg := range result.Segments {
		name := names[seg.Speaker]
		if name == "" {
			name = seg.Speaker
		}
		fmt.Fprintf(&b, "%s %s: %s\n\n", seg.Timecode, name, seg.Text)
	}

	return Document{
		DownloadName: meta.StripExtension(filename) + ".md",
		Content:      b.String(),
	}
}

// AutoExport writes a completed transcript into outputDir using suggested
// names only. Used for uploaded files that finish without anyone watching.
// Source names repeat across jobs (and unresolved links all fall back to the
// same name), so an existing destination gets a short job-id suffix instead
// of being overwritten.
func AutoExport(result job.TranscriptResult, outputDir, jobID string) (string, error) {
	doc := Render(result, nil, "")
	dest := filepath.Join(outputDir, doc.DownloadName)
	if _, err := os.Stat(dest); err == nil {
		base := strings.TrimSuffix(doc.DownloadName, ".md")
		dest = filepath.Join(outputDir, base+"_"+shortID(jobID)+".md")
	}
	if err := os.WriteFile(dest, []byte(doc.Content), 0o644); err != nil {
		return "", fmt.Errorf("writing transcript document: %w", err)
	}
	log.Printf("[Export] wrote %s", dest)
	return dest, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// abbreviate takes the first three runes of the name, uppercased.
func abbreviate(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}
