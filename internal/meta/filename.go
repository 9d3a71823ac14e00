// Package meta extracts speaker candidates and a start timecode from source
// media filenames. Broadcast source files are commonly named after the people
// on tape plus shoot metadata, e.g. "Ivanova, Petrov, 05.11.2025_f8.mp3" or
// "15:40:41:00_clip.wav".
package meta

import (
	"regexp"
	"strings"
)

// Metadata holds what could be recovered from a source filename. Speakers keep
// their original order; StartTC defaults to zero when the name carries no
// timecode.
type Metadata struct {
	Speakers []string `json:"speakers"`
	StartTC  string   `json:"start_tc"`
}

var (
	timecodePattern  = regexp.MustCompile(`\d{2}:\d{2}:\d{2}:\d{2}`)
	datePattern      = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`)
	tokenSplit       = regexp.MustCompile(`[,_]+`)
	extensionPattern = regexp.MustCompile(`\.[^.]+$`)
)

// filenameStopWords are editorial shorthand and codec/container tokens that
// show up in newsroom filenames but are never speaker names.
var filenameStopWords = map[string]struct{}{
	"лайф": {}, "лайфы": {}, "интер": {}, "синхрон": {}, "снх": {}, "бз": {},
	"f8": {}, "wav": {}, "mp3": {}, "mp4": {}, "mov": {}, "wmv": {}, "mxf": {},
}

// ParseFilename extracts candidate speaker names and a start timecode from a
// source filename. The candidates are a best-effort, order-based hint for
// mapping detected voices, not a guaranteed identity match.
func ParseFilename(filename string) Metadata {
	md := Metadata{Speakers: []string{}, StartTC: "00:00:00:00"}

	if tc := timecodePattern.FindString(filename); tc != "" {
		md.StartTC = tc
		filename = strings.Replace(filename, tc, "", 1)
	}

	clean := StripExtension(filename)
	for _, part := range tokenSplit.Split(clean, -1) {
		word := strings.TrimSpace(part)
		if word == "" {
			continue
		}
		if _, stop := filenameStopWords[strings.ToLower(word)]; stop {
			continue
		}
		if datePattern.MatchString(word) {
			continue
		}
		md.Speakers = append(md.Speakers, word)
	}
	return md
}

// StripExtension removes the trailing file extension, if any.
func StripExtension(filename string) string {
	return extensionPattern.ReplaceAllString(filename, "")
}
