// Package validate rejects bad submissions before any job is created.
package validate

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// ValidationError marks a request that is refused synchronously, before a job
// id is handed to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// allowedURLHosts are the public file-host domains the service will download from.
var allowedURLHosts = map[string]struct{}{
	"yadi.sk":         {},
	"disk.yandex.ru":  {},
	"disk.yandex.com": {},
}

// allowedExtensions are the media container formats accepted for transcription.
var allowedExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".mov": {}, ".mxf": {}, ".mp4": {},
	".wmv": {}, ".avi": {}, ".mkv": {}, ".ogg": {}, ".flac": {},
}

// SourceURL checks that a remote link uses http(s) and points at an
// allow-listed file host.
func SourceURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Reason: "invalid URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Reason: "URL must use http or https"}
	}
	if _, ok := allowedURLHosts[parsed.Hostname()]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("URL must point at a supported file host (%s)", hostList())}
	}
	return nil
}

// FileExtension checks the filename against the allow-listed media formats.
func FileExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("unsupported file format, allowed: %s", extensionList())}
	}
	return nil
}

// FileSize rejects sources larger than the configured maximum.
func FileSize(size, max int64) error {
	if max > 0 && size > max {
		return &ValidationError{Reason: fmt.Sprintf(
			"file too large (%.1f GB), maximum is %.0f GB",
			float64(size)/(1<<30), float64(max)/(1<<30))}
	}
	return nil
}

func hostList() string {
	hosts := make([]string, 0, len(allowedURLHosts))
	for h := range allowedURLHosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return strings.Join(hosts, ", ")
}

func extensionList() string {
	exts := make([]string, 0, len(allowedExtensions))
	for e := range allowedExtensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
