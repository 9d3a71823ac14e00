// Package resolver turns public file-host links into direct download URLs
// plus the declared file name and size.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIBase = "https://cloud-api.yandex.net/v1/disk/public/resources"

// ResolvedFile is what the file host declares about a public link before any
// byte is transferred.
type ResolvedFile struct {
	DownloadURL string
	Name        string
	Size        int64
}

// Resolver resolves a public share link into a direct download.
type Resolver interface {
	Resolve(ctx context.Context, publicURL string) (ResolvedFile, error)
}

// YandexDisk resolves Yandex.Disk public links through the cloud API.
type YandexDisk struct {
	Client  *http.Client
	APIBase string
}

func NewYandexDisk() *YandexDisk {
	return &YandexDisk{
		Client:  &http.Client{Timeout: 30 * time.Second},
		APIBase: defaultAPIBase,
	}
}

type diskDownloadResponse struct {
	Href string `json:"href"`
}

type diskMetaResponse struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Resolve fetches the direct download href and, best-effort, the declared
// name and size. A metadata failure is tolerated with a fallback name so a
// flaky metadata endpoint cannot kill the job before the download starts.
func (y *YandexDisk) Resolve(ctx context.Context, publicURL string) (ResolvedFile, error) {
	query := "?public_key=" + url.QueryEscape(publicURL)

	var download diskDownloadResponse
	if err := y.getJSON(ctx, y.APIBase+"/download"+query, &download); err != nil {
		return ResolvedFile{}, fmt.Errorf("resolving download link: %w", err)
	}
	if download.Href == "" {
		return ResolvedFile{}, fmt.Errorf("file host returned no download link")
	}

	resolved := ResolvedFile{DownloadURL: download.Href, Name: "video_source.mp4"}
	var meta diskMetaResponse
	if err := y.getJSON(ctx, y.APIBase+query, &meta); err != nil {
		log.Printf("[Resolver] could not fetch file metadata: %v", err)
	} else {
		if meta.Name != "" {
			resolved.Name = meta.Name
		}
		resolved.Size = meta.Size
	}
	return resolved, nil
}

func (y *YandexDisk) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := y.Client.Do(req)
	if err != nil {
		return fmt.Errorf("calling file host: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading file host response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file host returned status %d: %s", resp.StatusCode, previewBody(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing file host response: %w", err)
	}
	return nil
}

func previewBody(b []byte) string {
	s := string(b)
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
