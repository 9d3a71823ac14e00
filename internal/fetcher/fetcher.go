// Package fetcher downloads large artifacts (source media, model weights)
// with byte-range resume, checksum verification and a bounded retry budget.
package fetcher

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"

	"tvscribe/internal/retry"
)

const defaultChunkSize = 64 * 1024

// IntegrityError reports a whole-file checksum mismatch after a complete
// transfer. It is transient: the partial state is discarded and the download
// restarts from zero, counting against the retry budget.
type IntegrityError struct {
	Path string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: want %s, got %s", e.Path, e.Want, e.Got)
}

type statusError struct {
	URL  string
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d for %s", e.Code, e.URL)
}

// Options tunes a single fetch. Checksum is a hex blake3 digest of the whole
// file; when empty, verification is skipped (the file host publishes none for
// source media). Progress receives received/total byte counts; total is -1
// when the server declares no content length.
type Options struct {
	Checksum string
	Progress func(received, total int64)
}

// Fetcher performs resumable HTTP downloads.
type Fetcher struct {
	Client    *http.Client
	Policy    retry.Policy
	ChunkSize int
}

func New(policy retry.Policy) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: 10 * time.Minute},
		Policy:    policy,
		ChunkSize: defaultChunkSize,
	}
}

// Fetch produces a fully downloaded, verified file at dest or fails after
// exhausting the retry budget. An already-verified file at dest short-circuits
// the whole routine.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string, opts Options) error {
	if opts.Checksum != "" {
		if err := verifyFile(dest, opts.Checksum); err == nil {
			log.Printf("[Fetcher] %s already present and verified, skipping download", filepath.Base(dest))
			return nil
		}
	}

	retryable := func(err error) bool {
		var ie *IntegrityError
		if errors.As(err, &ie) {
			return true
		}
		var se *statusError
		if errors.As(err, &se) {
			return se.Code >= http.StatusInternalServerError || se.Code == http.StatusTooManyRequests
		}
		// everything else at this level is a network fault
		return true
	}

	return f.Policy.Do(ctx, "download "+filepath.Base(dest), retryable, func() error {
		return f.attempt(ctx, url, dest, opts)
	})
}

// attempt resumes from whatever is already on disk. On a network fault the
// partial file stays in place so the next attempt continues from its size.
func (f *Fetcher) attempt(ctx context.Context, url, dest string, opts Options) error {
	var offset int64
	if info, err := os.Stat(dest); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	case http.StatusOK:
		// server ignored the range request; the bytes on disk are useless
		if offset > 0 {
			log.Printf("[Fetcher] server does not support resume for %s, restarting from zero", filepath.Base(dest))
		}
		offset = 0
		flags |= os.O_TRUNC
	default:
		return &statusError{URL: url, Code: resp.StatusCode}
	}

	total := int64(-1)
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}

	out, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dest, err)
	}

	chunk := f.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	buf := make([]byte, chunk)
	received := offset
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return fmt.Errorf("writing %s: %w", dest, werr)
			}
			received += int64(n)
			if opts.Progress != nil {
				opts.Progress(received, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return fmt.Errorf("streaming %s: %w", url, readErr)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}

	if opts.Checksum != "" {
		if err := verifyFile(dest, opts.Checksum); err != nil {
			os.Remove(dest)
			return err
		}
	}
	return nil
}

// verifyFile compares the blake3 digest of the file at path against want.
func verifyFile(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return &IntegrityError{Path: path, Want: want, Got: got}
	}
	return nil
}

// Checksum returns the hex blake3 digest of an on-disk file.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
