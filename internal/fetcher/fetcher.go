// Package fetcher moves media bytes from a resolved URL to a sink
// (a file or an outbound HTTP response) without buffering the whole
// payload in memory.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

// Origin servers reject bare requests, so media fetches carry the
// same browser-like headers as resolution.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Referer":         "https://www.tiktok.com/",
	"Accept-Language": "en-US,en;q=0.9",
}

// TransferError reports a failed byte transfer.
type TransferError struct {
	URL    string
	Status int   // non-zero when the upstream answered with a bad status
	Err    error // network or disk cause
}

func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transfer %s: upstream status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Fetcher performs byte transfers to disk or to an HTTP response.
type Fetcher struct {
	client  *http.Client
	baseDir string
}

// New creates a fetcher. baseDir is the fallback destination folder;
// empty selects the platform default.
func New(baseDir string) *Fetcher {
	if baseDir == "" {
		baseDir = DefaultDir()
	}
	return &Fetcher{
		// transfers are long-lived; they are bounded by ctx, not a
		// client-wide timeout
		client:  &http.Client{},
		baseDir: baseDir,
	}
}

func (f *Fetcher) get(ctx context.Context, mediaURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, &TransferError{URL: mediaURL, Err: err}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransferError{URL: mediaURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &TransferError{URL: mediaURL, Status: resp.StatusCode}
	}
	return resp, nil
}

// SaveToDir streams the media into dir under a collision-free name and
// returns the final path. A partial file is left behind on failure.
func (f *Fetcher) SaveToDir(ctx context.Context, mediaURL, dir, filename string) (string, error) {
	if dir == "" {
		dir = f.baseDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &TransferError{URL: mediaURL, Err: err}
	}

	resp, err := f.get(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	path := UniquePath(dir, SanitizeFilename(filename))
	file, err := os.Create(path)
	if err != nil {
		return "", &TransferError{URL: mediaURL, Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", &TransferError{URL: mediaURL, Err: err}
	}
	return path, nil
}

// Stream pipes the media into w as an mp4 attachment. The transfer
// counts as complete only when the outbound write finishes; an
// upstream read error surfaces as a TransferError, never as a silently
// truncated success.
func (f *Fetcher) Stream(ctx context.Context, mediaURL, filename string, w http.ResponseWriter) error {
	resp, err := f.get(ctx, mediaURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", SanitizeFilename(filename)))
	if resp.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &TransferError{URL: mediaURL, Err: err}
	}
	return nil
}
