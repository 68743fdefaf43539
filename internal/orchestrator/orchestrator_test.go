package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"mediadl/internal/fetcher"
	"mediadl/internal/limiter"
	"mediadl/internal/resolver"
)

// pipelineFixture wires a full pipeline against two test servers: one
// playing the resolver API, one playing the media CDN.
type pipelineFixture struct {
	orch      *Orchestrator
	pageURL   string
	mediaHits *int32
}

func newPipeline(t *testing.T, videoID string, mediaStatus func() int) *pipelineFixture {
	t.Helper()

	var mediaHits int32
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mediaHits, 1)
		status := http.StatusOK
		if mediaStatus != nil {
			status = mediaStatus()
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte("fake mp4 bytes"))
	}))
	t.Cleanup(media.Close)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code": 0, "data": {"id": %q, "title": "clip", "play": %q}}`,
			videoID, media.URL+"/play.mp4")
	}))
	t.Cleanup(api.Close)

	res := resolver.New(&resolver.Options{APIBase: api.URL})
	sched := limiter.New(0, 1)
	t.Cleanup(sched.Stop)

	return &pipelineFixture{
		orch:      New(res, fetcher.New(t.TempDir()), sched, nil),
		pageURL:   "https://www.tiktok.com/@user/video/" + videoID,
		mediaHits: &mediaHits,
	}
}

func TestDownload(t *testing.T) {
	p := newPipeline(t, "7299", nil)

	result, err := p.orch.Download(context.Background(), DownloadRequest{URL: p.pageURL})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if result.Descriptor.ID != "7299" {
		t.Errorf("Descriptor.ID = %q, want 7299", result.Descriptor.ID)
	}
	if result.Path == "" {
		t.Error("Result has no output path")
	}
	if got := p.orch.Guard().Last(); got != "7299" {
		t.Errorf("Guard remembers %q, want 7299", got)
	}
}

// TestDownloadDuplicateRejected verifies that an immediate repeat is
// rejected before any media bytes move.
func TestDownloadDuplicateRejected(t *testing.T) {
	p := newPipeline(t, "7299", nil)
	ctx := context.Background()

	if _, err := p.orch.Download(ctx, DownloadRequest{URL: p.pageURL}); err != nil {
		t.Fatalf("First download failed: %v", err)
	}
	hitsAfterFirst := atomic.LoadInt32(p.mediaHits)

	_, err := p.orch.Download(ctx, DownloadRequest{URL: p.pageURL})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateError, got %v", err)
	}
	if got := atomic.LoadInt32(p.mediaHits); got != hitsAfterFirst {
		t.Errorf("Media fetched %d times during a rejected request, want 0", got-hitsAfterFirst)
	}
}

// TestDownloadRetryAfterFailure verifies that a failed transfer leaves
// the guard unchanged so the same media can be retried immediately.
func TestDownloadRetryAfterFailure(t *testing.T) {
	var failFirst int32 = 1
	p := newPipeline(t, "7299", func() int {
		if atomic.CompareAndSwapInt32(&failFirst, 1, 0) {
			return http.StatusForbidden
		}
		return http.StatusOK
	})
	ctx := context.Background()

	_, err := p.orch.Download(ctx, DownloadRequest{URL: p.pageURL})
	var terr *fetcher.TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransferError, got %v", err)
	}
	if got := p.orch.Guard().Last(); got != "" {
		t.Errorf("Guard remembers %q after a failed transfer, want empty", got)
	}

	if _, err := p.orch.Download(ctx, DownloadRequest{URL: p.pageURL}); err != nil {
		t.Fatalf("Retry after a failed transfer was rejected: %v", err)
	}
}

func TestInfoDoesNotTransfer(t *testing.T) {
	p := newPipeline(t, "7299", nil)

	desc, err := p.orch.Info(context.Background(), p.pageURL)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if desc.ID != "7299" {
		t.Errorf("Descriptor.ID = %q, want 7299", desc.ID)
	}
	if got := atomic.LoadInt32(p.mediaHits); got != 0 {
		t.Errorf("Info fetched media %d times, want 0", got)
	}
	// Info alone never arms the duplicate guard
	if got := p.orch.Guard().Last(); got != "" {
		t.Errorf("Guard remembers %q after Info, want empty", got)
	}
}

func TestStreamTo(t *testing.T) {
	p := newPipeline(t, "7299", nil)
	ctx := context.Background()

	job, err := p.orch.Prepare(ctx, DownloadRequest{URL: p.pageURL})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := job.StreamTo(ctx, rec); err != nil {
		t.Fatalf("StreamTo failed: %v", err)
	}
	if rec.Body.String() != "fake mp4 bytes" {
		t.Errorf("Streamed %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="tiktok_7299.mp4"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := p.orch.Guard().Last(); got != "7299" {
		t.Errorf("Guard remembers %q after a streamed download, want 7299", got)
	}
}

func TestPrepareSelectsQuality(t *testing.T) {
	var mediaHits int32
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mediaHits, 1)
		w.Write([]byte("bytes"))
	}))
	t.Cleanup(media.Close)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code": 0, "data": {"id": "1", "play": %q, "hdplay": %q}}`,
			media.URL+"/sd.mp4", media.URL+"/hd.mp4")
	}))
	t.Cleanup(api.Close)

	res := resolver.New(&resolver.Options{APIBase: api.URL})
	sched := limiter.New(0, 1)
	t.Cleanup(sched.Stop)
	orch := New(res, fetcher.New(t.TempDir()), sched, nil)

	ctx := context.Background()
	url := "https://www.tiktok.com/@user/video/1"

	job, err := orch.Prepare(ctx, DownloadRequest{URL: url, QualityIndex: 1})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if job.Quality.ID != "sd" {
		t.Errorf("QualityIndex 1 selected %q, want sd", job.Quality.ID)
	}

	// QualityID wins over QualityIndex
	job, err = orch.Prepare(ctx, DownloadRequest{URL: url, QualityIndex: 1, QualityID: "hd"})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if job.Quality.ID != "hd" {
		t.Errorf("QualityID hd selected %q", job.Quality.ID)
	}
}
