package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"mediadl/internal/models"
	"mediadl/internal/storage"
)

func newJobTestServer(t *testing.T) (*echo.Echo, *storage.JobRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := storage.NewJobRepository(db)

	e := echo.New()
	h := NewJobHandler(repo)
	e.GET("/api/jobs", h.List)
	e.GET("/api/jobs/stats", h.Stats)
	e.GET("/api/jobs/:id", h.Get)
	return e, repo
}

func TestJobList(t *testing.T) {
	e, repo := newJobTestServer(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, &models.DownloadJob{SourceURL: "https://example.com"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status %d, body %s", rec.Code, rec.Body.String())
	}
	var jobs []models.DownloadJob
	if err := json.Unmarshal(rec.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Got %d jobs, want 2", len(jobs))
	}
}

func TestJobGet(t *testing.T) {
	e, repo := newJobTestServer(t)

	job := &models.DownloadJob{SourceURL: "https://example.com"}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/nonexistent", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status %d for a missing job, want 404", rec.Code)
	}
}

func TestJobStats(t *testing.T) {
	e, repo := newJobTestServer(t)
	ctx := context.Background()

	job := &models.DownloadJob{SourceURL: "https://example.com"}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Complete(ctx, job.ID, "/tmp/out.mp4"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/stats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status %d", rec.Code)
	}

	var counts map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if counts[models.JobStatusCompleted] != 1 {
		t.Errorf("completed = %d, want 1", counts[models.JobStatusCompleted])
	}
}
