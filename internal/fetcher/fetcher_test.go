package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveToDir(t *testing.T) {
	payload := []byte("fake mp4 bytes")

	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(dir)

	path, err := f.SaveToDir(context.Background(), srv.URL, dir, "tiktok_123.mp4")
	if err != nil {
		t.Fatalf("SaveToDir failed: %v", err)
	}
	if want := filepath.Join(dir, "tiktok_123.mp4"); path != want {
		t.Errorf("Saved to %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("Saved %q, want %q", data, payload)
	}

	if gotUA == "" || gotReferer != "https://www.tiktok.com/" {
		t.Errorf("Browser headers not sent: UA=%q Referer=%q", gotUA, gotReferer)
	}
}

func TestSaveToDirAvoidsCollision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiktok_123.mp4"), []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}

	f := New(dir)
	path, err := f.SaveToDir(context.Background(), srv.URL, dir, "tiktok_123.mp4")
	if err != nil {
		t.Fatalf("SaveToDir failed: %v", err)
	}
	if want := filepath.Join(dir, "tiktok_123 (1).mp4"); path != want {
		t.Errorf("Saved to %q, want %q", path, want)
	}

	old, _ := os.ReadFile(filepath.Join(dir, "tiktok_123.mp4"))
	if string(old) != "old" {
		t.Error("Existing file was overwritten")
	}
}

func TestSaveToDirBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := New(t.TempDir())
	_, err := f.SaveToDir(context.Background(), srv.URL, "", "clip.mp4")

	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransferError, got %v", err)
	}
	if terr.Status != http.StatusForbidden {
		t.Errorf("TransferError.Status = %d, want %d", terr.Status, http.StatusForbidden)
	}
}

func TestStream(t *testing.T) {
	payload := []byte("fake mp4 bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	f := New(t.TempDir())
	rec := httptest.NewRecorder()

	if err := f.Stream(context.Background(), srv.URL, "tiktok_123.mp4", rec); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="tiktok_123.mp4"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != string(payload) {
		t.Errorf("Streamed %q, want %q", rec.Body.String(), payload)
	}
}

func TestStreamBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(t.TempDir())
	rec := httptest.NewRecorder()

	err := f.Stream(context.Background(), srv.URL, "clip.mp4", rec)
	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransferError, got %v", err)
	}
	// Nothing was written, so the caller can still answer with JSON
	if rec.Body.Len() != 0 {
		t.Errorf("Body written despite upstream failure: %q", rec.Body.String())
	}
}
