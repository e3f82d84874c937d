package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okvee/bookpress/internal/config"
	"github.com/okvee/bookpress/internal/pipeline"
	"github.com/okvee/bookpress/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Port:           "0",
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		ChunkLines:     512,
		ChunkTimeout:   10 * time.Second,
		PageHeight:     36,
		LineWidth:      72,
		BreakOnTitle:   true,
		JobTTL:         time.Hour,
	}
}

// newTestServer wires a server against an on-disk test store. Workers
// are started so submitted jobs actually compile.
func newTestServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	hub := NewHub(log)
	go hub.Run()

	orch := pipeline.NewOrchestrator(cfg, st, hub, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, hub, log, cfg), orch
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/books", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCompileEndpoint_AcceptsUpload(t *testing.T) {
	s, orch := newTestServer(t)

	req := multipartUpload(t, "book.txt", []byte("第一章 开始\n这是正文。"), map[string]string{
		"book_id": "book-1",
	})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected job_id, got %v", body)
	}
	if body["book_id"] != "book-1" {
		t.Errorf("expected caller-chosen book id kept, got %v", body["book_id"])
	}

	// Poll until the worker finishes.
	deadline := time.Now().Add(5 * time.Second)
	for {
		job := orch.GetJob(jobID)
		if job == nil {
			t.Fatal("job disappeared")
		}
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusCompleted {
			if snap.TotalPages < 2 {
				t.Errorf("expected at least the synthetic pages, got %d", snap.TotalPages)
			}
			break
		}
		if snap.Status == pipeline.StatusFailed {
			t.Fatalf("job failed: %v", snap.Errors)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish: %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The compiled model is now retrievable.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/book-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for compiled book, got %d", rec.Code)
	}
}

func TestCompileEndpoint_RejectsUnsupportedType(t *testing.T) {
	s, _ := newTestServer(t)
	req := multipartUpload(t, "malware.exe", []byte("MZ"), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCompileEndpoint_RejectsOversizedFile(t *testing.T) {
	s, _ := newTestServer(t)
	big := bytes.Repeat([]byte("a"), int(testConfig().MaxUploadBytes)+1)
	req := multipartUpload(t, "big.txt", big, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/nope/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteBook_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/books/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListBooks_EmptyIsJSONArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Books []store.BookInfo `json:"books"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Books == nil || len(body.Books) != 0 {
		t.Errorf("expected empty array, got %v", body.Books)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"book.txt", "book.txt"},
		{"uploads/book.txt", "book.txt"},
		{"../../etc/passwd", "passwd"},
		{"", "unnamed"},
		{".", "unnamed"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
