package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okvee/bookpress/internal/paginate"
	"github.com/okvee/bookpress/internal/pipeline"
	"github.com/okvee/bookpress/internal/source"
	"github.com/okvee/bookpress/internal/store"
)

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	bookID := r.FormValue("book_id")
	if bookID == "" {
		bookID = uuid.NewString()
	}

	breakOnTitle := s.cfg.BreakOnTitle
	if v := r.FormValue("break_on_title"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			breakOnTitle = b
		}
	}

	metrics := paginate.DefaultMetrics()
	metrics.PageHeight = s.cfg.PageHeight
	metrics.LineWidth = s.cfg.LineWidth
	if v := r.FormValue("page_height"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			metrics.PageHeight = f
		}
	}
	if v := r.FormValue("line_width"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			metrics.LineWidth = n
		}
	}

	// Optional re-detection skips on retry.
	hintEncoding := r.FormValue("hint_encoding")
	var hintEastern *bool
	if v := r.FormValue("hint_eastern"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			hintEastern = &b
		}
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		BookID:    bookID,
		Filename:  filename,
		Status:    pipeline.StatusQueued,
		Stage:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetInput(data, breakOnTitle, metrics, hintEncoding, hintEastern)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"book_id":  job.BookID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	doc, err := s.orchestrator.Store().GetDocument(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.orchestrator.Store().ListBooks(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []store.BookInfo{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"books": books})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if err := s.orchestrator.Store().DeleteBook(r.Context(), bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
