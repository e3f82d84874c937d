package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okvee/bookpress/internal/config"
	"github.com/okvee/bookpress/internal/pipeline"
)

// Server is the HTTP API server for bookpress.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	hub          *Hub
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, hub *Hub, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		hub:          hub,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Post("/api/books", s.handleCompile)
	r.Get("/api/books", s.handleListBooks)
	r.Get("/api/books/{bookID}", s.handleGetBook)
	r.Delete("/api/books/{bookID}", s.handleDeleteBook)

	r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
	r.Get("/ws/progress", s.handleProgressWS)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
