package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lessonlint/lessonlint/internal/config"
	"github.com/lessonlint/lessonlint/internal/linkcheck"
	"github.com/lessonlint/lessonlint/internal/pipeline"
)

// Server is the HTTP API server for lessonlint.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	checker      *linkcheck.Checker
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, checker *linkcheck.Checker, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		checker:      checker,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/lint", s.handleLint)
		r.Post("/api/lint/batch", s.handleBatchLint)
		r.Get("/api/lint/{jobID}/status", s.handleLintStatus)
		r.Get("/api/lint/{jobID}/report", s.handleLintReport)

		r.Get("/api/reports", s.handleListReports)
		r.Get("/api/reports/{reportID}", s.handleGetReport)

		r.Get("/api/stats/linkcheck", s.handleLinkCheckStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
