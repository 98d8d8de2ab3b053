package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lessonlint/lessonlint/internal/storage/sqlite"
)

// handleListReports lists persisted report summaries, newest first.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.ReportStore()
	if store == nil {
		jsonError(w, "report history is not configured", http.StatusNotImplemented)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := store.ListReports(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list reports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []sqlite.Summary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reports": summaries})
}

// handleGetReport loads one persisted report by id.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.ReportStore()
	if store == nil {
		jsonError(w, "report history is not configured", http.StatusNotImplemented)
		return
	}

	reportID := chi.URLParam(r, "reportID")
	rpt, err := store.GetReport(r.Context(), reportID)
	if err != nil {
		jsonError(w, "failed to load report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rpt == nil {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rpt)
}

// handleLinkCheckStats reports link-check latency aggregates.
func (s *Server) handleLinkCheckStats(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		jsonError(w, "link checking is not enabled", http.StatusNotImplemented)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.checker.Stats().Snapshot())
}
