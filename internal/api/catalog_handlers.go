package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Catalog handlers — read-only browsing of the scenario catalog

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.catalog.Categories()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"total":      len(categories),
	})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	difficulty := r.URL.Query().Get("difficulty")

	scenarios := s.catalog.Filter(category, difficulty)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": scenarios,
		"total":     len(scenarios),
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scenario := s.catalog.Get(id)
	if scenario == nil {
		respondError(w, http.StatusNotFound, "not_found", "scenario not found")
		return
	}
	respondJSON(w, http.StatusOK, scenario)
}
