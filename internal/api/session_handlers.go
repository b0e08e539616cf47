package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casequest/coach-engine/internal/models"
	"github.com/casequest/coach-engine/internal/session"
)

// Session handlers — the six user actions plus registration/snapshot

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	o, err := s.sessions.Create()
	if err != nil {
		slog.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	snap := o.Snapshot()
	respondJSON(w, http.StatusCreated, models.CreateSessionResponse{
		Token:     snap.Token,
		Phase:     snap.Phase,
		CreatedAt: snap.CreatedAt,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := s.sessions.Delete(token); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to delete session", "error", err, "token", token)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleStartPractice(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	if err := o.StartPractice(); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleSelectScenario(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	var req models.SelectScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ScenarioID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "scenario_id is required")
		return
	}

	scenario := s.catalog.Get(req.ScenarioID)
	if scenario == nil {
		respondError(w, http.StatusNotFound, "scenario_not_found", "scenario not found")
		return
	}

	if err := o.SelectScenario(r.Context(), scenario); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := o.SendMessage(r.Context(), req.Text); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleRequestHint(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	if err := o.RequestHint(r.Context()); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	if err := o.Complete(r.Context()); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	if err := o.Exit(); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleGoHome(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	if err := o.GoHome(); err != nil {
		respondActionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.Snapshot())
}

// lookupSession resolves the token URL param, writing a 404 when the
// session does not exist.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) *session.Orchestrator {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session token is required")
		return nil
	}

	o, err := s.sessions.Get(token)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return nil
	}
	return o
}

// respondActionError maps orchestrator errors to HTTP statuses
func respondActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		respondError(w, http.StatusConflict, "busy", "a coaching response is already pending")
	case errors.Is(err, session.ErrWrongPhase):
		respondError(w, http.StatusConflict, "wrong_phase", "action not valid in current phase")
	case errors.Is(err, session.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "validation_error", "message text must not be empty")
	case errors.Is(err, session.ErrNoGatewaySession):
		respondError(w, http.StatusConflict, "no_coaching_session", "no coaching session established")
	default:
		slog.Error("session action failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "session action failed")
	}
}
