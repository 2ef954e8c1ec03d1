package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"memento/internal/apperr"
	"memento/internal/config"
	"memento/internal/httpapi/middleware"
)

type createWorkspaceRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, errNoHandle)
		return
	}
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}

	plan := config.PlanByName(user.Plan)
	count, err := s.control.CountWorkspaces(r.Context(), user.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if !plan.Unlimited(plan.MaxWorkspaces) && count >= plan.MaxWorkspaces {
		writeError(w, s.logger, apperr.NewQuotaExceeded("workspace", plan.MaxWorkspaces, count))
		return
	}

	ws, err := s.resolver.CreateWorkspace(r.Context(), user.ID, req.Name)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, errNoHandle)
		return
	}
	workspaces, err := s.control.WorkspacesByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": workspaces, "count": len(workspaces)})
}

func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.control.DeleteWorkspace(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
