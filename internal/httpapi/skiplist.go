package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memento/internal/apperr"
)

type addSkipRequest struct {
	Item      string    `json:"item" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

func (s *Server) listSkip(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	entries, err := b.skip.List(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) addSkip(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req addSkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}
	entry, err := b.skip.Add(r.Context(), req.Item, req.Reason, req.ExpiresAt)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) checkSkip(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	query := r.URL.Query().Get("query")
	match, err := b.skip.Check(r.Context(), query)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"match": match, "skipped": match != nil})
		return
	}
	if match != nil {
		agentText(w, fmt.Sprintf("SKIP: %s", match.Reason))
		return
	}
	agentText(w, "Proceed: no skip-list entry matches this query.")
}

func (s *Server) deleteSkip(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := b.skip.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
