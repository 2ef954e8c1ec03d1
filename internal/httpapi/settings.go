package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"memento/internal/apperr"
	"memento/internal/model"
)

var validSettingKeys = map[string]bool{
	model.SettingRecallAlpha:     true,
	model.SettingRecallThreshold: true,
}

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	settings, err := b.handle.Store.AllSettings(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type putSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := chi.URLParam(r, "key")
	if !validSettingKeys[key] {
		writeError(w, s.logger, apperr.NewValidation("unknown setting: "+key))
		return
	}
	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}
	if err := b.handle.Store.SetSetting(r.Context(), key, req.Value); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: req.Value})
}

func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := chi.URLParam(r, "key")
	if err := b.handle.Store.DeleteSetting(r.Context(), key); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
