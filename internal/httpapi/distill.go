package httpapi

import (
	"encoding/json"
	"net/http"

	"memento/internal/apperr"
	"memento/internal/crypto"
)

type runDistillRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

// runDistill exposes the distillation pass as an explicit request an agent
// makes at the end of a session, handing over its transcript to extract
// candidate memories from.
func (s *Server) runDistill(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req runDistillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}

	existing, err := b.handle.Store.ListAllActive(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	for i := range existing {
		dec, err := crypto.DecryptOptional(existing[i].Content, b.handle.Key)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		existing[i].Content = dec
	}

	created, err := b.distill.Run(r.Context(), req.Transcript, existing, b.handle.Key)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": created, "count": len(created)})
}
