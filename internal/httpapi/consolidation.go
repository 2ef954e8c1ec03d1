package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"memento/internal/apperr"
	"memento/internal/model"
)

func (s *Server) runConsolidation(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	results, err := b.consolidate.RunAutomaticPass(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"consolidations": results, "count": len(results)})
		return
	}
	agentText(w, consolidationText(results))
}

// consolidationText summarizes an automatic pass the way an agent can
// present directly: total sources folded, into how many new memories.
func consolidationText(results []model.Consolidation) string {
	if len(results) == 0 {
		return "No groups found to consolidate."
	}
	sources := 0
	for _, c := range results {
		sources += len(c.SourceIDs)
	}
	return fmt.Sprintf("%d memories consolidated into %d new memory group(s).", sources, len(results))
}

type mergeConsolidationRequest struct {
	SourceIDs []string `json:"source_ids" validate:"required,min=2"`
	Summary   string   `json:"summary"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
}

func (s *Server) mergeConsolidation(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req mergeConsolidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}
	cons, err := b.consolidate.MergeManual(r.Context(), req.SourceIDs, req.Summary, req.Type, req.Tags)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, cons)
		return
	}
	agentText(w, fmt.Sprintf("%d memories consolidated into 1 new memory.", len(cons.SourceIDs)))
}
