package httpapi

import (
	"net/http"
	"strconv"
)

func (s *Server) getIdentity(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	snap, err := b.ident.Latest(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"crystal": nil})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) crystallizeIdentity(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	snap, err := b.ident.Crystallize(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) identityHistory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	history, err := b.ident.History(r.Context(), limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": history, "count": len(history)})
}
