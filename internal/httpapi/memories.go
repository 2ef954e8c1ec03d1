package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"memento/internal/apperr"
	"memento/internal/crypto"
	"memento/internal/graph"
	"memento/internal/memory"
	"memento/internal/model"
	"memento/internal/scoring"
	"memento/internal/store/workspace"
)

var validate = validator.New()

type linkageDTO struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Path  string `json:"path,omitempty"`
	Label string `json:"label,omitempty"`
}

func toModelLinkages(in []linkageDTO) []model.Linkage {
	out := make([]model.Linkage, 0, len(in))
	for _, l := range in {
		out = append(out, model.Linkage{Type: model.LinkageType(l.Type), ID: l.ID, Path: l.Path, Label: l.Label})
	}
	return out
}

type createMemoryRequest struct {
	Content   string       `json:"content" validate:"required"`
	Type      string       `json:"type" validate:"required"`
	Tags      []string     `json:"tags"`
	ExpiresAt *time.Time   `json:"expires_at"`
	Linkages  []linkageDTO `json:"linkages"`
}

func (s *Server) createMemory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}

	m, err := b.memories.Create(r.Context(), memory.CreateInput{
		Content:   req.Content,
		Type:      model.MemoryType(req.Type),
		Tags:      req.Tags,
		ExpiresAt: req.ExpiresAt,
		Linkages:  toModelLinkages(req.Linkages),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMemories(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	q := r.URL.Query()
	filter := workspace.MemoryFilter{
		Type:   model.MemoryType(q.Get("type")),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Desc:   true,
	}
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if l := q.Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := q.Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	memories, err := b.memories.List(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories, "count": len(memories)})
}

func (s *Server) getMemory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	m, err := b.memories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type updateMemoryRequest struct {
	Content   *string      `json:"content"`
	Type      *string      `json:"type"`
	Tags      []string     `json:"tags"`
	ExpiresAt *time.Time   `json:"expires_at"`
	Linkages  []linkageDTO `json:"linkages"`
}

func (s *Server) updateMemory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req updateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}

	in := memory.UpdateInput{Content: req.Content, ExpiresAt: req.ExpiresAt, Tags: req.Tags}
	if req.Type != nil {
		t := model.MemoryType(*req.Type)
		in.Type = &t
	}
	if req.Linkages != nil {
		in.Linkages = toModelLinkages(req.Linkages)
	}

	m, err := b.memories.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMemory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := b.memories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recallMemories(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	q := r.URL.Query()
	query := q.Get("query")
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	filter := workspace.MemoryFilter{}
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if t := q.Get("type"); t != "" {
		filter.Type = model.MemoryType(t)
	}

	candidates, err := b.handle.Store.ListMemories(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	for i := range candidates {
		dec, err := crypto.DecryptOptional(candidates[i].Content, b.handle.Key)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		candidates[i].Content = dec
	}

	terms := scoring.PrepareQuery(query)
	results := scoring.RankKeyword(candidates, terms, time.Now().UTC(), 0)
	if len(results) > limit {
		results = results[:limit]
	}

	if q.Get("track_access") != "false" {
		for i := range results {
			b.memories.TrackAccess(results[i].Memory.ID, query)
		}
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"results": results, "query_terms": terms, "ranking": scoring.RankingKeyword})
		return
	}
	agentText(w, recallText(results))
}

// recallText renders a recall result set as the prose an agent can present
// directly: a count line followed by one bullet per matching memory.
func recallText(results []scoring.Result) string {
	if len(results) == 0 {
		return "No memories found."
	}
	noun := "memory"
	if len(results) != 1 {
		noun = "memories"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(results), noun)
	for _, res := range results {
		fmt.Fprintf(&b, "- %s\n", res.Memory.Content)
	}
	return b.String()
}

type ingestRequest struct {
	Memories []createMemoryRequest `json:"memories" validate:"required,max=100,dive"`
	Source   string                `json:"source" validate:"required"`
}

func (s *Server) ingestMemories(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}

	sourceTag := "source:" + req.Source
	created := make([]*model.Memory, 0, len(req.Memories))
	for _, mr := range req.Memories {
		m, err := b.memories.Create(r.Context(), memory.CreateInput{
			Content: mr.Content,
			Type:    model.MemoryType(mr.Type),
			Tags:    append(append([]string{}, mr.Tags...), sourceTag),
		})
		if err != nil {
			continue
		}
		created = append(created, m)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": created, "count": len(created)})
}

func (s *Server) memoryGraph(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	depth := 2
	if d := r.URL.Query().Get("depth"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil {
			depth = parsed
		}
	}
	if depth > graph.MaxDepth {
		depth = graph.MaxDepth
	}

	sg, err := b.graph.Subgraph(r.Context(), chi.URLParam(r, "id"), depth)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Server) memoryRelated(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	outgoing, incoming, err := b.graph.DirectRelations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outgoing": outgoing, "incoming": incoming})
}
