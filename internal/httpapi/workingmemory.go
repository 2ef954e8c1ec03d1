package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"memento/internal/apperr"
	"memento/internal/item"
	"memento/internal/model"
	"memento/internal/store/workspace"
)

func sortedItems(items []model.Item) []model.Item {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (s *Server) listWorkingMemory(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	items, err := b.items.List(r.Context(), workspace.ItemFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sortedItems(items), "count": len(items)})
}

func (s *Server) workingMemorySection(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	category := model.ItemCategory(chi.URLParam(r, "section"))
	if !model.ValidItemCategories[category] {
		writeError(w, s.logger, apperr.NewValidation("unknown working-memory section: "+string(category)))
		return
	}
	items, err := b.items.List(r.Context(), workspace.ItemFilter{Category: category})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sortedItems(items), "count": len(items)})
}

type putSectionRequest struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content"`
	Priority   int      `json:"priority"`
	Tags       []string `json:"tags"`
	NextAction string   `json:"next_action"`
}

func (s *Server) putWorkingMemorySection(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	category := model.ItemCategory(chi.URLParam(r, "section"))
	if !model.ValidItemCategories[category] {
		writeError(w, s.logger, apperr.NewValidation("unknown working-memory section: "+string(category)))
		return
	}
	var req putSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	it, err := b.items.Create(r.Context(), item.CreateInput{
		Category: category, Title: req.Title, Content: req.Content,
		Priority: req.Priority, Tags: req.Tags, NextAction: req.NextAction,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

type createItemRequest struct {
	Category   string   `json:"category" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content"`
	Priority   int      `json:"priority"`
	Tags       []string `json:"tags"`
	NextAction string   `json:"next_action"`
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, s.logger, apperr.NewValidation(err.Error()))
		return
	}
	it, err := b.items.Create(r.Context(), item.CreateInput{
		Category: model.ItemCategory(req.Category), Title: req.Title, Content: req.Content,
		Priority: req.Priority, Tags: req.Tags, NextAction: req.NextAction,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	it, err := b.items.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

type updateItemRequest struct {
	Category   *string  `json:"category"`
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Status     *string  `json:"status"`
	Priority   *int     `json:"priority"`
	Tags       []string `json:"tags"`
	NextAction *string  `json:"next_action"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, apperr.NewValidation("invalid request body"))
		return
	}
	in := item.UpdateInput{Title: req.Title, Content: req.Content, Priority: req.Priority, Tags: req.Tags, NextAction: req.NextAction}
	if req.Category != nil {
		c := model.ItemCategory(*req.Category)
		in.Category = &c
	}
	if req.Status != nil {
		st := model.ItemStatus(*req.Status)
		in.Status = &st
	}
	it, err := b.items.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := b.items.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
