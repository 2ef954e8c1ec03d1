// Package item implements working-memory item CRUD: quota on non-archived
// items, field-level encryption, and post-decryption free-text search.
package item

import (
	"context"
	"strings"
	"time"

	"memento/internal/apperr"
	"memento/internal/config"
	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/workspace"
)

// CreateInput is the validated payload for creating a working-memory item.
type CreateInput struct {
	Category   model.ItemCategory
	Title      string
	Content    string
	Priority   int
	Tags       []string
	NextAction string
}

// Service is the per-workspace item CRUD service.
type Service struct {
	store *workspace.Store
	key   []byte
	plan  config.Plan
}

func NewService(store *workspace.Store, key []byte, plan config.Plan) *Service {
	return &Service{store: store, key: key, plan: plan}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Item, error) {
	if in.Title == "" {
		return nil, apperr.NewValidation("title must not be empty")
	}
	if !model.ValidItemCategories[in.Category] {
		return nil, apperr.NewValidation("invalid item category: " + string(in.Category))
	}

	if !s.plan.Unlimited(s.plan.MaxItems) {
		count, err := s.store.CountNonArchivedItems(ctx)
		if err != nil {
			return nil, err
		}
		if count >= s.plan.MaxItems {
			return nil, apperr.NewQuotaExceeded("item", s.plan.MaxItems, count)
		}
	}

	content, err := crypto.EncryptOptional(in.Content, s.key)
	if err != nil {
		return nil, err
	}
	title, err := crypto.EncryptOptional(in.Title, s.key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	it := model.Item{
		ID:          idgen.New("item"),
		Category:    in.Category,
		Title:       title,
		Content:     content,
		Status:      model.StatusActive,
		Priority:    in.Priority,
		Tags:        model.NormalizeTags(in.Tags),
		NextAction:  in.NextAction,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastTouched: now,
	}
	if err := s.store.InsertItem(ctx, it); err != nil {
		return nil, err
	}
	if err := s.decrypt(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(it); err != nil {
		return nil, err
	}
	return it, nil
}

// List returns filtered, decrypted items, applying any free-text query
// after decryption and in-process pagination.
func (s *Service) List(ctx context.Context, filter workspace.ItemFilter) ([]model.Item, error) {
	query := filter.Query
	storeFilter := filter
	storeFilter.Query = ""
	storeFilter.Limit = 0
	storeFilter.Offset = 0

	items, err := s.store.ListItems(ctx, storeFilter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err := s.decrypt(&items[i]); err != nil {
			return nil, err
		}
	}

	if query != "" {
		filtered := items[:0]
		for _, it := range items {
			if matchesQuery(it, query) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func matchesQuery(it model.Item, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q)
}

// UpdateInput carries PUT /working-memory/items/:id's partial fields.
type UpdateInput struct {
	Category   *model.ItemCategory
	Title      *string
	Content    *string
	Status     *model.ItemStatus
	Priority   *int
	Tags       []string
	NextAction *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Category != nil {
		if !model.ValidItemCategories[*in.Category] {
			return nil, apperr.NewValidation("invalid item category: " + string(*in.Category))
		}
		it.Category = *in.Category
	}
	if in.Title != nil {
		enc, err := crypto.EncryptOptional(*in.Title, s.key)
		if err != nil {
			return nil, err
		}
		it.Title = enc
	}
	if in.Content != nil {
		enc, err := crypto.EncryptOptional(*in.Content, s.key)
		if err != nil {
			return nil, err
		}
		it.Content = enc
	}
	if in.Status != nil {
		if !model.ValidItemStatuses[*in.Status] {
			return nil, apperr.NewValidation("invalid item status: " + string(*in.Status))
		}
		it.Status = *in.Status
	}
	if in.Priority != nil {
		it.Priority = *in.Priority
	}
	if in.Tags != nil {
		it.Tags = model.NormalizeTags(in.Tags)
	}
	if in.NextAction != nil {
		it.NextAction = *in.NextAction
	}

	now := time.Now().UTC()
	it.UpdatedAt = now
	it.LastTouched = now

	if err := s.store.UpdateItem(ctx, *it); err != nil {
		return nil, err
	}
	if err := s.decrypt(it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteItem(ctx, id)
}

func (s *Service) decrypt(it *model.Item) error {
	title, err := crypto.DecryptOptional(it.Title, s.key)
	if err != nil {
		return err
	}
	content, err := crypto.DecryptOptional(it.Content, s.key)
	if err != nil {
		return err
	}
	it.Title, it.Content = title, content
	return nil
}
