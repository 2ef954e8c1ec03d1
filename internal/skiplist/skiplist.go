// Package skiplist implements the time-expiring skip list, with
// purge-on-read and symmetric word-containment matching.
package skiplist

import (
	"context"
	"strings"
	"time"

	"memento/internal/apperr"
	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/workspace"
)

// Service is the per-workspace skip-list service.
type Service struct {
	store *workspace.Store
	key   []byte
}

func NewService(store *workspace.Store, key []byte) *Service {
	return &Service{store: store, key: key}
}

// Add requires item, reason, and an expiration; both item and reason are
// encrypted at rest.
func (s *Service) Add(ctx context.Context, item, reason string, expiresAt time.Time) (*model.SkipEntry, error) {
	if item == "" {
		return nil, apperr.NewValidation("item must not be empty")
	}
	if reason == "" {
		return nil, apperr.NewValidation("reason must not be empty")
	}
	if !expiresAt.After(time.Now()) {
		return nil, apperr.NewValidation("expiration must be in the future")
	}

	encItem, err := crypto.EncryptOptional(item, s.key)
	if err != nil {
		return nil, err
	}
	encReason, err := crypto.EncryptOptional(reason, s.key)
	if err != nil {
		return nil, err
	}

	e := model.SkipEntry{
		ID:        idgen.New("skip"),
		Item:      encItem,
		Reason:    encReason,
		ExpiresAt: expiresAt,
		AddedAt:   time.Now().UTC(),
	}
	if err := s.purgeThenInsert(ctx, e); err != nil {
		return nil, err
	}
	if err := s.decrypt(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) purgeThenInsert(ctx context.Context, e model.SkipEntry) error {
	if err := s.store.PurgeExpiredSkipEntries(ctx, time.Now().UTC()); err != nil {
		return err
	}
	return s.store.InsertSkipEntry(ctx, e)
}

// List returns every active skip entry, purging expired ones first.
func (s *Service) List(ctx context.Context) ([]model.SkipEntry, error) {
	if err := s.store.PurgeExpiredSkipEntries(ctx, time.Now().UTC()); err != nil {
		return nil, err
	}
	entries, err := s.store.ListSkipEntries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if err := s.decrypt(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Check purges, then returns at most one matching entry for query, using
// symmetric word-containment.
func (s *Service) Check(ctx context.Context, query string) (*model.SkipEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if matches(query, entries[i].Item) {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// matches implements the symmetric all-words-containment rule: every word
// of the query appears in the item, or every word of the item appears in
// the query.
func matches(query, item string) bool {
	qWords := words(query)
	iWords := words(item)
	if len(qWords) == 0 || len(iWords) == 0 {
		return false
	}
	return allContained(qWords, iWords) || allContained(iWords, qWords)
}

func words(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func allContained(needles, haystack []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteSkipEntry(ctx, id)
}

func (s *Service) decrypt(e *model.SkipEntry) error {
	item, err := crypto.DecryptOptional(e.Item, s.key)
	if err != nil {
		return err
	}
	reason, err := crypto.DecryptOptional(e.Reason, s.key)
	if err != nil {
		return err
	}
	e.Item, e.Reason = item, reason
	return nil
}
