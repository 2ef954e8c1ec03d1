// Package decay implements a periodic sweep that recomputes each active
// memory's relevance from rec·acc·last (no query term involved) and writes
// it back only when it actually changed, tolerating races against
// concurrent recall.
package decay

import (
	"context"
	"time"

	"memento/internal/scoring"
	"memento/internal/store/workspace"
)

// Service runs one workspace's decay sweep.
type Service struct {
	store *workspace.Store
}

func NewService(store *workspace.Store) *Service {
	return &Service{store: store}
}

// Sweep recomputes relevance for every non-consolidated, non-expired memory
// and writes back only the ones whose value changed. It returns the number
// of memories updated.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	memories, err := s.store.ListAllActive(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	updated := 0
	for i := range memories {
		m := &memories[i]
		next := scoring.RelevanceForDecay(m, now)
		if next == m.Relevance {
			continue
		}
		if err := s.store.SetRelevance(ctx, m.ID, next); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
