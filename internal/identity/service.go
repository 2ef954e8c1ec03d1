package identity

import (
	"context"

	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/store/workspace"
)

// Service wires crystal generation to one workspace's stores.
type Service struct {
	store *workspace.Store
	key   []byte
}

func NewService(store *workspace.Store, key []byte) *Service {
	return &Service{store: store, key: key}
}

// Crystallize assembles a fresh crystal from current workspace state and
// persists it as a new snapshot.
func (s *Service) Crystallize(ctx context.Context) (*model.IdentitySnapshot, error) {
	items, err := s.store.ListActiveAndPaused(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		dec, err := crypto.DecryptOptional(items[i].Title, s.key)
		if err != nil {
			return nil, err
		}
		items[i].Title = dec
		content, err := crypto.DecryptOptional(items[i].Content, s.key)
		if err != nil {
			return nil, err
		}
		items[i].Content = content
	}

	memories, err := s.store.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range memories {
		dec, err := crypto.DecryptOptional(memories[i].Content, s.key)
		if err != nil {
			return nil, err
		}
		memories[i].Content = dec
	}

	consolidations, err := s.store.RecentConsolidations(ctx, recentConsolidations)
	if err != nil {
		return nil, err
	}

	crystal := GenerateCrystal(items, memories, consolidations)
	sourceCount := len(items) + min(len(memories), topMemoryCount) + min(len(consolidations), recentConsolidations)

	snap, err := Snapshot(crystal, sourceCount, s.key)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertIdentitySnapshot(ctx, *snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Latest returns the most recent snapshot, decrypted, or nil if none exists.
func (s *Service) Latest(ctx context.Context) (*model.IdentitySnapshot, error) {
	snap, err := s.store.LatestIdentitySnapshot(ctx)
	if err != nil || snap == nil {
		return snap, err
	}
	if err := Decrypt(snap, s.key); err != nil {
		return nil, err
	}
	return snap, nil
}

// History returns up to limit past snapshots, decrypted, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]model.IdentitySnapshot, error) {
	snaps, err := s.store.IdentityHistory(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		if err := Decrypt(&snaps[i], s.key); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}
