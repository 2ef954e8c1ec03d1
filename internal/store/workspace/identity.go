package workspace

import (
	"database/sql"
	"context"
	"errors"

	"memento/internal/apperr"
	"memento/internal/model"
)

func (s *Store) InsertIdentitySnapshot(ctx context.Context, snap model.IdentitySnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_snapshots (id, crystal, source_count, created_at) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Crystal, snap.SourceCount, snap.CreatedAt)
	if err != nil {
		return apperr.NewInternal("workspace: insert identity snapshot", err)
	}
	return nil
}

// LatestIdentitySnapshot returns the most recently created snapshot, if any.
func (s *Store) LatestIdentitySnapshot(ctx context.Context) (*model.IdentitySnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, crystal, source_count, created_at FROM identity_snapshots
		 ORDER BY created_at DESC LIMIT 1`)
	var snap model.IdentitySnapshot
	if err := row.Scan(&snap.ID, &snap.Crystal, &snap.SourceCount, &snap.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.NewInternal("workspace: scan identity snapshot", err)
	}
	return &snap, nil
}

// IdentityHistory returns up to limit snapshots, newest first.
func (s *Store) IdentityHistory(ctx context.Context, limit int) ([]model.IdentitySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, crystal, source_count, created_at FROM identity_snapshots
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list identity history", err)
	}
	defer rows.Close()
	var out []model.IdentitySnapshot
	for rows.Next() {
		var snap model.IdentitySnapshot
		if err := rows.Scan(&snap.ID, &snap.Crystal, &snap.SourceCount, &snap.CreatedAt); err != nil {
			return nil, apperr.NewInternal("workspace: scan identity snapshot", err)
		}
		out = append(out, snap)
	}
	return out, nil
}
