package workspace

import (
	"context"
	"time"

	"memento/internal/apperr"
	"memento/internal/model"
)

func (s *Store) InsertSkipEntry(ctx context.Context, e model.SkipEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skip_entries (id, item, reason, expires_at, added_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Item, e.Reason, e.ExpiresAt, e.AddedAt)
	if err != nil {
		return apperr.NewInternal("workspace: insert skip entry", err)
	}
	return nil
}

// PurgeExpiredSkipEntries deletes every skip row whose expiration has
// passed. Run on every read that touches the table.
func (s *Store) PurgeExpiredSkipEntries(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM skip_entries WHERE expires_at <= ?`, now)
	if err != nil {
		return apperr.NewInternal("workspace: purge skip entries", err)
	}
	return nil
}

// ListSkipEntries returns all (already-purged) active skip entries.
func (s *Store) ListSkipEntries(ctx context.Context) ([]model.SkipEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item, reason, expires_at, added_at FROM skip_entries ORDER BY added_at DESC`)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list skip entries", err)
	}
	defer rows.Close()
	var out []model.SkipEntry
	for rows.Next() {
		var e model.SkipEntry
		if err := rows.Scan(&e.ID, &e.Item, &e.Reason, &e.ExpiresAt, &e.AddedAt); err != nil {
			return nil, apperr.NewInternal("workspace: scan skip entry", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) DeleteSkipEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM skip_entries WHERE id = ?`, id)
	if err != nil {
		return apperr.NewInternal("workspace: delete skip entry", err)
	}
	return checkRowsAffected(res, "skip entry")
}
