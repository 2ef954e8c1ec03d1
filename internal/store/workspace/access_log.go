package workspace

import (
	"context"
	"time"

	"memento/internal/apperr"
	"memento/internal/platform/idgen"
)

// InsertAccessLog appends one row recording that memoryID was served for
// query (which may be empty). Fire-and-forget by convention.
func (s *Store) InsertAccessLog(ctx context.Context, memoryID, query string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_log (id, memory_id, query, at) VALUES (?, ?, ?, ?)`,
		idgen.New("log"), memoryID, query, at)
	if err != nil {
		return apperr.NewInternal("workspace: insert access log", err)
	}
	return nil
}

// DeleteAccessLogForMemory removes all access-log rows for a memory, the
// first step of the cascading delete.
func (s *Store) DeleteAccessLogForMemory(ctx context.Context, memoryID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM access_log WHERE memory_id = ?`, memoryID)
	if err != nil {
		return apperr.NewInternal("workspace: delete access log", err)
	}
	return nil
}

// CountAccessLog returns the total number of access-log rows, for the
// health report.
func (s *Store) CountAccessLog(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_log`)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.NewInternal("workspace: count access log", err)
	}
	return n, nil
}
