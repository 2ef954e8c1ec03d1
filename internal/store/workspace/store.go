package workspace

import (
	"context"
	"strings"

	"memento/internal/apperr"
	"memento/internal/store/sqlstore"
)

// Store is a handle to one workspace's database. A Store is created per
// workspace and reused across all concurrent requests for it; every method
// here is a thin wrapper over database/sql, which already
// guarantees safe concurrent use of the pool.
type Store struct {
	db *sqlstore.DB
}

// Open opens (creating if needed) the workspace database at locator and
// applies its schema.
func Open(ctx context.Context, locator string) (*Store, error) {
	db, err := sqlstore.OpenDB(locator)
	if err != nil {
		return nil, err
	}
	for _, stmt := range splitSchema(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, apperr.NewInternal("workspace: apply schema", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func splitSchema(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
