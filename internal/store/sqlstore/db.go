package sqlstore

import (
	"context"
	"database/sql"
)

// DB wraps a *sql.DB with its dialect so callers write "?"-placeholder SQL
// once and it works against either backend. Safe for concurrent use across
// handlers: that contract is inherited directly from database/sql's own
// connection pool, which every method here defers to.
type DB struct {
	Conn    *sql.DB
	Dialect Dialect
}

// OpenDB opens locator and wraps the result.
func OpenDB(locator string) (*DB, error) {
	conn, dialect, err := Open(locator)
	if err != nil {
		return nil, err
	}
	return &DB{Conn: conn, Dialect: dialect}, nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, Rebind(db.Dialect, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, Rebind(db.Dialect, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.Conn.QueryRowContext(ctx, Rebind(db.Dialect, query), args...)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error { return db.Conn.Close() }

// UpsertClause returns the dialect-portable "ON CONFLICT ... DO UPDATE"
// tail; both sqlite (>=3.24) and postgres accept this syntax verbatim.
func UpsertClause(conflictCols string, setClause string) string {
	return "ON CONFLICT(" + conflictCols + ") DO UPDATE SET " + setClause
}
