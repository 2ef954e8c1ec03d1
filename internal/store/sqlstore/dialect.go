// Package sqlstore holds the database/sql plumbing shared by the control
// store and every per-workspace store: dialect-aware placeholders and
// connection opening for the two supported backends, a local sqlite file
// (modernc.org/sqlite, pure Go) or a remote hosted Postgres database
// (github.com/lib/pq).
package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavor a *sql.DB speaks.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Open resolves locator to a driver and opens a connection. A locator
// starting with "postgres://" or "postgresql://" opens a remote hosted
// database; anything else is treated as a local sqlite file path (created,
// along with its parent directory, if missing).
func Open(locator string) (*sql.DB, Dialect, error) {
	if strings.HasPrefix(locator, "postgres://") || strings.HasPrefix(locator, "postgresql://") {
		db, err := sql.Open("postgres", locator)
		if err != nil {
			return nil, Postgres, fmt.Errorf("sqlstore: open postgres: %w", err)
		}
		return db, Postgres, nil
	}

	path := strings.TrimPrefix(locator, "sqlite://")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, SQLite, fmt.Errorf("sqlstore: create workspace db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, SQLite, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	// sqlite serializes writers; a single open connection avoids
	// "database is locked" errors under concurrent handlers.
	db.SetMaxOpenConns(1)
	return db, SQLite, nil
}

// Rebind rewrites a query written with "?" placeholders to the target
// dialect's native placeholder style ("?" for sqlite, "$1 $2 ..." for
// postgres). All queries in this package are authored with "?" and rebound
// at call time so a single SQL string serves both backends.
func Rebind(d Dialect, query string) string {
	if d == SQLite {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
