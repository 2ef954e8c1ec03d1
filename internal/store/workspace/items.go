package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"memento/internal/apperr"
	"memento/internal/model"
)

// ItemFilter narrows ListItems.
type ItemFilter struct {
	Category model.ItemCategory
	Status   model.ItemStatus // "" = active+paused (default listing)
	Query    string           // free-text, matched post-decryption by caller
	Limit    int
	Offset   int
}

func (s *Store) InsertItem(ctx context.Context, it model.Item) error {
	tags, _ := json.Marshal(it.Tags)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, category, title, content, status, priority, tags, next_action,
		  created_at, updated_at, last_touched)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, string(it.Category), it.Title, it.Content, string(it.Status), it.Priority,
		string(tags), it.NextAction, it.CreatedAt, it.UpdatedAt, it.LastTouched)
	if err != nil {
		return apperr.NewInternal("workspace: insert item", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, itemSelect+` WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("item")
	}
	return it, err
}

// ListItems returns items matching filter, ordered priority-desc then
// created-desc.
func (s *Store) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	} else {
		where = append(where, "status IN ('active', 'paused')")
	}

	query := itemSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY priority DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list items", err)
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		it, err := scanItemRows(rows)
		if err != nil {
			return nil, err
		}
		if filter.Query != "" && !matchesQuery(*it, filter.Query) {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

// ListActiveAndPaused is the composer's working-memory listing: active and
// paused items, priority-desc then created-desc.
func (s *Store) ListActiveAndPaused(ctx context.Context) ([]model.Item, error) {
	return s.ListItems(ctx, ItemFilter{})
}

func (s *Store) UpdateItem(ctx context.Context, it model.Item) error {
	tags, _ := json.Marshal(it.Tags)
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET category = ?, title = ?, content = ?, status = ?, priority = ?,
		  tags = ?, next_action = ?, updated_at = ?, last_touched = ? WHERE id = ?`,
		string(it.Category), it.Title, it.Content, string(it.Status), it.Priority,
		string(tags), it.NextAction, it.UpdatedAt, it.LastTouched, it.ID)
	if err != nil {
		return apperr.NewInternal("workspace: update item", err)
	}
	return checkRowsAffected(res, "item")
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return apperr.NewInternal("workspace: delete item", err)
	}
	return checkRowsAffected(res, "item")
}

// CountNonArchivedItems returns the count used for item quota checks.
func (s *Store) CountNonArchivedItems(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE status != 'archived'`)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.NewInternal("workspace: count items", err)
	}
	return n, nil
}

const itemSelect = `SELECT id, category, title, content, status, priority, tags, next_action,
	created_at, updated_at, last_touched FROM items`

func scanItem(row *sql.Row) (*model.Item, error)       { return scanItemGeneric(row) }
func scanItemRows(rows *sql.Rows) (*model.Item, error) { return scanItemGeneric(rows) }

func scanItemGeneric(row rowScanner) (*model.Item, error) {
	var it model.Item
	var category, status, tagsJSON string
	if err := row.Scan(&it.ID, &category, &it.Title, &it.Content, &status, &it.Priority,
		&tagsJSON, &it.NextAction, &it.CreatedAt, &it.UpdatedAt, &it.LastTouched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.NewInternal("workspace: scan item", err)
	}
	it.Category = model.ItemCategory(category)
	it.Status = model.ItemStatus(status)
	_ = json.Unmarshal([]byte(tagsJSON), &it.Tags)
	return &it, nil
}

func matchesQuery(it model.Item, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q)
}
