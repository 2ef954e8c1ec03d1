package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"memento/internal/apperr"
	"memento/internal/model"
)

// MemoryFilter narrows ListMemories.
type MemoryFilter struct {
	Type   model.MemoryType
	Tags   []string // any-of, case-insensitive
	Status string   // active | consolidated | expired | all
	Sort   string   // created_at | relevance | access_count | last_accessed_at
	Desc   bool
	Limit  int
	Offset int
}

// InsertMemory persists a new memory row.
func (s *Store) InsertMemory(ctx context.Context, m model.Memory) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return apperr.NewInternal("workspace: marshal tags", err)
	}
	linkages, err := json.Marshal(m.Linkages)
	if err != nil {
		return apperr.NewInternal("workspace: marshal linkages", err)
	}
	images, err := json.Marshal(m.Images)
	if err != nil {
		return apperr.NewInternal("workspace: marshal images", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, type, tags, created_at, expires_at, relevance,
		  access_count, last_accessed_at, consolidated, consolidated_into, linkages, images)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Content, string(m.Type), string(tags), m.CreatedAt, m.ExpiresAt, m.Relevance,
		m.AccessCount, m.LastAccessedAt, boolToInt(m.Consolidated), m.ConsolidatedInto, string(linkages), string(images))
	if err != nil {
		return apperr.NewInternal("workspace: insert memory", err)
	}
	return nil
}

// GetMemory fetches a memory by id.
func (s *Store) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, memorySelect+` WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("memory")
	}
	return m, err
}

// ListMemories returns memories matching filter, most specific ordering
// first (priority handled by caller for items; memories sort per filter.Sort).
func (s *Store) ListMemories(ctx context.Context, filter MemoryFilter) ([]model.Memory, error) {
	var where []string
	var args []any

	switch filter.Status {
	case "", "active":
		where = append(where, "consolidated = 0")
	case "consolidated":
		where = append(where, "consolidated = 1")
	case "expired":
		where = append(where, "expires_at IS NOT NULL AND expires_at <= ?")
		args = append(args, time.Now().UTC())
	case "all":
		// no filter
	}

	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}

	query := memorySelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	sortCol := "created_at"
	switch filter.Sort {
	case "relevance":
		sortCol = "relevance"
	case "access_count":
		sortCol = "access_count"
	case "last_accessed_at":
		sortCol = "last_accessed_at"
	}
	dir := "DESC"
	if !filter.Desc {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortCol, dir)

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list memories", err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemoryRows(rows)
		if err != nil {
			return nil, err
		}
		// Tag filtering happens in-process: tags are stored as a JSON
		// array, not a queryable column set.
		if len(filter.Tags) > 0 && !anyTagMatches(m.Tags, filter.Tags) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// ListAllActive returns every non-consolidated, non-expired memory — the
// candidate pool the scoring engine and consolidation service scan.
func (s *Store) ListAllActive(ctx context.Context) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, memorySelect+` WHERE consolidated = 0`)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list active memories", err)
	}
	defer rows.Close()
	var out []model.Memory
	now := time.Now().UTC()
	for rows.Next() {
		m, err := scanMemoryRows(rows)
		if err != nil {
			return nil, err
		}
		if m.Expired(now) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// UpdateMemory overwrites all mutable fields of a memory by id.
func (s *Store) UpdateMemory(ctx context.Context, m model.Memory) error {
	tags, _ := json.Marshal(m.Tags)
	linkages, _ := json.Marshal(m.Linkages)
	images, _ := json.Marshal(m.Images)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET content = ?, type = ?, tags = ?, expires_at = ?, relevance = ?,
		  access_count = ?, last_accessed_at = ?, consolidated = ?, consolidated_into = ?,
		  linkages = ?, images = ? WHERE id = ?`,
		m.Content, string(m.Type), string(tags), m.ExpiresAt, m.Relevance, m.AccessCount,
		m.LastAccessedAt, boolToInt(m.Consolidated), m.ConsolidatedInto, string(linkages), string(images), m.ID)
	if err != nil {
		return apperr.NewInternal("workspace: update memory", err)
	}
	return checkRowsAffected(res, "memory")
}

// TouchAccess bumps access_count and last_accessed_at for a served recall
// hit. Fire-and-forget, never gates the response.
func (s *Store) TouchAccess(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`, at, id)
	return err
}

// SetRelevance writes back a recomputed relevance value (decay worker path).
func (s *Store) SetRelevance(ctx context.Context, id string, relevance float64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE memories SET relevance = ? WHERE id = ?`, relevance, id)
	return err
}

// MarkConsolidated flags src as consolidated into targetID.
func (s *Store) MarkConsolidated(ctx context.Context, srcID, targetID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET consolidated = 1, consolidated_into = ? WHERE id = ?`, targetID, srcID)
	return err
}

// DeleteMemory removes a memory row. Callers are responsible for deleting
// access-log rows first.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return apperr.NewInternal("workspace: delete memory", err)
	}
	return checkRowsAffected(res, "memory")
}

// CountActiveMemories returns the number of non-consolidated memories, for
// quota checks.
func (s *Store) CountActiveMemories(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE consolidated = 0`)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.NewInternal("workspace: count memories", err)
	}
	return n, nil
}

const memorySelect = `SELECT id, content, type, tags, created_at, expires_at, relevance,
	access_count, last_accessed_at, consolidated, consolidated_into, linkages, images FROM memories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row *sql.Row) (*model.Memory, error) { return scanMemoryGeneric(row) }

func scanMemoryRows(rows *sql.Rows) (*model.Memory, error) { return scanMemoryGeneric(rows) }

func scanMemoryGeneric(row rowScanner) (*model.Memory, error) {
	var m model.Memory
	var typ string
	var tagsJSON, linkagesJSON, imagesJSON string
	var consolidatedInt int
	if err := row.Scan(&m.ID, &m.Content, &typ, &tagsJSON, &m.CreatedAt, &m.ExpiresAt, &m.Relevance,
		&m.AccessCount, &m.LastAccessedAt, &consolidatedInt, &m.ConsolidatedInto, &linkagesJSON, &imagesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperr.NewInternal("workspace: scan memory", err)
	}
	m.Type = model.MemoryType(typ)
	m.Consolidated = consolidatedInt != 0
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(linkagesJSON), &m.Linkages)
	_ = json.Unmarshal([]byte(imagesJSON), &m.Images)
	return &m, nil
}

func anyTagMatches(tags, want []string) bool {
	for _, w := range want {
		if model.HasTag(tags, w) {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.NewInternal("workspace: rows affected", err)
	}
	if n == 0 {
		return apperr.NewNotFound(resource)
	}
	return nil
}
