package workspace

import (
	"context"
	"encoding/json"

	"memento/internal/apperr"
	"memento/internal/model"
)

func (s *Store) InsertConsolidation(ctx context.Context, c model.Consolidation) error {
	sourceIDs, _ := json.Marshal(c.SourceIDs)
	tags, _ := json.Marshal(c.Tags)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consolidations (id, summary, source_ids, tags, kind, method, template_summary,
		  new_memory_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Summary, string(sourceIDs), string(tags), string(c.Kind), string(c.Method),
		c.TemplateSummary, c.NewMemoryID, c.CreatedAt)
	if err != nil {
		return apperr.NewInternal("workspace: insert consolidation", err)
	}
	return nil
}

// RecentConsolidations returns up to limit consolidations, newest first,
// used by the identity crystal generator.
func (s *Store) RecentConsolidations(ctx context.Context, limit int) ([]model.Consolidation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, summary, source_ids, tags, kind, method, template_summary, new_memory_id, created_at
		 FROM consolidations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperr.NewInternal("workspace: list consolidations", err)
	}
	defer rows.Close()
	var out []model.Consolidation
	for rows.Next() {
		var c model.Consolidation
		var kind, method, sourceIDsJSON, tagsJSON string
		if err := rows.Scan(&c.ID, &c.Summary, &sourceIDsJSON, &tagsJSON, &kind, &method,
			&c.TemplateSummary, &c.NewMemoryID, &c.CreatedAt); err != nil {
			return nil, apperr.NewInternal("workspace: scan consolidation", err)
		}
		c.Kind = model.ConsolidationKind(kind)
		c.Method = model.SynthesisMethod(method)
		_ = json.Unmarshal([]byte(sourceIDsJSON), &c.SourceIDs)
		_ = json.Unmarshal([]byte(tagsJSON), &c.Tags)
		out = append(out, c)
	}
	return out, nil
}
