package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"memento/internal/store/workspace"
)

// handleHealth renders a plaintext prose health report: working
// memory freshness, memory counts by status, skip-list size, access-log
// total, and per-resource quota usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	ctx := r.Context()

	items, err := b.items.List(ctx, workspace.ItemFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var freshest time.Time
	for _, it := range items {
		if it.LastTouched.After(freshest) {
			freshest = it.LastTouched
		}
	}

	all, err := b.handle.Store.ListMemories(ctx, workspace.MemoryFilter{Status: "all"})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var active, consolidated, expired int
	now := time.Now().UTC()
	for _, m := range all {
		switch {
		case m.Consolidated:
			consolidated++
		case m.ExpiresAt != nil && !m.ExpiresAt.After(now):
			expired++
		default:
			active++
		}
	}

	skipEntries, err := b.skip.List(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	accessTotal, err := b.handle.Store.CountAccessLog(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Workspace %q is healthy.", b.handle.Workspace.Name))
	if freshest.IsZero() {
		lines = append(lines, "Working memory is empty.")
	} else {
		lines = append(lines, fmt.Sprintf("Working memory last touched %s ago.", time.Since(freshest).Round(time.Second)))
	}
	lines = append(lines, fmt.Sprintf("Memories: %d active, %d consolidated, %d expired.", active, consolidated, expired))
	lines = append(lines, fmt.Sprintf("Skip list: %d active entries.", len(skipEntries)))
	lines = append(lines, fmt.Sprintf("Access log: %d total reads.", accessTotal))
	itemsUsed, err := b.handle.Store.CountNonArchivedItems(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	workspacesUsed, err := s.control.CountWorkspaces(ctx, b.user.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	lines = append(lines, fmt.Sprintf("Quota usage — memories: %s, items: %s, workspaces: %s.",
		quotaLine(active+expired, b.plan.MaxMemories),
		quotaLine(itemsUsed, b.plan.MaxItems),
		quotaLine(workspacesUsed, b.plan.MaxWorkspaces)))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strings.Join(lines, "\n") + "\n"))
}

func quotaLine(used, limit int) string {
	if limit < 0 {
		return fmt.Sprintf("%d / unlimited", used)
	}
	return fmt.Sprintf("%d / %d", used, limit)
}

func quotaUnbounded(limit int) string {
	if limit < 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", limit)
}
