package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"memento/internal/apperr"
	"memento/internal/contextapi"
	"memento/internal/httpapi/middleware"
)

type postContextRequest struct {
	Message        string   `json:"message"`
	Include        []string `json:"include"`
	PeekWorkspaces []string `json:"peek_workspaces"`
}

func (s *Server) postContext(w http.ResponseWriter, r *http.Request) {
	b, err := s.bundleFor(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req postContextRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, s.logger, apperr.NewValidation("invalid request body"))
			return
		}
	}

	peeks := req.PeekWorkspaces
	if len(peeks) == 0 {
		peeks = middleware.PeekNamesFromContext(r.Context())
	}

	resp, err := b.ctxSvc.Compose(r.Context(), contextapi.Request{
		Message:        req.Message,
		Include:        req.Include,
		PeekWorkspaces: peeks,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	agentText(w, contextText(resp))
}

// contextText renders a composed context response as prose: one short
// paragraph per included section, in the order the sections were composed.
func contextText(resp *contextapi.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workspace: %s\n", resp.Meta.Workspace)

	if resp.WorkingMemory != nil {
		fmt.Fprintf(&b, "\nWorking memory (%d item(s)):\n", resp.WorkingMemory.Count)
		for _, it := range resp.WorkingMemory.Items {
			fmt.Fprintf(&b, "- [%s] %s\n", it.Category, it.Title)
		}
	}

	if resp.Memories != nil {
		b.WriteString("\n")
		b.WriteString(recallText(resp.Memories.Results))
	}

	if resp.SkipList != nil {
		if resp.SkipList.Match != nil {
			fmt.Fprintf(&b, "\nSKIP: %s\n", resp.SkipList.Match.Reason)
		} else {
			b.WriteString("\nProceed: no skip-list entry matches this message.\n")
		}
	}

	if resp.Identity != nil && resp.Identity.Crystal != "" {
		fmt.Fprintf(&b, "\nIdentity crystal:\n%s\n", resp.Identity.Crystal)
	}

	return b.String()
}
