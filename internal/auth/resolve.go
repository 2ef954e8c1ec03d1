package auth

import (
	"context"
	"strings"

	"memento/internal/apperr"
	"memento/internal/config"
	"memento/internal/model"
	"memento/internal/store/control"
	"memento/internal/workspacemgr"
)

// MaxPeekWorkspaces is the cap on X-Memento-Peek-Workspaces.
const MaxPeekWorkspaces = 5

// Resolver implements the per-request auth pipeline: credential lookup,
// workspace resolution/auto-create, and peek resolution.
type Resolver struct {
	control *control.Store
	wsmgr   *workspacemgr.Manager
}

func NewResolver(controlStore *control.Store, wsmgr *workspacemgr.Manager) *Resolver {
	return &Resolver{control: controlStore, wsmgr: wsmgr}
}

// Authenticate looks up a credential by its raw bearer value, rejecting
// unknown or revoked credentials.
func (r *Resolver) Authenticate(ctx context.Context, rawCredential string) (*model.Credential, *model.User, error) {
	cred, err := r.control.CredentialByHash(ctx, HashCredential(rawCredential))
	if err != nil {
		return nil, nil, err
	}
	if cred.Revoked() {
		return nil, nil, apperr.NewUnauthorized("credential has been revoked")
	}
	user, err := r.control.UserByID(ctx, cred.UserID)
	if err != nil {
		return nil, nil, apperr.NewUnauthorized("credential owner no longer exists")
	}
	go func() {
		// Fire-and-forget; durability of this write never gates the response.
		_ = r.control.TouchCredentialLastUsed(context.Background(), cred.ID)
	}()
	return cred, user, nil
}

// ResolveWorkspace resolves the named workspace for user, auto-creating it
// (subject to quota) if it does not yet exist.
func (r *Resolver) ResolveWorkspace(ctx context.Context, user *model.User, name string) (*model.Workspace, error) {
	if name == "" {
		name = model.DefaultWorkspaceName
	}
	ws, err := r.control.WorkspaceByName(ctx, user.ID, name)
	if err == nil {
		return ws, nil
	}
	if ae, ok := apperr.As(err); !ok || ae.Type != apperr.TypeNotFound {
		return nil, err
	}

	plan := config.PlanByName(user.Plan)
	count, err := r.control.CountWorkspaces(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !plan.Unlimited(plan.MaxWorkspaces) && count >= plan.MaxWorkspaces {
		return nil, apperr.NewQuotaExceeded("workspace", plan.MaxWorkspaces, count)
	}

	return r.CreateWorkspace(ctx, user.ID, name)
}

// CreateWorkspace creates a workspace explicitly (used by POST /workspaces
// too, after its own quota check).
func (r *Resolver) CreateWorkspace(ctx context.Context, userID, name string) (*model.Workspace, error) {
	locator := defaultWorkspaceLocator(userID, name)
	return r.control.CreateWorkspace(ctx, userID, name, locator)
}

func defaultWorkspaceLocator(userID, name string) string {
	safe := strings.NewReplacer("/", "_", "..", "_").Replace(name)
	return "./data/workspaces/" + userID + "_" + safe + ".db"
}

// ResolvePeeks resolves the comma-separated peek workspace names (from the
// header or the /context body) into read-only handles. Unknown names are
// silently dropped; exceeding the cap is a hard validation error.
func (r *Resolver) ResolvePeeks(ctx context.Context, user *model.User, names []string) ([]*workspacemgr.Handle, error) {
	if len(names) > MaxPeekWorkspaces {
		return nil, apperr.NewValidation("too many peek workspaces requested (max 5)")
	}
	var out []*workspacemgr.Handle
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		ws, err := r.control.WorkspaceByName(ctx, user.ID, n)
		if err != nil {
			continue // missing workspaces are silently dropped
		}
		h, err := r.wsmgr.Open(ctx, ws)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// ParsePeekHeader splits the X-Memento-Peek-Workspaces comma list.
func ParsePeekHeader(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
