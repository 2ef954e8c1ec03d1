// Package control implements the control schema owning users, credentials,
// the workspace registry, and wrapped workspace keys.
package control

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"memento/internal/apperr"
	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/sqlstore"
)

// Store is the control-plane database handle, shared across all handlers.
type Store struct {
	db *sqlstore.DB
}

// Open opens (creating if needed) the control database at locator and
// applies its schema.
func Open(ctx context.Context, locator string) (*Store, error) {
	db, err := sqlstore.OpenDB(locator)
	if err != nil {
		return nil, err
	}
	for _, stmt := range splitSchema(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, apperr.NewInternal("control: apply schema", err)
		}
	}
	return &Store{db: db}, nil
}

func splitSchema(s string) []string {
	var out []string
	for _, stmt := range strings.Split(s, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, email, displayName, plan string) (*model.User, error) {
	u := &model.User{
		ID:          idgen.New("usr"),
		Email:       email,
		DisplayName: displayName,
		Plan:        plan,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, plan, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.Plan, u.CreatedAt)
	if err != nil {
		return nil, apperr.NewInternal("control: create user", err)
	}
	return u, nil
}

// UserByID fetches a user by id.
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, plan, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Plan, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("user")
		}
		return nil, apperr.NewInternal("control: scan user", err)
	}
	return &u, nil
}

// CreateCredential inserts a new credential row for userID.
func (s *Store) CreateCredential(ctx context.Context, userID, hash, prefix string) (*model.Credential, error) {
	c := &model.Credential{
		ID:        idgen.New("cred"),
		UserID:    userID,
		Hash:      hash,
		Prefix:    prefix,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, hash, prefix, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Hash, c.Prefix, c.CreatedAt)
	if err != nil {
		return nil, apperr.NewInternal("control: create credential", err)
	}
	return c, nil
}

// CredentialByHash looks up a credential by its hash, as used on every
// authenticated request.
func (s *Store) CredentialByHash(ctx context.Context, hash string) (*model.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, hash, prefix, created_at, last_used_at, revoked_at
		 FROM credentials WHERE hash = ?`, hash)
	var c model.Credential
	if err := row.Scan(&c.ID, &c.UserID, &c.Hash, &c.Prefix, &c.CreatedAt, &c.LastUsedAt, &c.RevokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewUnauthorized("unknown credential")
		}
		return nil, apperr.NewInternal("control: scan credential", err)
	}
	return &c, nil
}

// TouchCredentialLastUsed updates last_used_at. Callers invoke this
// fire-and-forget; failures are swallowed with a log.
func (s *Store) TouchCredentialLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET last_used_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// WorkspacesByUser lists all workspaces owned by userID.
func (s *Store) WorkspacesByUser(ctx context.Context, userID string) ([]model.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, db_url, db_token, encrypted_key, created_at
		 FROM workspaces WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, apperr.NewInternal("control: list workspaces", err)
	}
	defer rows.Close()
	var out []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.DBURL, &w.DBToken, &w.EncryptedKey, &w.CreatedAt); err != nil {
			return nil, apperr.NewInternal("control: scan workspace", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// AllWorkspaces lists every workspace across every user, for the decay
// worker's periodic sweep.
func (s *Store) AllWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, db_url, db_token, encrypted_key, created_at FROM workspaces`)
	if err != nil {
		return nil, apperr.NewInternal("control: list all workspaces", err)
	}
	defer rows.Close()
	var out []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.DBURL, &w.DBToken, &w.EncryptedKey, &w.CreatedAt); err != nil {
			return nil, apperr.NewInternal("control: scan workspace", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// WorkspaceByName fetches the (user, name) workspace, if any.
func (s *Store) WorkspaceByName(ctx context.Context, userID, name string) (*model.Workspace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, db_url, db_token, encrypted_key, created_at
		 FROM workspaces WHERE user_id = ? AND name = ?`, userID, name)
	var w model.Workspace
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.DBURL, &w.DBToken, &w.EncryptedKey, &w.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("workspace")
		}
		return nil, apperr.NewInternal("control: scan workspace", err)
	}
	return &w, nil
}

// WorkspaceByID fetches a workspace by its id, regardless of owner (used
// when resolving a peek target by id is not needed — peeks resolve by name
// — but image serving and admin lookups need it).
func (s *Store) WorkspaceByID(ctx context.Context, id string) (*model.Workspace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, db_url, db_token, encrypted_key, created_at
		 FROM workspaces WHERE id = ?`, id)
	var w model.Workspace
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.DBURL, &w.DBToken, &w.EncryptedKey, &w.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("workspace")
		}
		return nil, apperr.NewInternal("control: scan workspace", err)
	}
	return &w, nil
}

// CreateWorkspace inserts a new workspace row. dbURL is the locator the
// workspace store will be opened with (a local file path, unless the
// deployment configures remote hosting per workspace).
func (s *Store) CreateWorkspace(ctx context.Context, userID, name, dbURL string) (*model.Workspace, error) {
	w := &model.Workspace{
		ID:        idgen.New("ws"),
		UserID:    userID,
		Name:      name,
		DBURL:     dbURL,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, user_id, name, db_url, db_token, encrypted_key, created_at)
		 VALUES (?, ?, ?, ?, '', '', ?)`,
		w.ID, w.UserID, w.Name, w.DBURL, w.CreatedAt)
	if err != nil {
		return nil, apperr.NewConflict("workspace name already exists for this user")
	}
	return w, nil
}

// SetWorkspaceEncryptedKey persists the wrapped workspace key blob after
// first-use key materialization.
func (s *Store) SetWorkspaceEncryptedKey(ctx context.Context, workspaceID, blob string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE workspaces SET encrypted_key = ? WHERE id = ?`, blob, workspaceID)
	if err != nil {
		return apperr.NewInternal("control: set workspace key", err)
	}
	return nil
}

// DeleteWorkspace removes a workspace's control-plane row. The workspace's
// own data store is left for the caller to dispose of; the control row is
// the source of truth for "does this workspace exist".
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return apperr.NewInternal("control: delete workspace", err)
	}
	return nil
}

// CountWorkspaces returns how many workspaces userID owns, for quota checks.
func (s *Store) CountWorkspaces(ctx context.Context, userID string) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workspaces WHERE user_id = ?`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, apperr.NewInternal("control: count workspaces", err)
	}
	return n, nil
}
