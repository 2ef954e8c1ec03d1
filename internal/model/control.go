// Package model defines the control-plane and workspace-plane entities.
// Types here are plain structs; persistence and business rules live in the
// store and service packages that use them.
package model

import "time"

// User is a control-plane identity. Never destroyed by the service.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Plan        string    `json:"plan"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credential is a hashed agent credential. RevokedAt is consulted on every
// request.
type Credential struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Hash       string     `json:"-"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the credential has been revoked.
func (c Credential) Revoked() bool { return c.RevokedAt != nil }

// Workspace is a tenant-scoped store of memories, items, skips, and
// identity snapshots, addressed by name within an owning user.
type Workspace struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	DBURL        string    `json:"-"`
	DBToken      string    `json:"-"`
	EncryptedKey string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DefaultWorkspaceName is the workspace auto-resolved when the caller sends
// no X-Memento-Workspace header.
const DefaultWorkspaceName = "default"
