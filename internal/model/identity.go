package model

import "time"

// IdentitySnapshot is a first-person textual identity crystal derived from
// current workspace state.
type IdentitySnapshot struct {
	ID          string    `json:"id"`
	Crystal     string    `json:"crystal"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
}
