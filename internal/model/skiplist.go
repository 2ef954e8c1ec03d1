package model

import "time"

// SkipEntry is a time-expiring thing the agent should not investigate.
type SkipEntry struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	Reason    string    `json:"reason"`
	ExpiresAt time.Time `json:"expires_at"`
	AddedAt   time.Time `json:"added_at"`
}

// Expired reports whether the entry's expiration has passed as of now.
func (e SkipEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
