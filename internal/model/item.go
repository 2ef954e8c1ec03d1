package model

import "time"

// ItemCategory enumerates working-memory item categories.
type ItemCategory string

const (
	CategoryActiveWork      ItemCategory = "active_work"
	CategoryStandingDecision ItemCategory = "standing_decision"
	CategorySkipList        ItemCategory = "skip_list"
	CategoryWaitingFor      ItemCategory = "waiting_for"
	CategorySessionNote     ItemCategory = "session_note"
)

var ValidItemCategories = map[ItemCategory]bool{
	CategoryActiveWork: true, CategoryStandingDecision: true,
	CategorySkipList: true, CategoryWaitingFor: true, CategorySessionNote: true,
}

// ItemStatus enumerates working-memory item lifecycle states.
type ItemStatus string

const (
	StatusActive    ItemStatus = "active"
	StatusPaused    ItemStatus = "paused"
	StatusCompleted ItemStatus = "completed"
	StatusArchived  ItemStatus = "archived"
)

var ValidItemStatuses = map[ItemStatus]bool{
	StatusActive: true, StatusPaused: true, StatusCompleted: true, StatusArchived: true,
}

// Item is a structured working-memory entry.
type Item struct {
	ID           string       `json:"id"`
	Category     ItemCategory `json:"category"`
	Title        string       `json:"title"`
	Content      string       `json:"content,omitempty"`
	Status       ItemStatus   `json:"status"`
	Priority     int          `json:"priority"`
	Tags         []string     `json:"tags"`
	NextAction   string       `json:"next_action,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastTouched  time.Time    `json:"last_touched"`
}

// CountsTowardQuota reports whether this item consumes the items quota:
// archived items are explicitly excluded.
func (i Item) CountsTowardQuota() bool { return i.Status != StatusArchived }
